package stegano

import (
	"crypto/hkdf"
	"crypto/sha256"
	"fmt"
)

const (
	// KeySize is the length of keys returned by DeriveKey, in bytes
	KeySize = 32
	keyInfo = "stegano_zero/v1/aead-key"
)

// DeriveKey stretches a shared secret into a 32 byte key usable with every Cipher.
// salt may be empty; encoder and decoder must use the same one.
func DeriveKey(secret, salt []byte) ([]byte, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: empty secret", ErrInvalidKey)
	}
	return hkdf.Key(sha256.New, secret, salt, keyInfo, KeySize)
}
