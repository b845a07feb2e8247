package stegano

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"strings"

	"github.com/yyyoichi/stegano_zero/internal/lsb"
	"golang.org/x/crypto/chacha20poly1305"
)

// Cipher selects the AEAD used to seal the payload.
type Cipher int

const (
	// AESGCM is AES in Galois/Counter Mode. The key selects AES-128, AES-192 or AES-256.
	AESGCM Cipher = iota
	// ChaCha20Poly1305 takes a 32 byte key.
	ChaCha20Poly1305
)

const (
	// NonceSize is the nonce length of every supported cipher, in bytes
	NonceSize = 12
	// TagSize is the authentication tag length of every supported cipher, in bytes
	TagSize = 16
)

func (c Cipher) String() string {
	switch c {
	case AESGCM:
		return "aes-gcm"
	case ChaCha20Poly1305:
		return "chacha20-poly1305"
	}
	return fmt.Sprintf("cipher(%d)", int(c))
}

// ParseCipher accepts the names returned by String.
func ParseCipher(s string) (Cipher, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "aes-gcm", "aesgcm", "aes":
		return AESGCM, nil
	case "chacha20-poly1305", "chacha20poly1305", "chacha":
		return ChaCha20Poly1305, nil
	}
	return 0, fmt.Errorf("%w: unknown cipher %q", ErrInvalidOption, s)
}

// ParseChannel accepts "red", "green" or "blue", or their first letter.
func ParseChannel(s string) (Channel, error) {
	ch, err := lsb.ParseChannel(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidOption, err)
	}
	return ch, nil
}

func (c Cipher) valid() bool {
	return c == AESGCM || c == ChaCha20Poly1305
}

func (c Cipher) aead(key []byte) (cipher.AEAD, error) {
	var (
		aead cipher.AEAD
		err  error
	)
	switch c {
	case AESGCM:
		var block cipher.Block
		block, err = aes.NewCipher(key)
		if err == nil {
			aead, err = cipher.NewGCM(block)
		}
	case ChaCha20Poly1305:
		aead, err = chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidOption, c)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s with %d byte key: %w", ErrInvalidKey, c, len(key), err)
	}
	return aead, nil
}
