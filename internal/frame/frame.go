// Package frame defines the on-carrier byte layout:
//
//	4bytes big-endian ciphertext length + nonce + ciphertext(including tag)
//
// The length field doubles as the associated data of the AEAD, which binds the
// declared size to the ciphertext that follows it.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	// LengthSize is the size of the length field, in bytes
	LengthSize = 4
	// LengthBits is the size of the length field, in bits
	LengthBits = LengthSize * 8
)

var (
	ErrInvalidNonce  = errors.New("invalid nonce length")
	ErrInvalidHeader = errors.New("invalid length header")
	ErrTooLarge      = errors.New("ciphertext too large for length field")
	ErrShortBody     = errors.New("frame body shorter than nonce")
)

// Header returns the length field for a ciphertext of length bytes.
func Header(length int) []byte {
	h := make([]byte, LengthSize)
	binary.BigEndian.PutUint32(h, uint32(length))
	return h
}

// SealedLen returns the ciphertext length an AEAD with the given overhead
// produces for a plaintext of plaintextLen bytes.
func SealedLen(plaintextLen, overhead int) int {
	return plaintextLen + overhead
}

// Build concatenates the length field, nonce and ciphertext.
func Build(ciphertext, nonce []byte, nonceSize int) ([]byte, error) {
	if len(nonce) != nonceSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidNonce, len(nonce), nonceSize)
	}
	if uint64(len(ciphertext)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(ciphertext))
	}
	b := make([]byte, 0, LengthSize+len(nonce)+len(ciphertext))
	b = append(b, Header(len(ciphertext))...)
	b = append(b, nonce...)
	b = append(b, ciphertext...)
	return b, nil
}

// ParseLength decodes the length field.
func ParseLength(header []byte) (uint32, error) {
	if len(header) != LengthSize {
		return 0, fmt.Errorf("%w: %d bytes", ErrInvalidHeader, len(header))
	}
	return binary.BigEndian.Uint32(header), nil
}

// BodyBits returns how many bits follow the length field.
func BodyBits(length uint32, nonceSize int) uint64 {
	return (uint64(nonceSize) + uint64(length)) * 8
}

// Split separates the part of a frame that follows the length field.
func Split(body []byte, nonceSize int) (nonce, ciphertext []byte, err error) {
	if len(body) < nonceSize {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrShortBody, len(body))
	}
	return body[:nonceSize], body[nonceSize:], nil
}
