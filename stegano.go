// Package stegano hides an encrypted, integrity-protected payload in the least
// significant bits of an image and recovers it without knowing its length in advance.
//
// The embedded frame is
//
//	4bytes big-endian ciphertext length + 12bytes nonce + ciphertext(payload + 16bytes tag)
//
// written most significant bit first, one bit per pixel, into one colour channel.
// Pixels are visited column by column: x from left to right, and y from top to
// bottom within each column. The length field is the associated data of the AEAD,
// so a tampered length fails authentication instead of producing a misread.
package stegano

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"image"
	"io"
	"sort"

	"github.com/rs/zerolog"
	"github.com/yyyoichi/stegano_zero/internal/bitseq"
	"github.com/yyyoichi/stegano_zero/internal/ecc"
	"github.com/yyyoichi/stegano_zero/internal/frame"
	"github.com/yyyoichi/stegano_zero/internal/lsb"
)

var (
	// ErrCapacityExceeded is returned by Encode when the frame does not fit the cover image.
	ErrCapacityExceeded = errors.New("frame exceeds image capacity")
	// ErrAuthenticationFailed is returned by Decode on a wrong key or a modified steganogram.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrMalformedCarrier is returned by Decode when the embedded length cannot describe a frame in the image.
	ErrMalformedCarrier = errors.New("malformed carrier")
	// ErrInvalidKey is returned when the key size does not suit the cipher, or DeriveKey gets an empty secret.
	ErrInvalidKey = errors.New("invalid key")
	// ErrInvalidOption is returned for an unknown cipher or channel, or a nil random source.
	ErrInvalidOption = errors.New("invalid option")
)

// Channel selects the colour channel carrying the frame.
type Channel = lsb.Channel

const (
	Red   = lsb.Red
	Green = lsb.Green
	Blue  = lsb.Blue
)

// Encode hides payload in a copy of cover with the specified options.
// This is a convenience function that creates a Codec instance and calls its Encode method.
func Encode(ctx context.Context, cover image.Image, payload, key []byte, opts ...Option) (image.Image, error) {
	c, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return c.Encode(ctx, cover, payload, key)
}

// Decode recovers a payload from a steganogram with the specified options.
// This is a convenience function that creates a Codec instance and calls its Decode method.
func Decode(ctx context.Context, steganogram image.Image, key []byte, opts ...Option) ([]byte, error) {
	c, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return c.Decode(ctx, steganogram, key)
}

// Codec holds the embedding policy. It keeps no per-call state and is safe for
// concurrent use on distinct images.
type Codec struct {
	cipher  Cipher
	channel Channel
	coder   ecc.Coder
	rand    io.Reader
	logger  zerolog.Logger
}

// New initializes a codec. Without options it seals with AES-GCM, embeds into the
// red channel, uses crypto/rand for nonces and logs nothing.
func New(opts ...Option) (*Codec, error) {
	c := &Codec{
		cipher:  AESGCM,
		channel: Red,
		coder:   ecc.None{},
		rand:    rand.Reader,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Capacity returns the number of bits the image can carry.
func (c *Codec) Capacity(img image.Image) int {
	return lsb.Capacity(img.Bounds())
}

// FrameBits returns the number of carrier bits used by a payload of payloadLen bytes.
func (c *Codec) FrameBits(payloadLen int) int {
	return c.frameBits(frame.SealedLen(payloadLen, TagSize))
}

// MaxPayload returns the largest payload, in bytes, that fits into img.
// It is negative when not even an empty payload fits.
func (c *Codec) MaxPayload(img image.Image) int {
	capacity := c.Capacity(img)
	n := sort.Search(capacity/8+1, func(p int) bool {
		return c.FrameBits(p) > capacity
	})
	return n - 1
}

// Encode embeds payload into a copy of cover and returns the copy. cover is not modified.
//
// Process:
//  1. Derives the ciphertext length from the payload length and the tag size.
//  2. Checks that the whole frame fits before touching any pixel.
//  3. Seals the payload once, with a fresh nonce and the length field as associated data.
//  4. Writes length field, nonce and ciphertext into the channel bits.
//
// Returns ErrCapacityExceeded if the frame does not fit.
func (c *Codec) Encode(ctx context.Context, cover image.Image, payload, key []byte) (image.Image, error) {
	aead, err := c.cipher.aead(key)
	if err != nil {
		return nil, err
	}
	length := frame.SealedLen(len(payload), aead.Overhead())
	need := c.frameBits(length)
	if capacity := c.Capacity(cover); need > capacity {
		return nil, fmt.Errorf("%w: frame needs %d bits, image has %d", ErrCapacityExceeded, need, capacity)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	header := frame.Header(length)
	ciphertext := aead.Seal(nil, nonce, payload, header)
	if len(ciphertext) != length {
		return nil, fmt.Errorf("ciphertext length %d, expected %d", len(ciphertext), length)
	}
	b, err := frame.Build(ciphertext, nonce, aead.NonceSize())
	if err != nil {
		return nil, fmt.Errorf("failed to build frame: %w", err)
	}

	img := lsb.Clone(cover)
	plane := lsb.NewPlane(img, c.channel)
	bits := c.coder.Encode(bitseq.FromBytes(b[:frame.LengthSize]))
	bits.Concat(c.coder.Encode(bitseq.FromBytes(b[frame.LengthSize:])))
	if err := plane.Write(bits); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCapacityExceeded, err)
	}
	c.logger.Debug().
		Str("cipher", c.cipher.String()).
		Str("channel", c.channel.String()).
		Int("payload", len(payload)).
		Int("ciphertext", length).
		Int("bits", bits.Len()).
		Int("capacity", plane.Capacity()).
		Msg("embedded frame")
	return img, nil
}

// Decode extracts and authenticates the payload embedded by Encode.
//
// Process:
//  1. Reads the 32 bit length field.
//  2. Rejects lengths whose frame would not fit the image.
//  3. Continues the same scan for exactly nonce + ciphertext bits.
//  4. Opens the ciphertext with the length field, as read, for associated data.
//
// steganogram is only read. No partial payload is returned on failure.
func (c *Codec) Decode(ctx context.Context, steganogram image.Image, key []byte) ([]byte, error) {
	aead, err := c.cipher.aead(key)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	plane := lsb.NewPlane(lsb.View(steganogram), c.channel)
	nonceSize := aead.NonceSize()

	var (
		headBits = c.coder.EncodedBits(frame.LengthBits)
		header   []byte
		bodyBits int
	)
	bits, err := plane.ReadFramed(headBits, func(head *bitseq.Sequence) (int, error) {
		decoded, err := c.coder.Decode(head, frame.LengthBits)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrMalformedCarrier, err)
		}
		header = decoded.Bytes()
		length, err := frame.ParseLength(header)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrMalformedCarrier, err)
		}
		available := plane.Capacity() - headBits
		n := frame.BodyBits(length, nonceSize)
		if n > uint64(available) {
			return 0, fmt.Errorf("%w: declared length %d needs %d more bits, %d available", ErrMalformedCarrier, length, n, available)
		}
		bodyBits = int(n)
		more := c.coder.EncodedBits(bodyBits)
		if more > available {
			return 0, fmt.Errorf("%w: declared length %d needs %d more bits, %d available", ErrMalformedCarrier, length, more, available)
		}
		c.logger.Debug().Uint32("length", length).Int("bits", more).Msg("read length field")
		return more, ctx.Err()
	})
	if err != nil {
		if errors.Is(err, lsb.ErrCapacityExceeded) {
			return nil, fmt.Errorf("%w: %w", ErrMalformedCarrier, err)
		}
		return nil, err
	}

	body, err := c.coder.Decode(bitseq.FromBools(bits.Bools()[headBits:]), bodyBits)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCarrier, err)
	}
	nonce, ciphertext, err := frame.Split(body.Bytes(), nonceSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCarrier, err)
	}
	payload, err := aead.Open(nil, nonce, ciphertext, header)
	if err != nil {
		c.logger.Debug().Err(err).Msg("rejected frame")
		return nil, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}
	c.logger.Debug().Int("payload", len(payload)).Msg("verified frame")
	return payload, nil
}

func (c *Codec) frameBits(length int) int {
	return c.coder.EncodedBits(frame.LengthBits) + c.coder.EncodedBits((NonceSize+length)*8)
}

// Batch encodes several payloads into the same cover image, converting it only once.
type Batch struct {
	original *image.NRGBA
}

// NewBatch creates a new Batch instance holding a private copy of src.
func NewBatch(src image.Image) *Batch {
	return &Batch{original: lsb.Clone(src)}
}

// Encode embeds payload into a fresh copy of the cached cover with specified options.
func (b *Batch) Encode(ctx context.Context, payload, key []byte, opts ...Option) (image.Image, error) {
	c, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return c.Encode(ctx, b.original, payload, key)
}

// Capacity returns the number of bits the cached cover can carry.
func (b *Batch) Capacity() int {
	return lsb.Capacity(b.original.Bounds())
}
