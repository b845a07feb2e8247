package stegano

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/yyyoichi/stegano_zero/internal/ecc"
)

type Option func(*Codec) error

// WithCipher selects the AEAD. The default is AESGCM.
func WithCipher(c Cipher) Option {
	return func(s *Codec) error {
		if !c.valid() {
			return fmt.Errorf("%w: %s", ErrInvalidOption, c)
		}
		s.cipher = c
		return nil
	}
}

// WithChannel selects the colour channel whose least significant bit carries the frame.
// The default is Red.
func WithChannel(ch Channel) Option {
	return func(s *Codec) error {
		if !ch.Valid() {
			return fmt.Errorf("%w: %s", ErrInvalidOption, ch)
		}
		s.channel = ch
		return nil
	}
}

// WithGolay protects the embedded bits with a Golay(24,12) code.
// A steganogram survives up to 3 flipped bits per 24 embedded bits, but the frame
// occupies twice as many pixels. Encoder and decoder must agree on this option.
func WithGolay() Option {
	return func(s *Codec) error {
		s.coder = ecc.Golay{}
		return nil
	}
}

// WithRand replaces crypto/rand as the nonce source.
func WithRand(r io.Reader) Option {
	return func(s *Codec) error {
		if r == nil {
			return fmt.Errorf("%w: nil random source", ErrInvalidOption)
		}
		s.rand = r
		return nil
	}
}

// WithLogger enables debug logging of the encode and decode stages.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Codec) error {
		s.logger = l
		return nil
	}
}
