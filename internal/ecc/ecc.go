// Package ecc adds optional forward error correction on top of the carrier bits.
package ecc

import (
	"fmt"

	"github.com/yyyoichi/golay"
	"github.com/yyyoichi/stegano_zero/internal/bitseq"
)

// Coder maps n payload bits to EncodedBits(n) carrier bits and back.
type Coder interface {
	EncodedBits(n int) int
	Encode(bits *bitseq.Sequence) *bitseq.Sequence
	Decode(bits *bitseq.Sequence, n int) (*bitseq.Sequence, error)
}

var _ Coder = None{}
var _ Coder = Golay{}

// None writes the bits as they are.
type None struct{}

func (None) EncodedBits(n int) int { return n }

func (None) Encode(bits *bitseq.Sequence) *bitseq.Sequence { return bits }

func (None) Decode(bits *bitseq.Sequence, n int) (*bitseq.Sequence, error) {
	if bits.Len() != n {
		return nil, fmt.Errorf("got %d bits, want %d", bits.Len(), n)
	}
	return bits, nil
}

// Golay uses the extended binary Golay code, correcting up to 3 flipped bits
// in every 24-bit codeword at the price of doubling the carrier size.
type Golay struct{}

func (Golay) EncodedBits(n int) int {
	if n == 0 {
		return 0
	}
	return golay.EncodedBits(n)
}

func (g Golay) Encode(bits *bitseq.Sequence) *bitseq.Sequence {
	if bits.Len() == 0 {
		return bitseq.New()
	}
	var encoded []uint64
	enc := golay.NewEncoder(&encoded)
	_ = enc.Encode(bits.Words(), bits.Len())
	return bitseq.FromWords(encoded, enc.Bits())
}

func (g Golay) Decode(bits *bitseq.Sequence, n int) (*bitseq.Sequence, error) {
	if n == 0 {
		return bitseq.New(), nil
	}
	if want := g.EncodedBits(n); bits.Len() != want {
		return nil, fmt.Errorf("got %d encoded bits, want %d", bits.Len(), want)
	}
	var decoded []uint64
	dec := golay.NewDecoder(bits.Words(), bits.Len())
	if err := dec.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("golay decode: %w", err)
	}
	return bitseq.FromWords(decoded, n), nil
}
