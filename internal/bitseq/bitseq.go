// Package bitseq provides an ordered, restartable bit sequence used as the
// unit of transfer between frames and the pixel channel.
package bitseq

import (
	"github.com/yyyoichi/bitstream-go"
	"github.com/yyyoichi/stegano_zero/internal/bitconv"
)

// Sequence is an append-only sequence of bits packed into uint64 words.
type Sequence struct {
	w *bitstream.BitWriter[uint64]
}

func New() *Sequence {
	return &Sequence{w: bitstream.NewBitWriter[uint64](0, 0)}
}

// FromBytes returns the bits of b, most significant bit first.
func FromBytes(b []byte) *Sequence {
	return FromBools(bitconv.BytesToBools(b))
}

func FromBools(bits []bool) *Sequence {
	s := New()
	for _, v := range bits {
		s.w.WriteBool(v)
	}
	return s
}

// FromWords reads the first size bits of packed words, as produced by Words.
func FromWords(data []uint64, size int) *Sequence {
	r := bitstream.NewBitReader(data, 0, 0)
	r.SetBits(size)
	s := New()
	for i := range size {
		bit, _ := r.ReadBitAt(i)
		s.w.WriteBool(bit)
	}
	return s
}

// Len returns the number of bits in the sequence.
func (s *Sequence) Len() int {
	return s.w.Bits()
}

func (s *Sequence) Append(bit bool) {
	s.w.WriteBool(bit)
}

// Concat appends every bit of o to s.
func (s *Sequence) Concat(o *Sequence) {
	for _, v := range o.Bools() {
		s.w.WriteBool(v)
	}
}

// At returns the bit at position i. It panics if i is out of range.
func (s *Sequence) At(i int) bool {
	if i < 0 || i >= s.Len() {
		panic("bitseq: index out of range")
	}
	bit, _ := s.reader().ReadBitAt(i)
	return bit
}

func (s *Sequence) Bools() []bool {
	r := s.reader()
	bits := make([]bool, r.Bits())
	for i := range bits {
		bits[i], _ = r.ReadBitAt(i)
	}
	return bits
}

// Bytes packs the sequence into bytes. A tail shorter than a byte is dropped.
func (s *Sequence) Bytes() []byte {
	return bitconv.BoolsToBytes(s.Bools())
}

// Words returns the packed representation. Only the first Len bits are meaningful.
func (s *Sequence) Words() []uint64 {
	return s.w.Data()
}

func (s *Sequence) reader() *bitstream.BitReader[uint64] {
	r := bitstream.NewBitReader(s.w.Data(), 0, 0)
	r.SetBits(s.w.Bits())
	return r
}
