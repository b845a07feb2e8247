// Package lsb embeds and extracts bit sequences in the least significant bit
// of one colour channel, one bit per pixel.
package lsb

import (
	"errors"
	"fmt"

	"github.com/yyyoichi/stegano_zero/internal/bitseq"
)

var ErrCapacityExceeded = errors.New("bit count exceeds image capacity")

// Enable reports whether n bits fit into the plane.
func Enable(p *Plane, n int) error {
	if n < 0 || n > p.capacity {
		return fmt.Errorf("%w: %d bits, capacity %d", ErrCapacityExceeded, n, p.capacity)
	}
	return nil
}

// Write stores bits in scan order. Nothing is written when bits do not fit.
func (p *Plane) Write(bits *bitseq.Sequence) error {
	if err := Enable(p, bits.Len()); err != nil {
		return err
	}
	for i, bit := range bits.Bools() {
		off := p.offset(i)
		if bit {
			p.img.Pix[off] |= 1
		} else {
			p.img.Pix[off] &^= 1
		}
	}
	return nil
}

// Read extracts the first count bits in scan order.
func (p *Plane) Read(count int) (*bitseq.Sequence, error) {
	var c cursor
	return c.read(p, count)
}

// ReadFramed reads a fixed prefix, asks discover how many bits follow it and
// continues the same scan from where the prefix ended. The returned sequence
// holds the prefix followed by the discovered remainder.
func (p *Plane) ReadFramed(prefix int, discover func(*bitseq.Sequence) (int, error)) (*bitseq.Sequence, error) {
	var c cursor
	head, err := c.read(p, prefix)
	if err != nil {
		return nil, err
	}
	more, err := discover(head)
	if err != nil {
		return nil, err
	}
	body, err := c.read(p, more)
	if err != nil {
		return nil, err
	}
	head.Concat(body)
	return head, nil
}

type cursor struct {
	pos int
}

func (c *cursor) read(p *Plane, n int) (*bitseq.Sequence, error) {
	if n < 0 || n > p.capacity-c.pos {
		return nil, fmt.Errorf("%w: %d bits at offset %d, capacity %d", ErrCapacityExceeded, n, c.pos, p.capacity)
	}
	bits := bitseq.New()
	for i := c.pos; i < c.pos+n; i++ {
		bits.Append(p.img.Pix[p.offset(i)]&1 == 1)
	}
	c.pos += n
	return bits, nil
}
