package lsb

import (
	"fmt"
	"image"
	"strings"

	"golang.org/x/image/draw"
)

// Channel selects which colour sample of a pixel carries the embedded bit.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
)

func (c Channel) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

func (c Channel) Valid() bool {
	return c >= Red && c <= Blue
}

// ParseChannel accepts a channel name ("red", "g", ...) case-insensitively.
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "r", "red":
		return Red, nil
	case "g", "green":
		return Green, nil
	case "b", "blue":
		return Blue, nil
	}
	return 0, fmt.Errorf("unknown channel %q", s)
}

// Clone copies src into a new non-premultiplied RGBA image.
// Channel values of opaque and NRGBA sources are preserved exactly.
func Clone(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}

// View returns src itself when it already is an *image.NRGBA, otherwise a converted copy.
// The result must be treated as read-only.
func View(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	return Clone(src)
}

// Plane is the one-bit-per-pixel channel of an image.
type Plane struct {
	img           *image.NRGBA
	channel       Channel
	width, height int
	capacity      int
}

func NewPlane(img *image.NRGBA, ch Channel) *Plane {
	b := img.Bounds()
	return &Plane{
		img:      img,
		channel:  ch,
		width:    b.Dx(),
		height:   b.Dy(),
		capacity: b.Dx() * b.Dy(),
	}
}

// Capacity returns the number of embeddable bits.
func Capacity(rect image.Rectangle) int {
	return rect.Dx() * rect.Dy()
}

func (p *Plane) Capacity() int {
	return p.capacity
}

// Point returns the pixel that carries bit i.
// Columns are visited left to right, each one top to bottom.
func (p *Plane) Point(i int) image.Point {
	origin := p.img.Bounds().Min
	return image.Pt(origin.X+i/p.height, origin.Y+i%p.height)
}

func (p *Plane) offset(i int) int {
	pt := p.Point(i)
	return p.img.PixOffset(pt.X, pt.Y) + int(p.channel)
}
