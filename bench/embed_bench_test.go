package bench_test

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"testing"

	stegano "github.com/yyyoichi/stegano_zero"
)

// BenchmarkEncode_FHD runs a table-driven set of encode benchmarks for FHD images
func BenchmarkEncode_FHD(b *testing.B) {
	test := []struct {
		name    string
		payload int
		opts    []stegano.Option
	}{
		{name: "1KiB_AESGCM", payload: 1 << 10},
		{name: "1KiB_ChaCha", payload: 1 << 10, opts: []stegano.Option{
			stegano.WithCipher(stegano.ChaCha20Poly1305),
		}},
		{name: "1KiB_Golay", payload: 1 << 10, opts: []stegano.Option{
			stegano.WithGolay(),
		}},
		{name: "64KiB_AESGCM", payload: 64 << 10},
		{name: "64KiB_Golay", payload: 64 << 10, opts: []stegano.Option{
			stegano.WithGolay(),
		}},
	}

	img := createImage(1920, 1080)
	key := bytes.Repeat([]byte{0x42}, stegano.KeySize)
	ctx := b.Context()

	for _, tt := range test {
		b.Run(tt.name, func(b *testing.B) {
			s, err := stegano.New(tt.opts...)
			if err != nil {
				b.Fatalf("Failed to create Codec instance (%s): %v", tt.name, err)
			}
			payload := bytes.Repeat([]byte{0xa5}, tt.payload)
			for b.Loop() {
				dist, err := s.Encode(ctx, img, payload, key)
				if err != nil {
					b.Fatalf("Failed to encode payload (%s): %v", tt.name, err)
				}
				_ = dist
			}
		})
	}
}

// BenchmarkDecode_FHD measures extraction of the frames written by BenchmarkEncode_FHD
func BenchmarkDecode_FHD(b *testing.B) {
	img := createImage(1920, 1080)
	key := bytes.Repeat([]byte{0x42}, stegano.KeySize)
	ctx := b.Context()

	for _, size := range []int{1 << 10, 64 << 10} {
		s, _ := stegano.New()
		stego, err := s.Encode(ctx, img, bytes.Repeat([]byte{0xa5}, size), key)
		if err != nil {
			b.Fatalf("Failed to encode payload: %v", err)
		}
		b.Run(fmt.Sprintf("%dKiB", size>>10), func(b *testing.B) {
			for b.Loop() {
				if _, err := s.Decode(ctx, stego, key); err != nil {
					b.Fatalf("Failed to decode payload: %v", err)
				}
			}
		})
	}
}

// createImage creates a widthxheight test image with gradient pattern
func createImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			// Create gradient effect to simulate realistic image data
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			b := uint8(((x + y) * 255) / (width + height))
			img.Set(x, y, color.RGBA{r, g, b, 255})
		}
	}
	return img
}
