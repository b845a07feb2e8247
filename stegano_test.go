package stegano

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yyyoichi/stegano_zero/internal/lsb"
)

// createImage creates a widthxheight test image with gradient pattern
func createImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			b := uint8(((x + y) * 255) / (width + height))
			img.Set(x, y, color.RGBA{r, g, b, 255})
		}
	}
	return img
}

func newKey(t testing.TB, size int) []byte {
	key := make([]byte, size)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

// flipBit inverts the carrier bit at position i of a steganogram.
func flipBit(img image.Image, ch Channel, i int) *image.NRGBA {
	dst := lsb.Clone(img)
	p := lsb.NewPlane(dst, ch).Point(i)
	c := dst.NRGBAAt(p.X, p.Y)
	switch ch {
	case Red:
		c.R ^= 1
	case Green:
		c.G ^= 1
	case Blue:
		c.B ^= 1
	}
	dst.SetNRGBA(p.X, p.Y, c)
	return dst
}

func TestCodec_RoundTrip(t *testing.T) {
	test := []struct {
		name    string
		payload []byte
		opts    []Option
		keySize int
	}{
		{"aes-256", []byte("My secret message!"), nil, 32},
		{"aes-128", []byte("My secret message!"), nil, 16},
		{"empty payload", []byte{}, nil, 32},
		{"binary", []byte{0x00, 0xff, 0x00, 0x80, 0x01}, nil, 24},
		{"chacha20-poly1305", []byte("こんにちは Hello"), []Option{WithCipher(ChaCha20Poly1305)}, 32},
		{"green channel", []byte("green"), []Option{WithChannel(Green)}, 32},
		{"blue channel", []byte("blue"), []Option{WithChannel(Blue)}, 32},
		{"golay", []byte("error corrected"), []Option{WithGolay()}, 32},
		{"golay chacha blue", bytes.Repeat([]byte{0x5a}, 40), []Option{WithGolay(), WithCipher(ChaCha20Poly1305), WithChannel(Blue)}, 32},
	}
	ctx := context.Background()
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.opts...)
			require.NoError(t, err)
			key := newKey(t, tt.keySize)
			cover := createImage(64, 64)

			stego, err := c.Encode(ctx, cover, tt.payload, key)
			require.NoError(t, err)
			assert.Equal(t, cover.Bounds(), stego.Bounds())

			got, err := c.Decode(ctx, stego, key)
			require.NoError(t, err)
			assert.Equal(t, tt.payload, got)
		})
	}
}

func TestCodec_ConcreteScenario(t *testing.T) {
	ctx := context.Background()
	payload := []byte("My secret message!")
	require.Len(t, payload, 18)
	key := newKey(t, 32)
	c, err := New()
	require.NoError(t, err)

	// 4 length + 12 nonce + 18 payload + 16 tag = 50 bytes
	assert.Equal(t, 400, c.FrameBits(len(payload)))

	stego, err := c.Encode(ctx, createImage(64, 64), payload, key)
	require.NoError(t, err)
	got, err := c.Decode(ctx, stego, key)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	_, err = c.Encode(ctx, createImage(6, 6), payload, key)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestCodec_LengthField(t *testing.T) {
	ctx := context.Background()
	c, err := New()
	require.NoError(t, err)
	stego, err := c.Encode(ctx, createImage(32, 32), []byte("My secret message!"), newKey(t, 32))
	require.NoError(t, err)

	head, err := lsb.NewPlane(lsb.View(stego), Red).Read(32)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 34}, head.Bytes())
}

func TestCodec_CapacityBoundary(t *testing.T) {
	ctx := context.Background()
	key := newKey(t, 32)
	payload := []byte("ab")
	c, err := New()
	require.NoError(t, err)
	need := c.FrameBits(len(payload))
	require.Equal(t, 272, need)

	// one pixel per bit, a single row keeps the pixel count exact
	exact := createImage(need, 1)
	stego, err := c.Encode(ctx, exact, payload, key)
	require.NoError(t, err)
	got, err := c.Decode(ctx, stego, key)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	square := createImage(16, 17)
	_, err = c.Encode(ctx, square, payload, key)
	require.NoError(t, err)

	short := createImage(need-1, 1)
	_, err = c.Encode(ctx, short, payload, key)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	assert.Equal(t, len(payload), c.MaxPayload(exact))
	assert.Equal(t, len(payload)-1, c.MaxPayload(short))
	assert.Equal(t, -1, c.MaxPayload(createImage(6, 6)))
}

func TestCodec_CoverUntouched(t *testing.T) {
	ctx := context.Background()
	cover := createImage(40, 40)
	orig := lsb.Clone(cover)

	stego, err := Encode(ctx, cover, []byte("do not alias"), newKey(t, 32))
	require.NoError(t, err)
	assert.Equal(t, orig.Pix, lsb.Clone(cover).Pix)

	// only the red least significant bits may differ
	s := lsb.View(stego)
	for i := range s.Pix {
		diff := s.Pix[i] ^ orig.Pix[i]
		if i%4 == 0 {
			assert.LessOrEqual(t, diff, uint8(1))
		} else {
			assert.Zero(t, diff)
		}
	}
}

func TestCodec_TamperSensitivity(t *testing.T) {
	ctx := context.Background()
	key := newKey(t, 32)
	payload := []byte("My secret message!")
	c, err := New()
	require.NoError(t, err)
	stego, err := c.Encode(ctx, createImage(64, 64), payload, key)
	require.NoError(t, err)

	for i := range c.FrameBits(len(payload)) {
		got, err := c.Decode(ctx, flipBit(stego, Red, i), key)
		require.Error(t, err, "bit %d", i)
		assert.Nil(t, got)
		assert.True(t,
			errors.Is(err, ErrAuthenticationFailed) || errors.Is(err, ErrMalformedCarrier),
			"bit %d: %v", i, err)
	}

	t.Run("bits after the frame are ignored", func(t *testing.T) {
		got, err := c.Decode(ctx, flipBit(stego, Red, c.FrameBits(len(payload))), key)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("length pointing outside the image", func(t *testing.T) {
		got, err := c.Decode(ctx, flipBit(stego, Red, 0), key)
		assert.ErrorIs(t, err, ErrMalformedCarrier)
		assert.Nil(t, got)
	})

	t.Run("neighbouring length", func(t *testing.T) {
		_, err := c.Decode(ctx, flipBit(stego, Red, 31), key)
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})
}

func TestCodec_GolayCorrectsFlippedBit(t *testing.T) {
	ctx := context.Background()
	key := newKey(t, 32)
	payload := []byte("robust")
	c, err := New(WithGolay())
	require.NoError(t, err)
	stego, err := c.Encode(ctx, createImage(64, 64), payload, key)
	require.NoError(t, err)

	for _, i := range []int{0, 40, c.FrameBits(len(payload)) - 1} {
		got, err := c.Decode(ctx, flipBit(stego, Red, i), key)
		require.NoError(t, err, "bit %d", i)
		assert.Equal(t, payload, got)
	}
}

func TestCodec_WrongKey(t *testing.T) {
	ctx := context.Background()
	cover := createImage(64, 64)
	for _, cipher := range []Cipher{AESGCM, ChaCha20Poly1305} {
		t.Run(cipher.String(), func(t *testing.T) {
			k1, k2 := newKey(t, 32), newKey(t, 32)
			require.NotEqual(t, k1, k2)
			stego, err := Encode(ctx, cover, []byte("secret"), k1, WithCipher(cipher))
			require.NoError(t, err)

			got, err := Decode(ctx, stego, k2, WithCipher(cipher))
			assert.ErrorIs(t, err, ErrAuthenticationFailed)
			assert.Nil(t, got)
		})
	}
}

func TestCodec_WrongChannel(t *testing.T) {
	ctx := context.Background()
	key := newKey(t, 32)
	stego, err := Encode(ctx, createImage(64, 64), []byte("secret"), key, WithChannel(Green))
	require.NoError(t, err)

	_, err = Decode(ctx, stego, key)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthenticationFailed) || errors.Is(err, ErrMalformedCarrier))
}

func TestCodec_FreshNonces(t *testing.T) {
	ctx := context.Background()
	key := newKey(t, 32)
	cover := createImage(64, 64)
	payload := []byte("same payload")

	s1, err := Encode(ctx, cover, payload, key)
	require.NoError(t, err)
	s2, err := Encode(ctx, cover, payload, key)
	require.NoError(t, err)
	assert.NotEqual(t, lsb.View(s1).Pix, lsb.View(s2).Pix)

	for _, s := range []image.Image{s1, s2} {
		got, err := Decode(ctx, s, key)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	}

	t.Run("fixed random source", func(t *testing.T) {
		seed := bytes.Repeat([]byte{7}, NonceSize)
		a, err := Encode(ctx, cover, payload, key, WithRand(bytes.NewReader(seed)))
		require.NoError(t, err)
		b, err := Encode(ctx, cover, payload, key, WithRand(bytes.NewReader(seed)))
		require.NoError(t, err)
		assert.Equal(t, lsb.View(a).Pix, lsb.View(b).Pix)
	})

	t.Run("exhausted random source", func(t *testing.T) {
		_, err := Encode(ctx, cover, payload, key, WithRand(bytes.NewReader(nil)))
		assert.Error(t, err)
	})
}

func TestCodec_MalformedCarrier(t *testing.T) {
	ctx := context.Background()
	key := newKey(t, 32)

	t.Run("smaller than the length field", func(t *testing.T) {
		_, err := Decode(ctx, createImage(5, 6), key)
		assert.ErrorIs(t, err, ErrMalformedCarrier)
	})

	t.Run("all ones", func(t *testing.T) {
		img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
		for i := range img.Pix {
			img.Pix[i] = 0xff
		}
		_, err := Decode(ctx, img, key)
		assert.ErrorIs(t, err, ErrMalformedCarrier)
	})

	t.Run("zero length", func(t *testing.T) {
		img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
		_, err := Decode(ctx, img, key)
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})
}

func TestCodec_InvalidKey(t *testing.T) {
	ctx := context.Background()
	cover := createImage(64, 64)
	test := []struct {
		name string
		key  []byte
		opts []Option
	}{
		{"aes empty", nil, nil},
		{"aes 15 bytes", make([]byte, 15), nil},
		{"chacha 16 bytes", make([]byte, 16), []Option{WithCipher(ChaCha20Poly1305)}},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(ctx, cover, []byte("x"), tt.key, tt.opts...)
			assert.ErrorIs(t, err, ErrInvalidKey)
			_, err = Decode(ctx, cover, tt.key, tt.opts...)
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}

func TestNew_InvalidOption(t *testing.T) {
	for _, opt := range []Option{
		WithCipher(Cipher(9)),
		WithChannel(Channel(3)),
		WithRand(nil),
	} {
		_, err := New(opt)
		assert.ErrorIs(t, err, ErrInvalidOption)
	}
}

func TestCodec_Context(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	key := newKey(t, 32)
	cover := createImage(64, 64)

	_, err := Encode(ctx, cover, []byte("x"), key)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = Decode(ctx, cover, key)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBatch(t *testing.T) {
	ctx := context.Background()
	cover := createImage(64, 64)
	b := NewBatch(cover)
	assert.Equal(t, 64*64, b.Capacity())

	key := newKey(t, 32)
	for _, payload := range []string{"first", "second", "third"} {
		stego, err := b.Encode(ctx, []byte(payload), key)
		require.NoError(t, err)
		got, err := Decode(ctx, stego, key)
		require.NoError(t, err)
		assert.Equal(t, payload, string(got))
	}
	_, err := b.Encode(ctx, make([]byte, 4096), key)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestParseCipher(t *testing.T) {
	for _, c := range []Cipher{AESGCM, ChaCha20Poly1305} {
		got, err := ParseCipher(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseCipher("rot13")
	assert.ErrorIs(t, err, ErrInvalidOption)
}
