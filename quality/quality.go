// Package quality measures how much a steganogram differs from its cover and how
// visible the embedding is to a pairs-of-values chi-square attack.
package quality

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/yyyoichi/stegano_zero/internal/lsb"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var ErrBoundsMismatch = errors.New("image bounds differ")

// Report compares the RGB samples of two images.
type Report struct {
	Pixels   int
	Changed  int     // pixels with at least one differing RGB sample
	MSE      float64 // mean squared error over RGB samples, 8 bit scale
	PSNR     float64 // peak signal to noise ratio in dB, +Inf for identical images
	LumaPSNR float64 // PSNR of the BT.601 luma plane alone
}

// Compare measures the distortion stego introduces relative to cover.
func Compare(cover, stego image.Image) (Report, error) {
	if cover.Bounds() != stego.Bounds() {
		return Report{}, fmt.Errorf("%w: %v, %v", ErrBoundsMismatch, cover.Bounds(), stego.Bounds())
	}
	a, b := lsb.View(cover), lsb.View(stego)
	var r Report
	r.Pixels = lsb.Capacity(a.Bounds())
	if r.Pixels == 0 {
		r.PSNR, r.LumaPSNR = math.Inf(1), math.Inf(1)
		return r, nil
	}

	sq := make([]float64, 0, r.Pixels*3)
	lumaSq := make([]float64, 0, r.Pixels)
	rect := a.Bounds()
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			pa := a.Pix[a.PixOffset(x, y):][:3]
			pb := b.Pix[b.PixOffset(x, y):][:3]
			dy := luma(pa) - luma(pb)
			lumaSq = append(lumaSq, dy*dy)
			changed := false
			for ch := range 3 {
				d := float64(pa[ch]) - float64(pb[ch])
				if d != 0 {
					changed = true
				}
				sq = append(sq, d*d)
			}
			if changed {
				r.Changed++
			}
		}
	}
	r.MSE = stat.Mean(sq, nil)
	r.PSNR = psnr(r.MSE)
	r.LumaPSNR = psnr(stat.Mean(lumaSq, nil))
	return r, nil
}

// Detection is the outcome of the chi-square attack.
type Detection struct {
	Samples     int
	Statistic   float64
	DoF         int
	Probability float64 // probability that the samples carry embedded bits
}

// ChiSquare runs the Westfeld-Pfitzmann pairs-of-values attack over the first n
// carrier samples of channel ch, in embedding order. n <= 0 selects the whole image.
//
// LSB replacement equalises the counts of each value pair (2k, 2k+1). The closer
// the counts, the smaller the statistic and the higher the probability.
func ChiSquare(img image.Image, ch lsb.Channel, n int) Detection {
	view := lsb.View(img)
	p := lsb.NewPlane(view, ch)
	if n <= 0 || n > p.Capacity() {
		n = p.Capacity()
	}
	var hist [256]int
	for i := range n {
		pt := p.Point(i)
		hist[view.Pix[view.PixOffset(pt.X, pt.Y)+int(ch)]]++
	}

	d := Detection{Samples: n}
	categories := 0
	for k := 0; k < 256; k += 2 {
		expected := float64(hist[k]+hist[k+1]) / 2
		if expected == 0 {
			continue
		}
		diff := float64(hist[k]) - expected
		d.Statistic += diff * diff / expected
		categories++
	}
	d.DoF = categories - 1
	if d.DoF < 1 {
		return d
	}
	d.Probability = distuv.ChiSquared{K: float64(d.DoF)}.Survival(d.Statistic)
	return d
}
