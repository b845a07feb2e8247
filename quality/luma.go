package quality

import "math"

// BT.601 weights, as used for the Y plane of YUV.
const (
	yr = 0.299
	yg = 0.587
	yb = 0.114
)

// luma returns the Y component of an 8 bit RGB sample.
func luma(px []uint8) float64 {
	return yr*float64(px[0]) + yg*float64(px[1]) + yb*float64(px[2])
}

func psnr(mse float64) float64 {
	if mse == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(255*255/mse)
}
