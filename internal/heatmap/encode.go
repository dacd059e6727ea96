package heatmap

import (
	"math"

	"github.com/sorobanworks/boundary-train/internal/geometry"
)

const (
	// Channels is the number of heatmap channels, one per corner.
	Channels = 4

	// DefaultSize is the default heatmap resolution (224/4).
	DefaultSize = 56

	// DefaultSigma is the default Gaussian spread in heatmap cells.
	DefaultSigma = 2.0
)

// Encode renders the four Gaussian target channels for one corner set.
// Channel c is exp(-((x-cx)^2+(y-cy)^2)/(2*sigma^2)) with the center at
// (corner.X*size, corner.Y*size) in grid coordinates. Peaks are unnormalized
// (value 1 at an on-grid center). Centers outside the grid are fine: the
// tail simply decays, so encoding never fails.
func Encode(q geometry.Quad, size int, sigma float64) []float64 {
	out := make([]float64, Channels*size*size)
	EncodeInto(out, q, size, sigma)
	return out
}

// EncodeInto renders into dst, which must hold Channels*size*size values.
func EncodeInto(dst []float64, q geometry.Quad, size int, sigma float64) {
	inv := 1 / (2 * sigma * sigma)
	plane := size * size
	for c, corner := range q {
		cx := corner.X * float64(size)
		cy := corner.Y * float64(size)
		ch := dst[c*plane : (c+1)*plane]
		for y := 0; y < size; y++ {
			dy := float64(y) - cy
			row := y * size
			for x := 0; x < size; x++ {
				dx := float64(x) - cx
				ch[row+x] = math.Exp(-(dx*dx + dy*dy) * inv)
			}
		}
	}
}

// EncodeBatch renders targets for n corner sets into one planar tensor of
// n*Channels*size*size values.
func EncodeBatch(quads []geometry.Quad, size int, sigma float64) []float64 {
	per := Channels * size * size
	out := make([]float64, len(quads)*per)
	for i, q := range quads {
		EncodeInto(out[i*per:(i+1)*per], q, size, sigma)
	}
	return out
}
