package heatmap

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/sorobanworks/boundary-train/internal/geometry"
)

// Temperature sharpens the softmax before taking the spatial expectation.
// Fixed: saved models are trained against this value.
const Temperature = 10.0

// Grid returns the linspace(0,1,size) coordinate grid with inclusive
// endpoints: grid[i] = i/(size-1).
func Grid(size int) []float64 {
	g := make([]float64, size)
	if size == 1 {
		return g
	}
	step := 1 / float64(size-1)
	for i := range g {
		g[i] = float64(i) * step
	}
	return g
}

// Decode converts one heatmap channel of size*size values to a normalized
// coordinate. This is the plain numeric path; DecodeBatch uses the same
// core, so the two agree exactly.
func Decode(h []float64, size int) (x, y float64) {
	p := make([]float64, len(h))
	return DecodeInto(p, h, size)
}

// DecodeInto decodes one channel and leaves the tempered softmax
// distribution in p (len(p) == len(h)), for callers that also need the
// gradient (see AddDecodeGrad).
func DecodeInto(p, h []float64, size int) (x, y float64) {
	copy(p, h)
	floats.Scale(Temperature, p)
	floats.AddConst(-floats.Max(p), p)
	for i, v := range p {
		p[i] = math.Exp(v)
	}
	floats.Scale(1/floats.Sum(p), p)

	grid := Grid(size)
	for row := 0; row < size; row++ {
		gy := grid[row]
		base := row * size
		for col := 0; col < size; col++ {
			w := p[base+col]
			x += w * grid[col]
			y += w * gy
		}
	}
	return x, y
}

// AddDecodeGrad accumulates into grad the gradient of dx*X + dy*Y with
// respect to the channel values, where (X, Y) is the decoded coordinate.
// p, x and y must come from DecodeInto on the same channel. The softmax
// Jacobian gives dX/dh_j = Temperature * p_j * (grid_j - X).
func AddDecodeGrad(grad, p []float64, size int, x, y, dx, dy float64) {
	grid := Grid(size)
	for row := 0; row < size; row++ {
		gy := grid[row]
		base := row * size
		for col := 0; col < size; col++ {
			j := base + col
			grad[j] += Temperature * p[j] * (dx*(grid[col]-x) + dy*(gy-y))
		}
	}
}

// DecodeBatch decodes n samples of 4-channel logits into n*8 flat
// coordinates in pipeline corner order.
func DecodeBatch(logits []float64, n, size int) []float64 {
	coords := make([]float64, n*2*Channels)
	plane := size * size
	p := make([]float64, plane)
	for i := 0; i < n; i++ {
		for c := 0; c < Channels; c++ {
			h := logits[(i*Channels+c)*plane : (i*Channels+c+1)*plane]
			x, y := DecodeInto(p, h, size)
			coords[i*2*Channels+2*c] = x
			coords[i*2*Channels+2*c+1] = y
		}
	}
	return coords
}

// DecodeQuad decodes one sample's 4 channels into a corner set.
func DecodeQuad(logits []float64, size int) geometry.Quad {
	coords := DecodeBatch(logits, 1, size)
	return geometry.QuadFromFlat(coords)
}

// ChannelStats summarizes one decoded channel for diagnostics.
type ChannelStats struct {
	Corner string  `json:"corner"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// Stats computes per-channel peak statistics of one sample's logits. A max
// above 0.5 indicates a confident peak and below 0.1 a weak one; the eval
// tool uses these thresholds to flag unreliable channels.
func Stats(logits []float64, size int) [Channels]ChannelStats {
	var out [Channels]ChannelStats
	plane := size * size
	for c := 0; c < Channels; c++ {
		h := logits[c*plane : (c+1)*plane]
		x, y := Decode(h, size)
		out[c] = ChannelStats{
			Corner: geometry.CornerNames[c],
			Max:    floats.Max(h),
			Mean:   floats.Sum(h) / float64(len(h)),
			X:      x,
			Y:      y,
		}
	}
	return out
}
