package heatmap

import (
	"math"
	"math/rand"
	"testing"

	"github.com/sorobanworks/boundary-train/internal/geometry"
)

func TestGrid(t *testing.T) {
	got := Grid(5)
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("Grid(5)[%d]: got %v, want %v", i, got[i], want[i])
		}
	}

	if g := Grid(1); len(g) != 1 || g[0] != 0 {
		t.Errorf("Grid(1): got %v, want [0]", g)
	}
}

func TestDecode_RoundTripCenter(t *testing.T) {
	// An encoded center corner decodes back within 0.02.
	q := geometry.Quad{
		{X: 0.5, Y: 0.5},
		{X: 0.5, Y: 0.5},
		{X: 0.5, Y: 0.5},
		{X: 0.5, Y: 0.5},
	}
	size := 56

	hm := Encode(q, size, 2.0)

	x, y := Decode(hm[:size*size], size)
	if math.Abs(x-0.5) > 0.02 || math.Abs(y-0.5) > 0.02 {
		t.Errorf("round trip: got (%.4f,%.4f), want within 0.02 of (0.5,0.5)", x, y)
	}
}

func TestDecode_RoundTripCorners(t *testing.T) {
	q := geometry.Quad{
		{X: 0.25, Y: 0.25},
		{X: 0.75, Y: 0.25},
		{X: 0.25, Y: 0.75},
		{X: 0.75, Y: 0.75},
	}
	size := 56

	hm := Encode(q, size, 2.0)

	plane := size * size
	for c := 0; c < Channels; c++ {
		x, y := Decode(hm[c*plane:(c+1)*plane], size)
		if math.Abs(x-q[c].X) > 0.02 || math.Abs(y-q[c].Y) > 0.02 {
			t.Errorf("channel %d: got (%.4f,%.4f), want within 0.02 of (%.2f,%.2f)",
				c, x, y, q[c].X, q[c].Y)
		}
	}
}

func TestDecode_ShiftInvariance(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	size := 16
	h := make([]float64, size*size)
	for i := range h {
		h[i] = rng.Float64()
	}

	x0, y0 := Decode(h, size)

	for _, shift := range []float64{-3.5, 0.001, 1, 250} {
		shifted := make([]float64, len(h))
		for i, v := range h {
			shifted[i] = v + shift
		}
		x, y := Decode(shifted, size)
		if math.Abs(x-x0) > 1e-12 || math.Abs(y-y0) > 1e-12 {
			t.Errorf("shift %v: got (%.15f,%.15f), want (%.15f,%.15f)", shift, x, y, x0, y0)
		}
	}
}

func TestDecode_UniformHeatmap(t *testing.T) {
	// A flat heatmap decodes to the grid center.
	size := 12
	h := make([]float64, size*size)
	for i := range h {
		h[i] = 0.3
	}

	x, y := Decode(h, size)
	if math.Abs(x-0.5) > 1e-12 || math.Abs(y-0.5) > 1e-12 {
		t.Errorf("uniform decode: got (%.6f,%.6f), want (0.5,0.5)", x, y)
	}
}

func TestDecodeBatch_MatchesSingle(t *testing.T) {
	// The batch path and the plain numeric path must agree exactly.
	rng := rand.New(rand.NewSource(11))
	size := 20
	n := 3
	plane := size * size
	logits := make([]float64, n*Channels*plane)
	for i := range logits {
		logits[i] = rng.NormFloat64()
	}

	coords := DecodeBatch(logits, n, size)

	for i := 0; i < n; i++ {
		for c := 0; c < Channels; c++ {
			h := logits[(i*Channels+c)*plane : (i*Channels+c+1)*plane]
			x, y := Decode(h, size)
			gotX := coords[i*2*Channels+2*c]
			gotY := coords[i*2*Channels+2*c+1]
			if gotX != x || gotY != y {
				t.Errorf("sample %d channel %d: batch (%.15f,%.15f), single (%.15f,%.15f)",
					i, c, gotX, gotY, x, y)
			}
		}
	}
}

func TestAddDecodeGrad_MatchesFiniteDifference(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	size := 6
	h := make([]float64, size*size)
	for i := range h {
		h[i] = rng.NormFloat64() * 0.5
	}

	// Upstream gradient picked arbitrarily.
	dx, dy := 0.7, -1.3

	p := make([]float64, len(h))
	x, y := DecodeInto(p, h, size)
	grad := make([]float64, len(h))
	AddDecodeGrad(grad, p, size, x, y, dx, dy)

	const eps = 1e-6
	for j := range h {
		orig := h[j]
		h[j] = orig + eps
		xp, yp := Decode(h, size)
		h[j] = orig - eps
		xm, ym := Decode(h, size)
		h[j] = orig

		want := (dx*(xp-xm) + dy*(yp-ym)) / (2 * eps)
		if math.Abs(grad[j]-want) > 1e-5 {
			t.Fatalf("grad[%d]: analytic %.8f, numeric %.8f", j, grad[j], want)
		}
	}
}

func TestDecodeQuad(t *testing.T) {
	q := geometry.Quad{
		{X: 0.3, Y: 0.3},
		{X: 0.7, Y: 0.3},
		{X: 0.3, Y: 0.7},
		{X: 0.7, Y: 0.7},
	}
	size := 56

	got := DecodeQuad(Encode(q, size, 2.0), size)

	for c := 0; c < Channels; c++ {
		if got[c].Dist(q[c]) > 0.02 {
			t.Errorf("corner %d: got %v, want within 0.02 of %v", c, got[c], q[c])
		}
	}
}

func TestStats(t *testing.T) {
	q := geometry.Quad{
		{X: 0.5, Y: 0.5},
		{X: 0.5, Y: 0.5},
		{X: 0.5, Y: 0.5},
		{X: 0.5, Y: 0.5},
	}
	size := 32

	stats := Stats(Encode(q, size, 2.0), size)

	for c, s := range stats {
		if s.Corner != geometry.CornerNames[c] {
			t.Errorf("channel %d corner name: got %q", c, s.Corner)
		}
		if s.Max < 0.5 {
			t.Errorf("channel %d max: got %.3f, want >= 0.5 for a clean peak", c, s.Max)
		}
		if s.Mean <= 0 || s.Mean >= s.Max {
			t.Errorf("channel %d mean %.4f out of range (max %.4f)", c, s.Mean, s.Max)
		}
	}
}
