package loss

import (
	"math"
	"testing"

	"github.com/sorobanworks/boundary-train/internal/geometry"
)

// Pipeline order: top-left, top-right, bottom-left, bottom-right.
var (
	unitSquare = []float64{0, 0, 1, 0, 0, 1, 1, 1}
	// Bottom corners exchanged, so the perimeter walk self-intersects.
	bowtie = []float64{0, 0, 1, 0, 1, 1, 0, 1}
)

func TestConvexity_UnitSquare(t *testing.T) {
	if got := Convexity(unitSquare, 1); got != 0 {
		t.Errorf("unit square: got %v, want exactly 0", got)
	}
}

func TestConvexity_Bowtie(t *testing.T) {
	got := Convexity(bowtie, 1)
	if got <= 0 {
		t.Fatalf("bowtie: got %v, want > 0", got)
	}
	// Two of the four walk triples flip sign, each contributing 1.
	if math.Abs(got-2) > 1e-12 {
		t.Errorf("bowtie penalty: got %v, want 2", got)
	}
}

func TestConvexity_RealisticQuad(t *testing.T) {
	// A slightly skewed but convex frame must not be penalized.
	q := geometry.Quad{
		{X: 0.12, Y: 0.09},
		{X: 0.91, Y: 0.13},
		{X: 0.08, Y: 0.88},
		{X: 0.93, Y: 0.91},
	}
	flat := q.Flat()

	if got := Convexity(flat[:], 1); got != 0 {
		t.Errorf("convex frame: got %v, want 0", got)
	}
}

func TestConvexity_BatchMean(t *testing.T) {
	coords := append(append([]float64{}, unitSquare...), bowtie...)

	got := Convexity(coords, 2)
	want := (0.0 + 2.0) / 2
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("batch mean: got %v, want %v", got, want)
	}
}

func TestConvexityGrad_ZeroForConvex(t *testing.T) {
	grad := make([]float64, 8)
	ConvexityGrad(grad, unitSquare, 1, 1.0)

	for i, g := range grad {
		if g != 0 {
			t.Errorf("grad[%d]: got %v, want 0 for a convex quad", i, g)
		}
	}
}

func TestConvexityGrad_MatchesFiniteDifference(t *testing.T) {
	// Perturbed bowtie keeps the hinges active but away from the boundary.
	coords := []float64{0.02, -0.01, 1.03, 0.05, 0.97, 1.02, -0.04, 0.96}

	grad := make([]float64, 8)
	ConvexityGrad(grad, coords, 1, 1.0)

	const eps = 1e-7
	for i := range coords {
		orig := coords[i]
		coords[i] = orig + eps
		up := Convexity(coords, 1)
		coords[i] = orig - eps
		down := Convexity(coords, 1)
		coords[i] = orig

		want := (up - down) / (2 * eps)
		if math.Abs(grad[i]-want) > 1e-6 {
			t.Errorf("grad[%d]: analytic %.8f, numeric %.8f", i, grad[i], want)
		}
	}
}
