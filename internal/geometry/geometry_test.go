package geometry

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Point
		want Point
	}{
		{"unit x", Point{X: 5, Y: 0}, Point{X: 1, Y: 0}},
		{"unit y", Point{X: 0, Y: -3}, Point{X: 0, Y: -1}},
		{"diagonal", Point{X: 3, Y: 4}, Point{X: 0.6, Y: 0.8}},
		{"zero vector stays zero", Point{}, Point{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			if math.Abs(got.X-tt.want.X) > 1e-12 || math.Abs(got.Y-tt.want.Y) > 1e-12 {
				t.Errorf("Normalize(%v): got %v, want %v", tt.in, got, tt.want)
			}
			if math.IsNaN(got.X) || math.IsNaN(got.Y) {
				t.Errorf("Normalize(%v) produced NaN", tt.in)
			}
		})
	}
}

func TestRotate(t *testing.T) {
	p := Point{X: 1, Y: 0}

	got := p.Rotate(math.Pi / 2)
	if math.Abs(got.X) > 1e-12 || math.Abs(got.Y-1) > 1e-12 {
		t.Errorf("Rotate(pi/2): got %v, want (0,1)", got)
	}

	got = p.Rotate(math.Pi)
	if math.Abs(got.X+1) > 1e-12 || math.Abs(got.Y) > 1e-12 {
		t.Errorf("Rotate(pi): got %v, want (-1,0)", got)
	}
}

func TestQuadFlatRoundTrip(t *testing.T) {
	q := Quad{
		{X: 0.1, Y: 0.2},
		{X: 0.9, Y: 0.2},
		{X: 0.1, Y: 0.8},
		{X: 0.9, Y: 0.8},
	}

	flat := q.Flat()
	back := QuadFromFlat(flat[:])
	if back != q {
		t.Errorf("flat round trip: got %v, want %v", back, q)
	}
}

func TestCentroid(t *testing.T) {
	q := Quad{
		{X: 0, Y: 0},
		{X: 1, Y: 0},
		{X: 0, Y: 1},
		{X: 1, Y: 1},
	}

	c := q.Centroid()
	if c.X != 0.5 || c.Y != 0.5 {
		t.Errorf("Centroid: got %v, want (0.5,0.5)", c)
	}
}

func TestShorterEdge(t *testing.T) {
	// Top edge 0.8 wide, left edge 0.6 tall in pixel space 100x100.
	q := Quad{
		{X: 0.1, Y: 0.1},
		{X: 0.9, Y: 0.1},
		{X: 0.1, Y: 0.7},
		{X: 0.9, Y: 0.7},
	}

	got := q.ToPixels(100, 100).ShorterEdge()
	if math.Abs(got-60) > 1e-9 {
		t.Errorf("ShorterEdge: got %.3f, want 60", got)
	}
}

func TestPerimeterOrder(t *testing.T) {
	q := Quad{
		{X: 0, Y: 0}, // top-left
		{X: 1, Y: 0}, // top-right
		{X: 0, Y: 1}, // bottom-left
		{X: 1, Y: 1}, // bottom-right
	}

	walk := q.PerimeterOrder()
	want := [4]Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	if walk != want {
		t.Errorf("PerimeterOrder: got %v, want %v", walk, want)
	}

	// Walking the perimeter of an axis-aligned square must turn the same
	// way at every corner (positive cross products with Y down).
	for i := 0; i < 4; i++ {
		a := walk[i]
		b := walk[(i+1)%4]
		c := walk[(i+2)%4]
		cross := b.Sub(a).Cross(c.Sub(b))
		if cross <= 0 {
			t.Errorf("corner %d: cross %.3f, want > 0", i, cross)
		}
	}
}

func TestInUnitRange(t *testing.T) {
	tests := []struct {
		name string
		q    Quad
		want bool
	}{
		{
			"inside",
			Quad{{0.1, 0.1}, {0.9, 0.1}, {0.1, 0.9}, {0.9, 0.9}},
			true,
		},
		{
			"on the boundary",
			Quad{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
			true,
		},
		{
			"negative coordinate",
			Quad{{-0.01, 0.1}, {0.9, 0.1}, {0.1, 0.9}, {0.9, 0.9}},
			false,
		},
		{
			"above one",
			Quad{{0.1, 0.1}, {0.9, 0.1}, {0.1, 0.9}, {0.9, 1.01}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.InUnitRange(); got != tt.want {
				t.Errorf("InUnitRange: got %v, want %v", got, tt.want)
			}
		})
	}
}
