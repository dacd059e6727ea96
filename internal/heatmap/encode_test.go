package heatmap

import (
	"math"
	"testing"

	"github.com/sorobanworks/boundary-train/internal/geometry"
)

func TestEncode_PeakAtCenter(t *testing.T) {
	q := geometry.Quad{
		{X: 0.5, Y: 0.5},
		{X: 0.5, Y: 0.5},
		{X: 0.5, Y: 0.5},
		{X: 0.5, Y: 0.5},
	}
	size := 56

	hm := Encode(q, size, 2.0)

	if len(hm) != Channels*size*size {
		t.Fatalf("length: got %d, want %d", len(hm), Channels*size*size)
	}

	// Center lands exactly on grid cell (28,28), so the peak value is 1.
	plane := size * size
	for c := 0; c < Channels; c++ {
		peak := hm[c*plane+28*size+28]
		if math.Abs(peak-1.0) > 1e-12 {
			t.Errorf("channel %d peak: got %.6f, want 1.0", c, peak)
		}
		// One cell away drops by exp(-1/(2*sigma^2)).
		want := math.Exp(-1.0 / 8.0)
		got := hm[c*plane+28*size+29]
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("channel %d neighbor: got %.6f, want %.6f", c, got, want)
		}
	}
}

func TestEncode_ChannelPlacement(t *testing.T) {
	// Distinct corners: each channel's argmax must track its own corner.
	q := geometry.Quad{
		{X: 0.25, Y: 0.25},
		{X: 0.75, Y: 0.25},
		{X: 0.25, Y: 0.75},
		{X: 0.75, Y: 0.75},
	}
	size := 32

	hm := Encode(q, size, 1.5)

	plane := size * size
	for c := 0; c < Channels; c++ {
		ch := hm[c*plane : (c+1)*plane]
		best, bestIdx := ch[0], 0
		for i, v := range ch {
			if v > best {
				best, bestIdx = v, i
			}
		}
		gotX := bestIdx % size
		gotY := bestIdx / size
		wantX := int(math.Round(q[c].X * float64(size)))
		wantY := int(math.Round(q[c].Y * float64(size)))
		if gotX != wantX || gotY != wantY {
			t.Errorf("channel %d argmax: got (%d,%d), want (%d,%d)", c, gotX, gotY, wantX, wantY)
		}
	}
}

func TestEncode_OffGridCenter(t *testing.T) {
	// A corner outside [0,1] must still encode without error, with the
	// in-grid tail decaying toward the far side.
	q := geometry.Quad{
		{X: -0.2, Y: 0.5},
		{X: 0.5, Y: 0.5},
		{X: 0.5, Y: 0.5},
		{X: 0.5, Y: 0.5},
	}
	size := 16

	hm := Encode(q, size, 2.0)

	ch := hm[:size*size]
	for _, v := range ch {
		if math.IsNaN(v) || v < 0 || v > 1 {
			t.Fatalf("off-grid encode produced out-of-range value %v", v)
		}
	}
	// Nearest column to the off-grid center carries the most mass.
	left := ch[8*size+0]
	right := ch[8*size+size-1]
	if left <= right {
		t.Errorf("tail direction: left %.6g should exceed right %.6g", left, right)
	}
}

func TestEncodeBatch_Layout(t *testing.T) {
	q1 := geometry.Quad{{0.2, 0.2}, {0.8, 0.2}, {0.2, 0.8}, {0.8, 0.8}}
	q2 := geometry.Quad{{0.3, 0.3}, {0.7, 0.3}, {0.3, 0.7}, {0.7, 0.7}}
	size := 24

	batch := EncodeBatch([]geometry.Quad{q1, q2}, size, 2.0)

	per := Channels * size * size
	if len(batch) != 2*per {
		t.Fatalf("batch length: got %d, want %d", len(batch), 2*per)
	}

	single1 := Encode(q1, size, 2.0)
	single2 := Encode(q2, size, 2.0)
	for i := range single1 {
		if batch[i] != single1[i] {
			t.Fatalf("sample 0 mismatch at %d", i)
		}
	}
	for i := range single2 {
		if batch[per+i] != single2[i] {
			t.Fatalf("sample 1 mismatch at %d", i)
		}
	}
}
