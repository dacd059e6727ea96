package loss

import "github.com/sorobanworks/boundary-train/internal/heatmap"

// Weights of the combined objective.
const (
	HeatmapWeight   = 1.0
	CoordWeight     = 0.5
	ConvexityWeight = 0.01
)

// Terms breaks the combined objective into its components. Total already
// includes the weights.
type Terms struct {
	Heatmap   float64 `json:"heatmap"`
	Coord     float64 `json:"coord"`
	Convexity float64 `json:"convexity"`
	Total     float64 `json:"total"`
}

// Add accumulates other into t, for averaging term values across batches.
func (t *Terms) Add(other Terms) {
	t.Heatmap += other.Heatmap
	t.Coord += other.Coord
	t.Convexity += other.Convexity
	t.Total += other.Total
}

// Scale divides every term by n.
func (t *Terms) Scale(n int) {
	if n == 0 {
		return
	}
	f := 1 / float64(n)
	t.Heatmap *= f
	t.Coord *= f
	t.Convexity *= f
	t.Total *= f
}

// Eval computes the combined objective for a batch of n predicted logit
// tensors (planar, n*4*size*size) against encoded targets of the same shape
// and ground-truth coordinates (n*8, pipeline order). When grad is non-nil
// it must have the length of logits and receives the accumulated gradient
// of Total, including the coordinate and convexity terms chained through
// the decoder Jacobian.
func Eval(logits, targets, gtCoords []float64, n, size int, grad []float64) Terms {
	var t Terms
	if n == 0 {
		return t
	}

	t.Heatmap = AdaptiveWing(logits, targets)
	if grad != nil {
		AdaptiveWingGrad(grad, logits, targets, HeatmapWeight)
	}

	// Decode every channel, keeping the softmax distributions around for
	// the backward chain.
	plane := size * size
	coords := make([]float64, n*8)
	var dists []float64
	if grad != nil {
		dists = make([]float64, n*heatmap.Channels*plane)
	}
	scratch := make([]float64, plane)
	for i := 0; i < n; i++ {
		for c := 0; c < heatmap.Channels; c++ {
			off := (i*heatmap.Channels + c) * plane
			p := scratch
			if dists != nil {
				p = dists[off : off+plane]
			}
			x, y := heatmap.DecodeInto(p, logits[off:off+plane], size)
			coords[i*8+2*c] = x
			coords[i*8+2*c+1] = y
		}
	}

	t.Coord = SmoothL1(coords, gtCoords)
	t.Convexity = Convexity(coords, n)
	t.Total = HeatmapWeight*t.Heatmap + CoordWeight*t.Coord + ConvexityWeight*t.Convexity

	if grad != nil {
		coordGrad := make([]float64, n*8)
		SmoothL1Grad(coordGrad, coords, gtCoords, CoordWeight)
		ConvexityGrad(coordGrad, coords, n, ConvexityWeight)
		for i := 0; i < n; i++ {
			for c := 0; c < heatmap.Channels; c++ {
				off := (i*heatmap.Channels + c) * plane
				heatmap.AddDecodeGrad(
					grad[off:off+plane], dists[off:off+plane], size,
					coords[i*8+2*c], coords[i*8+2*c+1],
					coordGrad[i*8+2*c], coordGrad[i*8+2*c+1],
				)
			}
		}
	}
	return t
}
