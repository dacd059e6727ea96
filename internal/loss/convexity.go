package loss

import "github.com/sorobanworks/boundary-train/internal/geometry"

// Convexity returns the mean convexity penalty over a batch of decoded
// corner sets (n samples of 8 flat coordinates in pipeline order). Each
// quad is walked in perimeter order; for every consecutive corner triple
// the 2D cross product of the two edges must stay non-negative (Y points
// down, so a proper quad walks clockwise on screen). Negative cross
// products are penalized linearly, so a convex quad scores exactly zero and
// a self-intersecting one scores positive.
func Convexity(coords []float64, n int) float64 {
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		q := coords[i*8 : (i+1)*8]
		for w := 0; w < 4; w++ {
			cross := walkCross(q, w)
			if cross < 0 {
				sum -= cross
			}
		}
	}
	return sum / float64(n)
}

// ConvexityGrad accumulates scale times the gradient of the mean penalty
// with respect to the flat coordinates into grad.
func ConvexityGrad(grad, coords []float64, n int, scale float64) {
	if n == 0 {
		return
	}
	norm := scale / float64(n)
	for i := 0; i < n; i++ {
		q := coords[i*8 : (i+1)*8]
		g := grad[i*8 : (i+1)*8]
		for w := 0; w < 4; w++ {
			if walkCross(q, w) >= 0 {
				continue
			}
			// Gradient of -cross over the triple a,b,c.
			ia := 2 * geometry.PerimeterIndex[w]
			ib := 2 * geometry.PerimeterIndex[(w+1)%4]
			ic := 2 * geometry.PerimeterIndex[(w+2)%4]
			e1x, e1y := q[ib]-q[ia], q[ib+1]-q[ia+1]
			e2x, e2y := q[ic]-q[ib], q[ic+1]-q[ib+1]

			g[ia] += norm * e2y
			g[ia+1] -= norm * e2x
			g[ib] -= norm * (e1y + e2y)
			g[ib+1] += norm * (e1x + e2x)
			g[ic] += norm * e1y
			g[ic+1] -= norm * e1x
		}
	}
}

// walkCross returns the cross product of the two edges meeting at walk
// position w+1 of the perimeter walk of one flat quad.
func walkCross(q []float64, w int) float64 {
	ia := 2 * geometry.PerimeterIndex[w]
	ib := 2 * geometry.PerimeterIndex[(w+1)%4]
	ic := 2 * geometry.PerimeterIndex[(w+2)%4]
	e1x, e1y := q[ib]-q[ia], q[ib+1]-q[ia+1]
	e2x, e2y := q[ic]-q[ib], q[ic+1]-q[ib+1]
	return e1x*e2y - e1y*e2x
}
