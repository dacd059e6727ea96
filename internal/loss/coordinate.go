package loss

import "math"

// smoothL1Delta is the error magnitude where the coordinate loss switches
// from quadratic to linear.
const smoothL1Delta = 1.0

// SmoothL1 returns the mean smooth-L1 (Huber) loss between predicted and
// target coordinate vectors: 0.5*e^2 for |e| < delta, |e| - 0.5*delta
// beyond. Normalized coordinates keep errors well inside the quadratic
// zone; the linear tail only matters for wildly wrong decodes.
func SmoothL1(pred, target []float64) float64 {
	if len(pred) == 0 {
		return 0
	}
	var sum float64
	for i, p := range pred {
		e := math.Abs(p - target[i])
		if e < smoothL1Delta {
			sum += 0.5 * e * e
		} else {
			sum += e - 0.5*smoothL1Delta
		}
	}
	return sum / float64(len(pred))
}

// SmoothL1Grad accumulates scale times the gradient of the mean loss with
// respect to pred into grad.
func SmoothL1Grad(grad, pred, target []float64, scale float64) {
	if len(pred) == 0 {
		return
	}
	norm := scale / float64(len(pred))
	for i, p := range pred {
		e := p - target[i]
		switch {
		case e > smoothL1Delta:
			grad[i] += norm * smoothL1Delta
		case e < -smoothL1Delta:
			grad[i] -= norm * smoothL1Delta
		default:
			grad[i] += norm * e
		}
	}
}
