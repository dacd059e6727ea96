package loss

import "math"

// Adaptive wing constants. The curvature exponent is alpha minus the target
// value, so high-confidence target pixels get a gentler inner curve than
// background pixels.
const (
	awOmega   = 14.0
	awEpsilon = 1.0
	awAlpha   = 2.1
	awTheta   = 0.5

	// Pixels whose target value falls below backgroundCut count as
	// background and have their loss scaled by backgroundWeight.
	backgroundCut    = 0.2
	backgroundWeight = 0.1
)

// awPieces returns the linear-regime coefficients for a given curvature
// exponent m, chosen so value and slope are continuous at theta.
func awPieces(m float64) (a, c float64) {
	tp := math.Pow(awTheta/awEpsilon, m)
	a = awOmega * (1 / (1 + tp)) * m * math.Pow(awTheta/awEpsilon, m-1) / awEpsilon
	c = awTheta*a - awOmega*math.Log(1+tp)
	return a, c
}

// AdaptiveWing returns the mean adaptive wing loss between predicted and
// target heatmap values. Small errors fall on a logarithmic curve whose
// steepness depends on the target value; errors beyond theta continue
// linearly. Background pixels are down-weighted.
func AdaptiveWing(pred, target []float64) float64 {
	if len(pred) == 0 {
		return 0
	}
	var sum float64
	for i, p := range pred {
		t := target[i]
		d := math.Abs(p - t)
		m := awAlpha - t

		var l float64
		if d < awTheta {
			l = awOmega * math.Log(1+math.Pow(d/awEpsilon, m))
		} else {
			a, c := awPieces(m)
			l = a*d - c
		}
		if t < backgroundCut {
			l *= backgroundWeight
		}
		sum += l
	}
	return sum / float64(len(pred))
}

// AdaptiveWingGrad accumulates scale times the gradient of the mean loss
// with respect to pred into grad.
func AdaptiveWingGrad(grad, pred, target []float64, scale float64) {
	if len(pred) == 0 {
		return
	}
	norm := scale / float64(len(pred))
	for i, p := range pred {
		t := target[i]
		d := p - t
		ad := math.Abs(d)
		m := awAlpha - t

		var g float64
		switch {
		case ad == 0:
		case ad < awTheta:
			// r/ad equals (ad/eps)^(m-1)/eps.
			r := math.Pow(ad/awEpsilon, m)
			g = awOmega * m * r / (ad * (1 + r))
			if d < 0 {
				g = -g
			}
		default:
			a, _ := awPieces(m)
			g = a
			if d < 0 {
				g = -g
			}
		}
		if t < backgroundCut {
			g *= backgroundWeight
		}
		grad[i] += norm * g
	}
}
