package augment

import (
	"image"
	"math/rand"
)

// Training jitter ranges. Saturation swings wider than brightness and
// contrast.
const (
	BrightnessMin = 0.7
	BrightnessMax = 1.3
	ContrastMin   = 0.7
	ContrastMax   = 1.3
	SaturationMin = 0.5
	SaturationMax = 1.5
)

// Factors is one sampled augmentation configuration.
type Factors struct {
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Saturation float64 `json:"saturation"`
}

// Identity returns the factors that leave an image unchanged.
func Identity() Factors {
	return Factors{Brightness: 1, Contrast: 1, Saturation: 1}
}

// Jitter samples augmentation factors uniformly from the training ranges.
func Jitter(rng *rand.Rand) Factors {
	return Factors{
		Brightness: BrightnessMin + rng.Float64()*(BrightnessMax-BrightnessMin),
		Contrast:   ContrastMin + rng.Float64()*(ContrastMax-ContrastMin),
		Saturation: SaturationMin + rng.Float64()*(SaturationMax-SaturationMin),
	}
}

// Apply runs the three operations in pipeline order: brightness, then
// contrast, then saturation.
func (f Factors) Apply(img *image.NRGBA) *image.NRGBA {
	out := Brightness(img, f.Brightness)
	out = Contrast(out, f.Contrast)
	return Saturation(out, f.Saturation)
}
