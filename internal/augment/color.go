// Package augment implements the color augmentation applied to training
// frames. The dataset loader and the pipeline preview share these exact
// functions, so what the preview shows is what the model trains on. A
// factor of 1.0 is a strict identity for every operation.
package augment

import (
	"image"
)

// Luminance weights for the saturation blend.
const (
	lumR = 0.299
	lumG = 0.587
	lumB = 0.114
)

// Brightness multiplies every color channel by factor, clipping to the
// 8-bit range. Alpha is untouched.
func Brightness(img *image.NRGBA, factor float64) *image.NRGBA {
	return mapPixels(img, func(r, g, b float64) (float64, float64, float64) {
		return r * factor, g * factor, b * factor
	})
}

// Contrast scales every channel's distance from the image's global mean
// intensity: (v - mean) * factor + mean. The mean is taken over all pixels
// and color channels, so a flat image is a fixed point for any factor.
func Contrast(img *image.NRGBA, factor float64) *image.NRGBA {
	mean := grayMean(img)
	return mapPixels(img, func(r, g, b float64) (float64, float64, float64) {
		return (r-mean)*factor + mean,
			(g-mean)*factor + mean,
			(b-mean)*factor + mean
	})
}

// Saturation blends each pixel with its own luminance: lum + (v - lum) *
// factor. A factor of zero produces grayscale, one is identity, above one
// exaggerates color.
func Saturation(img *image.NRGBA, factor float64) *image.NRGBA {
	return mapPixels(img, func(r, g, b float64) (float64, float64, float64) {
		lum := lumR*r + lumG*g + lumB*b
		return lum + (r-lum)*factor,
			lum + (g-lum)*factor,
			lum + (b-lum)*factor
	})
}

func mapPixels(img *image.NRGBA, f func(r, g, b float64) (float64, float64, float64)) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			o := img.PixOffset(x, y)
			r, g, bl := float64(img.Pix[o]), float64(img.Pix[o+1]), float64(img.Pix[o+2])
			nr, ng, nb := f(r, g, bl)
			d := out.PixOffset(x-b.Min.X, y-b.Min.Y)
			out.Pix[d] = clampU8(nr)
			out.Pix[d+1] = clampU8(ng)
			out.Pix[d+2] = clampU8(nb)
			out.Pix[d+3] = img.Pix[o+3]
		}
	}
	return out
}

func grayMean(img *image.NRGBA) float64 {
	b := img.Bounds()
	if b.Empty() {
		return 0
	}
	var sum float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			o := img.PixOffset(x, y)
			sum += float64(img.Pix[o]) + float64(img.Pix[o+1]) + float64(img.Pix[o+2])
		}
	}
	return sum / float64(3*b.Dx()*b.Dy())
}

func clampU8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
