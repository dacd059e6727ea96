package visualize

import (
	"image"
	"image/draw"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/sorobanworks/boundary-train/internal/imaging"
)

// Peak opacity of a blended heatmap layer, on the 8-bit alpha scale.
const blendAlpha = 200

// BlendHeatmap tints one heatmap channel over a prepared square frame in
// the corner's hue. plane holds size*size channel values; opacity tracks
// the value, clamped to [0,1], so zero cells leave the frame untouched.
func BlendHeatmap(frame image.Image, plane []float64, size, corner int) *image.NRGBA {
	hue := colorful.Hsv(float64(corner%4)*90, 0.9, 1)
	r := uint8(hue.R*255 + 0.5)
	g := uint8(hue.G*255 + 0.5)
	b := uint8(hue.B*255 + 0.5)

	layer := image.NewNRGBA(image.Rect(0, 0, size, size))
	for i, v := range plane {
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		o := (i/size)*layer.Stride + (i%size)*4
		layer.Pix[o] = r
		layer.Pix[o+1] = g
		layer.Pix[o+2] = b
		layer.Pix[o+3] = uint8(v*blendAlpha + 0.5)
	}

	out := imaging.ToNRGBA(frame)
	up := imaging.Prepare(layer, out.Bounds().Dx())
	draw.Draw(out, out.Bounds(), up, image.Point{}, draw.Over)
	return out
}
