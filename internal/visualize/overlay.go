package visualize

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/fogleman/gg"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"

	"github.com/sorobanworks/boundary-train/internal/geometry"
)

// CornerColor returns the display hue for pipeline corner i, spread evenly
// around the HSV wheel so adjacent corners never share a color.
func CornerColor(i int) color.Color {
	return colorful.Hsv(float64(i%4)*90, 0.9, 1)
}

var (
	gtColor   = color.NRGBA{R: 40, G: 220, B: 70, A: 255}
	predColor = color.NRGBA{R: 240, G: 60, B: 40, A: 255}
)

// Overlay draws the ground-truth and predicted quads over a prepared
// frame: both outlines in perimeter order, a filled dot per predicted
// corner and a ring per ground-truth corner in that corner's hue, and the
// pixel error captioned in the top-left corner.
func Overlay(img image.Image, gt, pred geometry.Quad, pixelErr float64) image.Image {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.DrawImage(img, 0, 0)

	strokeQuad(dc, gt, w, h, gtColor)
	strokeQuad(dc, pred, w, h, predColor)

	for i := 0; i < 4; i++ {
		dc.SetColor(CornerColor(i))
		dc.DrawPoint(pred[i].X*w, pred[i].Y*h, 4)
		dc.Fill()
		dc.DrawCircle(gt[i].X*w, gt[i].Y*h, 6)
		dc.SetLineWidth(1.5)
		dc.Stroke()
	}

	caption := fmt.Sprintf("err %.1fpx", pixelErr)
	cw, ch := dc.MeasureString(caption)
	dc.SetRGBA(0, 0, 0, 0.6)
	dc.DrawRectangle(2, 2, cw+8, ch+8)
	dc.Fill()
	dc.SetRGB(1, 1, 1)
	dc.DrawString(caption, 6, ch+4)

	return dc.Image()
}

func strokeQuad(dc *gg.Context, q geometry.Quad, w, h float64, c color.Color) {
	walk := q.PerimeterOrder()
	for i, p := range walk {
		n := walk[(i+1)%len(walk)]
		dc.DrawLine(p.X*w, p.Y*h, n.X*w, n.Y*h)
	}
	dc.SetColor(c)
	dc.SetLineWidth(2)
	dc.Stroke()
}

// SaveOverlay writes Overlay's rendering of img to path as PNG.
func SaveOverlay(path string, img image.Image, gt, pred geometry.Quad, pixelErr float64) error {
	return SavePNG(path, Overlay(img, gt, pred, pixelErr))
}

// SavePNG encodes img to path.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode %s", path)
	}
	return errors.Wrapf(f.Close(), "write %s", path)
}
