package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

var sheetBackground = color.NRGBA{R: 24, G: 24, B: 24, A: 255}

// Fit scales an image to fit within w x h, preserving aspect ratio. Images
// already inside the box are returned at their own size.
func Fit(img image.Image, w, h int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= w && b.Dy() <= h {
		return imaging.Clone(img)
	}
	return imaging.Fit(img, w, h, imaging.Linear)
}

// Sheet lays cells out in a cols-wide grid on a dark background with pad
// pixels between and around them. Cell slots take the size of the largest
// cell; smaller cells are centered in their slot. The preview tool uses
// this to assemble its pipeline contact sheet.
func Sheet(cells []*image.NRGBA, cols, pad int) *image.NRGBA {
	if len(cells) == 0 {
		return imaging.New(pad*2, pad*2, sheetBackground)
	}
	if cols < 1 {
		cols = 1
	}
	if cols > len(cells) {
		cols = len(cells)
	}

	cw, ch := 0, 0
	for _, c := range cells {
		if c.Bounds().Dx() > cw {
			cw = c.Bounds().Dx()
		}
		if c.Bounds().Dy() > ch {
			ch = c.Bounds().Dy()
		}
	}

	rows := (len(cells) + cols - 1) / cols
	sheet := imaging.New(cols*cw+(cols+1)*pad, rows*ch+(rows+1)*pad, sheetBackground)
	for i, c := range cells {
		col, row := i%cols, i/cols
		x := pad + col*(cw+pad) + (cw-c.Bounds().Dx())/2
		y := pad + row*(ch+pad) + (ch-c.Bounds().Dy())/2
		sheet = imaging.Paste(sheet, c, image.Pt(x, y))
	}
	return sheet
}
