package visualize

import (
	"fmt"
	"image"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"

	"github.com/sorobanworks/boundary-train/internal/augment"
	"github.com/sorobanworks/boundary-train/internal/geometry"
	"github.com/sorobanworks/boundary-train/internal/imaging"
	"github.com/sorobanworks/boundary-train/internal/mask"
)

// Contact sheet layout.
const (
	sheetCell     = 224
	sheetCols     = 4
	sheetPad      = 8
	captionHeight = 16
)

// Variant is one fixed augmentation setting rendered by the preview.
type Variant struct {
	Name    string
	Factors augment.Factors
}

// PreviewVariants returns the factor sets the preview renders: the
// identity, each factor at its training range endpoint, and two combined
// cases. Training draws random factors from the same ranges, so these
// show the span of what the model sees.
func PreviewVariants() []Variant {
	return []Variant{
		{"original", augment.Identity()},
		{"brightness-0.7", augment.Factors{Brightness: augment.BrightnessMin, Contrast: 1, Saturation: 1}},
		{"brightness-1.3", augment.Factors{Brightness: augment.BrightnessMax, Contrast: 1, Saturation: 1}},
		{"contrast-0.7", augment.Factors{Brightness: 1, Contrast: augment.ContrastMin, Saturation: 1}},
		{"contrast-1.3", augment.Factors{Brightness: 1, Contrast: augment.ContrastMax, Saturation: 1}},
		{"saturation-0.5", augment.Factors{Brightness: 1, Contrast: 1, Saturation: augment.SaturationMin}},
		{"saturation-1.5", augment.Factors{Brightness: 1, Contrast: 1, Saturation: augment.SaturationMax}},
		{"combined-dark", augment.Factors{Brightness: 0.8, Contrast: 0.8, Saturation: 0.7}},
		{"combined-bright", augment.Factors{Brightness: 1.2, Contrast: 1.2, Saturation: 1.3}},
	}
}

// PreviewOptions control the pipeline preview.
type PreviewOptions struct {
	Method     mask.Method
	MarkerSize int
	InputSize  int
	Seed       int64
}

// Preview runs one annotated frame through every dataset stage and writes
// the numbered step images plus contact-sheet.png into outDir. The stages
// call the same mask, augment and imaging code the training loader uses,
// so the preview shows exactly what training would see.
func Preview(img image.Image, quad geometry.Quad, outDir string, opts PreviewOptions) error {
	if opts.InputSize <= 0 {
		return errors.Errorf("preview needs a positive input size, got %d", opts.InputSize)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrapf(err, "preview dir %s", outDir)
	}

	raw := imaging.ToNRGBA(img)
	rng := rand.New(rand.NewSource(opts.Seed))
	masked, regions, err := mask.MaskMarkersWithRegions(raw, quad, opts.Method, opts.MarkerSize, rng)
	if err != nil {
		return errors.Wrap(err, "marker masking")
	}

	var cells []*image.NRGBA
	write := func(name, label string, step image.Image) error {
		if err := SavePNG(filepath.Join(outDir, name), step); err != nil {
			return err
		}
		cells = append(cells, captioned(step, label))
		return nil
	}

	if err := write("step1-raw.png", "raw + marker regions", outlineRegions(raw, regions)); err != nil {
		return err
	}
	if err := write("step2-masked.png", fmt.Sprintf("masked (%s)", opts.Method), masked); err != nil {
		return err
	}
	for _, v := range PreviewVariants() {
		name := fmt.Sprintf("step3-augment-%s.png", v.Name)
		if err := write(name, v.Name, v.Factors.Apply(masked)); err != nil {
			return err
		}
	}
	resized := imaging.Prepare(masked, opts.InputSize)
	if err := write("step4-resized.png", fmt.Sprintf("resized %dx%d", opts.InputSize, opts.InputSize), resized); err != nil {
		return err
	}
	tensor := imaging.TensorToImage(imaging.TensorFromNRGBA(resized), opts.InputSize)
	if err := write("step5-tensor.png", "normalized tensor", tensor); err != nil {
		return err
	}

	sheet := imaging.Sheet(cells, sheetCols, sheetPad)
	return SavePNG(filepath.Join(outDir, "contact-sheet.png"), sheet)
}

// outlineRegions draws each marker region's polygon over a copy of the
// frame in its corner's hue.
func outlineRegions(img *image.NRGBA, regions []mask.Region) image.Image {
	b := img.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.DrawImage(img, 0, 0)
	for _, reg := range regions {
		for i, p := range reg.Polygon {
			n := reg.Polygon[(i+1)%len(reg.Polygon)]
			dc.DrawLine(p.X, p.Y, n.X, n.Y)
		}
		dc.SetColor(CornerColor(cornerIndex(reg.Corner)))
		dc.SetLineWidth(2)
		dc.Stroke()
	}
	return dc.Image()
}

func cornerIndex(name string) int {
	for i, n := range geometry.CornerNames {
		if n == name {
			return i
		}
	}
	return 0
}

// captioned fits a step image into a contact sheet cell with its label in
// a bar across the top.
func captioned(img image.Image, label string) *image.NRGBA {
	fit := imaging.Fit(img, sheetCell, sheetCell)
	b := fit.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy()+captionHeight)
	dc.SetRGB(0.09, 0.09, 0.09)
	dc.Clear()
	dc.DrawImage(fit, 0, captionHeight)
	dc.SetRGB(1, 1, 1)
	dc.DrawString(label, 4, 11)
	return imaging.ToNRGBA(dc.Image())
}
