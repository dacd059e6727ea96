package mask

import (
	"fmt"
	"image"
	"math"
	"math/rand"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"

	"github.com/sorobanworks/boundary-train/internal/geometry"
)

// Method selects how marker regions are filled.
type Method string

const (
	MethodNoise   Method = "noise"
	MethodBlur    Method = "blur"
	MethodBlack   Method = "black"
	MethodInpaint Method = "inpaint"
)

// ParseMethod validates a method name from configuration.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodNoise, MethodBlur, MethodBlack, MethodInpaint:
		return Method(s), nil
	}
	return "", fmt.Errorf("unknown mask method %q (want noise, blur, black or inpaint)", s)
}

const (
	// Marker size as a fraction of the quad's shorter visible edge, with
	// pixel clamps for extreme quads.
	sizeFactor    = 0.18
	minMarkerSize = 20
	maxMarkerSize = 150

	// Region geometry: side length relative to the marker and the outward
	// push from the corner, in marker sizes.
	regionExpansion = 2.0
	outwardOffset   = 0.4

	// Blur fills: kernel is half the shorter region side, odd, at least 31.
	minBlurKernel = 31

	// Noise fill: uniform per-channel amplitude on the 8-bit scale.
	noiseAmplitude = 30
)

// EstimateMarkerSize derives the marker size in pixels from the annotated
// quad on a w x h image. Degenerate quads clamp to the minimum and very
// large frames to the maximum.
func EstimateMarkerSize(quad geometry.Quad, w, h int) int {
	shorter := quad.ToPixels(w, h).ShorterEdge()
	size := int(shorter * sizeFactor)
	if size < minMarkerSize {
		size = minMarkerSize
	}
	if size > maxMarkerSize {
		size = maxMarkerSize
	}
	return size
}

// Region describes one clipped marker region.
type Region struct {
	// Corner is the human-readable corner name.
	Corner string
	// Polygon is the rotated square in pixel coordinates, unclipped.
	Polygon []geometry.Point
	// Rect is the polygon's bounding box clipped to the image.
	Rect image.Rectangle
}

// Regions computes the marker regions for a quad on a w x h image. A
// markerSize of zero or less means estimate it from the quad. Corners whose
// clipped region is empty are omitted; a fully out-of-frame quad yields no
// regions at all.
func Regions(quad geometry.Quad, w, h, markerSize int) []Region {
	if markerSize <= 0 {
		markerSize = EstimateMarkerSize(quad, w, h)
	}
	px := quad.ToPixels(w, h)
	centroid := px.Centroid()
	bounds := image.Rect(0, 0, w, h)

	var regions []Region
	for i, corner := range px {
		poly := regionPolygon(corner, centroid, float64(markerSize))
		rect := geometry.PolygonBounds(poly).Intersect(bounds)
		if rect.Empty() {
			continue
		}
		regions = append(regions, Region{
			Corner:  geometry.CornerNames[i],
			Polygon: poly,
			Rect:    rect,
		})
	}
	return regions
}

// regionPolygon builds the rotated square covering one marker. The outward
// direction of a corner coinciding with the centroid is the zero vector, so
// the square stays centered on the corner unrotated.
func regionPolygon(corner, centroid geometry.Point, markerSize float64) []geometry.Point {
	outward := corner.Sub(centroid).Normalize()
	center := corner.Add(outward.Scale(outwardOffset * markerSize))
	angle := math.Atan2(outward.Y, outward.X)
	half := markerSize * regionExpansion / 2

	square := []geometry.Point{
		{X: -half, Y: -half},
		{X: half, Y: -half},
		{X: half, Y: half},
		{X: -half, Y: half},
	}
	for i, p := range square {
		square[i] = p.Rotate(angle).Add(center)
	}
	return square
}

// MaskMarkers returns a copy of img with all four marker regions filled by
// the given method. A markerSize of zero or less means estimate it from the
// quad. rng drives the noise method and must be non-nil for it; the other
// methods ignore it. The output always has the input's dimensions.
func MaskMarkers(img image.Image, quad geometry.Quad, method Method, markerSize int, rng *rand.Rand) (*image.NRGBA, error) {
	if method == MethodNoise && rng == nil {
		return nil, fmt.Errorf("noise masking requires a random source")
	}
	out := imaging.Clone(img)
	b := out.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("cannot mask an empty image")
	}

	for _, reg := range Regions(quad, b.Dx(), b.Dy(), markerSize) {
		if err := fillRegion(out, reg, method, rng); err != nil {
			return nil, fmt.Errorf("%s marker: %w", reg.Corner, err)
		}
	}
	return out, nil
}

// MaskMarkersWithRegions is MaskMarkers plus the clipped regions that were
// filled, for preview overlays and diagnostics.
func MaskMarkersWithRegions(img image.Image, quad geometry.Quad, method Method, markerSize int, rng *rand.Rand) (*image.NRGBA, []Region, error) {
	masked, err := MaskMarkers(img, quad, method, markerSize, rng)
	if err != nil {
		return nil, nil, err
	}
	b := masked.Bounds()
	return masked, Regions(quad, b.Dx(), b.Dy(), markerSize), nil
}

func fillRegion(img *image.NRGBA, reg Region, method Method, rng *rand.Rand) error {
	m := geometry.FillPolygon(reg.Polygon, reg.Rect)
	switch method {
	case MethodBlack:
		fillBlack(img, reg.Rect, m)
	case MethodBlur:
		src, off := blurPatch(img, reg.Rect)
		compositeBlur(img, reg.Rect, m, src, off, nil)
	case MethodNoise:
		src, off := blurPatch(img, reg.Rect)
		compositeBlur(img, reg.Rect, m, src, off, rng)
	case MethodInpaint:
		inpaintRegion(img, reg.Rect, m)
	default:
		return fmt.Errorf("unknown mask method %q", method)
	}
	return nil
}

// blurKernel returns the Gaussian kernel size for a region.
func blurKernel(rect image.Rectangle) int {
	k := rect.Dx()
	if rect.Dy() < k {
		k = rect.Dy()
	}
	k /= 2
	if k%2 == 0 {
		k++
	}
	if k < minBlurKernel {
		k = minBlurKernel
	}
	return k
}

// blurPatch double-blurs the neighborhood of a region. The patch extends
// past the region by the combined support of both passes, so pixels inside
// the region come out identical to blurring the whole frame; the only
// shared boundary is the frame edge itself, where both clamp the same way.
func blurPatch(img *image.NRGBA, rect image.Rectangle) (*image.RGBA, image.Point) {
	k := blurKernel(rect)
	radius := float64(k) / 2
	margin := 2 * k

	patchRect := image.Rect(
		rect.Min.X-margin, rect.Min.Y-margin,
		rect.Max.X+margin, rect.Max.Y+margin,
	).Intersect(img.Bounds())

	patch := imaging.Crop(img, patchRect)
	blurred := blur.Gaussian(blur.Gaussian(patch, radius), radius)
	return blurred, patchRect.Min
}

// compositeBlur writes blurred source pixels into the masked part of the
// region, adding uniform per-channel noise when rng is non-nil. Alpha is
// left untouched.
func compositeBlur(img *image.NRGBA, rect image.Rectangle, m []bool, src *image.RGBA, off image.Point, rng *rand.Rand) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if !m[(y-rect.Min.Y)*rect.Dx()+(x-rect.Min.X)] {
				continue
			}
			c := src.RGBAAt(x-off.X, y-off.Y)
			r, g, b := float64(c.R), float64(c.G), float64(c.B)
			if rng != nil {
				r += rng.Float64()*2*noiseAmplitude - noiseAmplitude
				g += rng.Float64()*2*noiseAmplitude - noiseAmplitude
				b += rng.Float64()*2*noiseAmplitude - noiseAmplitude
			}
			o := img.PixOffset(x, y)
			img.Pix[o] = clampU8(r)
			img.Pix[o+1] = clampU8(g)
			img.Pix[o+2] = clampU8(b)
		}
	}
}

func fillBlack(img *image.NRGBA, rect image.Rectangle, m []bool) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if !m[(y-rect.Min.Y)*rect.Dx()+(x-rect.Min.X)] {
				continue
			}
			o := img.PixOffset(x, y)
			img.Pix[o] = 0
			img.Pix[o+1] = 0
			img.Pix[o+2] = 0
		}
	}
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
