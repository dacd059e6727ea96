package geometry

import (
	"image"
	"math"
	"sort"
)

// FillPolygon rasterizes a closed polygon into a boolean mask covering rect.
// A mask entry is true when the pixel's center lies inside the polygon under
// the even-odd rule, so self-intersecting polygons fill without special
// casing. Polygon points and rect share the same pixel coordinate origin;
// the mask is indexed (y-rect.Min.Y)*rect.Dx() + (x-rect.Min.X).
func FillPolygon(poly []Point, rect image.Rectangle) []bool {
	mask := make([]bool, rect.Dx()*rect.Dy())
	if len(poly) < 3 || rect.Empty() {
		return mask
	}

	xs := make([]float64, 0, len(poly))
	for y := 0; y < rect.Dy(); y++ {
		cy := float64(rect.Min.Y+y) + 0.5

		xs = xs[:0]
		for i := range poly {
			a := poly[i]
			b := poly[(i+1)%len(poly)]
			if (a.Y <= cy) == (b.Y <= cy) {
				continue
			}
			t := (cy - a.Y) / (b.Y - a.Y)
			xs = append(xs, a.X+t*(b.X-a.X))
		}
		sort.Float64s(xs)

		for i := 0; i+1 < len(xs); i += 2 {
			// Pixel centers at x+0.5 between the crossing pair.
			x0 := int(math.Ceil(xs[i] - 0.5))
			x1 := int(math.Ceil(xs[i+1]-0.5)) - 1
			if x0 < rect.Min.X {
				x0 = rect.Min.X
			}
			if x1 > rect.Max.X-1 {
				x1 = rect.Max.X - 1
			}
			row := y * rect.Dx()
			for x := x0; x <= x1; x++ {
				mask[row+x-rect.Min.X] = true
			}
		}
	}
	return mask
}

// PolygonBounds returns the integer bounding box of a polygon, expanded to
// whole pixels.
func PolygonBounds(poly []Point) image.Rectangle {
	if len(poly) == 0 {
		return image.Rectangle{}
	}
	minX, minY := poly[0].X, poly[0].Y
	maxX, maxY := minX, minY
	for _, p := range poly[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	)
}
