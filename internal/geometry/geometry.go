// Package geometry provides the point and quadrilateral primitives shared
// across the boundary training pipeline. Points are unit-agnostic: the same
// type carries normalized [0,1] coordinates and pixel coordinates, with the
// caller tracking which space it is in. (0,0) is top-left, X increases
// rightward, Y increases downward.
package geometry

import "math"

// Corner indices in pipeline order. Every corner set in the pipeline is
// stored and transmitted in this order; the only place a different order
// appears is the perimeter walk (see PerimeterOrder).
const (
	TopLeft = iota
	TopRight
	BottomLeft
	BottomRight
)

// CornerNames maps corner indices to human-readable labels for logs and
// visualization captions.
var CornerNames = [4]string{"top-left", "top-right", "bottom-left", "bottom-right"}

// Point is a 2D point or vector.
type Point struct {
	X float64
	Y float64
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p scaled by s.
func (p Point) Scale(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Length returns the Euclidean length of p treated as a vector.
func (p Point) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Normalize returns the unit vector in the direction of p. A zero-length
// vector normalizes to the zero vector, never to NaN.
func (p Point) Normalize() Point {
	l := p.Length()
	if l <= 0 {
		return Point{}
	}
	return Point{X: p.X / l, Y: p.Y / l}
}

// Rotate returns p rotated by angle radians about the origin.
func (p Point) Rotate(angle float64) Point {
	s, c := math.Sincos(angle)
	return Point{X: p.X*c - p.Y*s, Y: p.X*s + p.Y*c}
}

// Cross returns the 2D cross product p.X*q.Y - p.Y*q.X. With Y pointing
// down, a positive value means q turns clockwise on screen from p.
func (p Point) Cross(q Point) float64 {
	return p.X*q.Y - p.Y*q.X
}

// Quad is a corner set in pipeline order: top-left, top-right, bottom-left,
// bottom-right.
type Quad [4]Point

// QuadFromFlat builds a Quad from 8 values laid out x0,y0,...,x3,y3 in
// pipeline order.
func QuadFromFlat(v []float64) Quad {
	var q Quad
	for i := 0; i < 4; i++ {
		q[i] = Point{X: v[2*i], Y: v[2*i+1]}
	}
	return q
}

// Flat returns the corners as x0,y0,...,x3,y3 in pipeline order.
func (q Quad) Flat() [8]float64 {
	var v [8]float64
	for i, p := range q {
		v[2*i] = p.X
		v[2*i+1] = p.Y
	}
	return v
}

// Centroid returns the mean of the four corners.
func (q Quad) Centroid() Point {
	var c Point
	for _, p := range q {
		c.X += p.X
		c.Y += p.Y
	}
	return Point{X: c.X / 4, Y: c.Y / 4}
}

// ToPixels converts a normalized quad to pixel coordinates for a w x h image.
func (q Quad) ToPixels(w, h int) Quad {
	var out Quad
	for i, p := range q {
		out[i] = Point{X: p.X * float64(w), Y: p.Y * float64(h)}
	}
	return out
}

// ShorterEdge returns the length of the shorter of the top edge
// (top-left to top-right) and the left edge (top-left to bottom-left).
func (q Quad) ShorterEdge() float64 {
	top := q[TopLeft].Dist(q[TopRight])
	left := q[TopLeft].Dist(q[BottomLeft])
	return math.Min(top, left)
}

// PerimeterIndex maps perimeter walk positions to pipeline corner indices:
// top-left, top-right, bottom-right, bottom-left. Pipeline order is not a
// polygon winding (it zigzags), so perimeter operations reorder through
// this table.
var PerimeterIndex = [4]int{TopLeft, TopRight, BottomRight, BottomLeft}

// PerimeterOrder returns the corners reordered for a perimeter walk.
func (q Quad) PerimeterOrder() [4]Point {
	var out [4]Point
	for w, i := range PerimeterIndex {
		out[w] = q[i]
	}
	return out
}

// InUnitRange reports whether every coordinate lies in [0,1].
func (q Quad) InUnitRange() bool {
	for _, p := range q {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			return false
		}
	}
	return true
}
