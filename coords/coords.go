// Package coords provides the geometric primitives shared by the redaction
// engine: affine matrices and axis-aligned rectangles in PDF user space, and
// the conversions between PDF point space, raster pixel space and UI space.
package coords

import "math"

// Matrix is a PDF affine transform [a b c d e f].
// Transform(x, y) = (a*x + c*y + e, b*x + d*y + f).
type Matrix [6]float64

// Identity returns the identity matrix.
func Identity() Matrix { return Matrix{1, 0, 0, 1, 0, 0} }

// Translate returns a translation matrix.
func Translate(tx, ty float64) Matrix { return Matrix{1, 0, 0, 1, tx, ty} }

// Scale returns a scaling matrix. Zero factors are legal and collapse the
// corresponding axis.
func Scale(sx, sy float64) Matrix { return Matrix{sx, 0, 0, sy, 0, 0} }

// Multiply composes "this, then other", matching the order of the PDF cm
// operator: (m.Multiply(o)).Transform(p) == o.Transform(m.Transform(p)).
func (m Matrix) Multiply(o Matrix) Matrix {
	return Matrix{
		m[0]*o[0] + m[1]*o[2],
		m[0]*o[1] + m[1]*o[3],
		m[2]*o[0] + m[3]*o[2],
		m[2]*o[1] + m[3]*o[3],
		m[4]*o[0] + m[5]*o[2] + o[4],
		m[4]*o[1] + m[5]*o[3] + o[5],
	}
}

// Transform applies the matrix to the point (x, y).
func (m Matrix) Transform(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// Apply transforms a Point.
func (m Matrix) Apply(p Point) Point {
	x, y := m.Transform(p.X, p.Y)
	return Point{X: x, Y: y}
}

// Translation returns the translation component (e, f).
func (m Matrix) Translation() Point { return Point{X: m[4], Y: m[5]} }

// Inverse returns the inverse transform. A singular matrix (one that
// collapses an axis) reports ok false and the identity.
func (m Matrix) Inverse() (Matrix, bool) {
	det := m[0]*m[3] - m[1]*m[2]
	if math.Abs(det) < 1e-12 {
		return Identity(), false
	}
	return Matrix{
		m[3] / det,
		-m[1] / det,
		-m[2] / det,
		m[0] / det,
		(m[2]*m[5] - m[3]*m[4]) / det,
		(m[1]*m[4] - m[0]*m[5]) / det,
	}, true
}

// Point is a location in some 2D coordinate space.
type Point struct {
	X, Y float64
}

// Rectangle is an axis-aligned rectangle with Left <= Right and
// Bottom <= Top in a bottom-left-origin space.
type Rectangle struct {
	Left, Bottom, Right, Top float64
}

// Rect builds a normalized rectangle from two opposite corners.
func Rect(x0, y0, x1, y1 float64) Rectangle {
	return Rectangle{
		Left:   math.Min(x0, x1),
		Bottom: math.Min(y0, y1),
		Right:  math.Max(x0, x1),
		Top:    math.Max(y0, y1),
	}
}

// BoundsOf returns the smallest rectangle covering all points.
func BoundsOf(pts ...Point) Rectangle {
	r := Rectangle{
		Left: math.MaxFloat64, Bottom: math.MaxFloat64,
		Right: -math.MaxFloat64, Top: -math.MaxFloat64,
	}
	for _, p := range pts {
		r.Left = math.Min(r.Left, p.X)
		r.Bottom = math.Min(r.Bottom, p.Y)
		r.Right = math.Max(r.Right, p.X)
		r.Top = math.Max(r.Top, p.Y)
	}
	return r
}

// Width returns Right - Left.
func (r Rectangle) Width() float64 { return r.Right - r.Left }

// Height returns Top - Bottom.
func (r Rectangle) Height() float64 { return r.Top - r.Bottom }

// IsEmpty reports a degenerate rectangle with no interior.
func (r Rectangle) IsEmpty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// Intersects reports whether the open interiors of the rectangles overlap.
// Edge-adjacent rectangles do not intersect.
func (r Rectangle) Intersects(o Rectangle) bool {
	return r.Left < o.Right && o.Left < r.Right && r.Bottom < o.Top && o.Bottom < r.Top
}

// Contains reports whether (x, y) lies inside the rectangle, boundary
// included.
func (r Rectangle) Contains(x, y float64) bool {
	return x >= r.Left && x <= r.Right && y >= r.Bottom && y <= r.Top
}

// ContainsRect reports whether o lies entirely inside r (boundary included).
func (r Rectangle) ContainsRect(o Rectangle) bool {
	return o.Left >= r.Left && o.Right <= r.Right && o.Bottom >= r.Bottom && o.Top <= r.Top
}

// Expand grows the rectangle by d on every side.
func (r Rectangle) Expand(d float64) Rectangle {
	return Rectangle{Left: r.Left - d, Bottom: r.Bottom - d, Right: r.Right + d, Top: r.Top + d}
}

// Center returns the geometric center.
func (r Rectangle) Center() Point {
	return Point{X: (r.Left + r.Right) / 2, Y: (r.Bottom + r.Top) / 2}
}
