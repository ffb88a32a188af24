// Package clip computes the polygon difference between collected page
// paths and a redaction rectangle.
//
// The difference is built per subpath by intersecting the ring with the
// four outside regions of the rectangle (left, right, middle-above,
// middle-below). Each region is convex, so every stage is a plain
// half-plane clip; the union of the four results is exactly ring MINUS
// area and the output polygons are disjoint. Non-simple input rings
// degrade to a deterministic, possibly conservative result instead of
// failing.
package clip

import (
	"math"

	"github.com/wudi/redactkit/coords"
)

// Polygon is a closed ring of points; the closing edge from the last point
// back to the first is implicit.
type Polygon []coords.Point

// Area returns the absolute shoelace area of the polygon.
func (p Polygon) Area() float64 {
	if len(p) < 3 {
		return 0
	}
	var s float64
	for i := range p {
		j := (i + 1) % len(p)
		s += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	return math.Abs(s) / 2
}

// Bounds returns the polygon's bounding rectangle.
func (p Polygon) Bounds() coords.Rectangle {
	return coords.BoundsOf(p...)
}

// HasOverlap reports whether any subpath's bounds overlap the area. It is
// a cheap pre-check: false means the clipper can be skipped entirely.
func HasOverlap(subpaths [][]coords.Point, area coords.Rectangle) bool {
	for _, ring := range subpaths {
		if len(ring) == 0 {
			continue
		}
		if coords.BoundsOf(ring...).Intersects(area) {
			return true
		}
	}
	return false
}

// IsFullyContained reports whether every point of every subpath lies
// inside the area (boundary included).
func IsFullyContained(subpaths [][]coords.Point, area coords.Rectangle) bool {
	any := false
	for _, ring := range subpaths {
		for _, pt := range ring {
			any = true
			if !area.Contains(pt.X, pt.Y) {
				return false
			}
		}
	}
	return any
}

// Clip returns subpaths MINUS area as an ordered list of polygons: the
// surviving geometry of each input ring, in input order. No overlap
// returns the input normalized to rings; full containment returns an
// empty list; a rectangle bisecting a ring yields two or more disjoint
// polygons.
func Clip(subpaths [][]coords.Point, area coords.Rectangle) []Polygon {
	var out []Polygon
	for _, ring := range subpaths {
		poly := normalize(ring)
		if len(poly) < 3 {
			continue
		}
		if !poly.Bounds().Intersects(area) {
			out = append(out, poly)
			continue
		}
		if IsFullyContained([][]coords.Point{poly}, area) {
			continue
		}
		for _, part := range difference(poly, area) {
			if part.Area() > 1e-9 {
				out = append(out, part)
			}
		}
	}
	return out
}

// normalize drops an explicit closing point so rings are uniformly open.
func normalize(ring []coords.Point) Polygon {
	if n := len(ring); n > 1 && ring[0] == ring[n-1] {
		return Polygon(ring[:n-1])
	}
	return Polygon(ring)
}

// difference clips poly against the four convex regions that tile the
// complement of area.
func difference(poly Polygon, area coords.Rectangle) []Polygon {
	regions := [][]halfPlane{
		{{axisX, true, area.Left}},   // x <= left
		{{axisX, false, area.Right}}, // x >= right
		{{axisX, false, area.Left}, {axisX, true, area.Right}, {axisY, false, area.Top}},   // middle, above
		{{axisX, false, area.Left}, {axisX, true, area.Right}, {axisY, true, area.Bottom}}, // middle, below
	}
	var out []Polygon
	for _, region := range regions {
		part := poly
		for _, hp := range region {
			part = hp.clip(part)
			if len(part) < 3 {
				part = nil
				break
			}
		}
		if len(part) >= 3 {
			out = append(out, part)
		}
	}
	return out
}

type axis int

const (
	axisX axis = iota
	axisY
)

// halfPlane keeps points with coordinate <= v (keepBelow) or >= v.
type halfPlane struct {
	ax        axis
	keepBelow bool
	v         float64
}

func (h halfPlane) coord(p coords.Point) float64 {
	if h.ax == axisX {
		return p.X
	}
	return p.Y
}

func (h halfPlane) inside(p coords.Point) bool {
	if h.keepBelow {
		return h.coord(p) <= h.v
	}
	return h.coord(p) >= h.v
}

func (h halfPlane) intersect(a, b coords.Point) coords.Point {
	ca, cb := h.coord(a), h.coord(b)
	if ca == cb {
		return b
	}
	t := (h.v - ca) / (cb - ca)
	return coords.Point{X: a.X + t*(b.X-a.X), Y: a.Y + t*(b.Y-a.Y)}
}

// clip is Sutherland-Hodgman against one half-plane.
func (h halfPlane) clip(poly Polygon) Polygon {
	if len(poly) == 0 {
		return nil
	}
	var out Polygon
	prev := poly[len(poly)-1]
	prevIn := h.inside(prev)
	for _, cur := range poly {
		curIn := h.inside(cur)
		switch {
		case curIn && prevIn:
			out = append(out, cur)
		case curIn && !prevIn:
			out = append(out, h.intersect(prev, cur), cur)
		case !curIn && prevIn:
			out = append(out, h.intersect(prev, cur))
		}
		prev, prevIn = cur, curIn
	}
	return dedupe(out)
}

func dedupe(poly Polygon) Polygon {
	if len(poly) < 2 {
		return poly
	}
	out := poly[:1]
	for _, p := range poly[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}
