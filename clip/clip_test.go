package clip

import (
	"math"
	"testing"

	"github.com/wudi/redactkit/coords"
)

func square(x0, y0, x1, y1 float64) []coords.Point {
	return []coords.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

func totalArea(polys []Polygon) float64 {
	var s float64
	for _, p := range polys {
		s += p.Area()
	}
	return s
}

func TestPolygon_Area(t *testing.T) {
	if a := Polygon(square(0, 0, 10, 10)).Area(); a != 100 {
		t.Fatalf("square area: %g", a)
	}
	// winding direction must not matter
	rev := Polygon{{X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}}
	if a := rev.Area(); a != 100 {
		t.Fatalf("reversed square area: %g", a)
	}
	if a := Polygon(square(0, 0, 10, 10)[:2]).Area(); a != 0 {
		t.Fatalf("degenerate area: %g", a)
	}
}

func TestHasOverlap(t *testing.T) {
	subpaths := [][]coords.Point{square(0, 0, 10, 10)}
	if !HasOverlap(subpaths, coords.Rect(5, 5, 15, 15)) {
		t.Fatal("overlapping rect not detected")
	}
	if HasOverlap(subpaths, coords.Rect(20, 20, 30, 30)) {
		t.Fatal("disjoint rect detected as overlap")
	}
	// edge adjacency is not overlap
	if HasOverlap(subpaths, coords.Rect(10, 0, 20, 10)) {
		t.Fatal("edge-adjacent rect detected as overlap")
	}
}

func TestIsFullyContained(t *testing.T) {
	inner := [][]coords.Point{square(2, 2, 4, 4)}
	if !IsFullyContained(inner, coords.Rect(0, 0, 10, 10)) {
		t.Fatal("contained path not detected")
	}
	if IsFullyContained(inner, coords.Rect(0, 0, 3, 10)) {
		t.Fatal("overhanging path reported contained")
	}
	if IsFullyContained(nil, coords.Rect(0, 0, 10, 10)) {
		t.Fatal("empty input must not count as contained")
	}
}

func TestClip_NoOverlapPassesThrough(t *testing.T) {
	subpaths := [][]coords.Point{square(0, 0, 10, 10)}
	polys := Clip(subpaths, coords.Rect(50, 50, 60, 60))
	if len(polys) != 1 {
		t.Fatalf("want 1 polygon, got %d", len(polys))
	}
	if a := polys[0].Area(); a != 100 {
		t.Fatalf("area changed: %g", a)
	}
}

func TestClip_ContainedPathRemoved(t *testing.T) {
	subpaths := [][]coords.Point{square(2, 2, 4, 4)}
	if polys := Clip(subpaths, coords.Rect(0, 0, 10, 10)); len(polys) != 0 {
		t.Fatalf("contained path survived: %d polygons", len(polys))
	}
}

func TestClip_BisectedSquare(t *testing.T) {
	// a vertical band through the middle splits the square into two parts
	subject := [][]coords.Point{square(0, 0, 10, 10)}
	area := coords.Rect(4, -1, 6, 11)

	polys := Clip(subject, area)
	if len(polys) != 2 {
		t.Fatalf("want 2 polygons, got %d", len(polys))
	}
	want := 100.0 - 2*10 // band removes a 2x10 strip
	if got := totalArea(polys); math.Abs(got-want) > 1e-6 {
		t.Fatalf("surviving area %g, want %g", got, want)
	}
	for _, p := range polys {
		b := p.Bounds()
		if b.Intersects(area) {
			t.Fatalf("surviving polygon overlaps the removed area: %+v", b)
		}
	}
}

func TestClip_CornerOverlap(t *testing.T) {
	subject := [][]coords.Point{square(0, 0, 10, 10)}
	area := coords.Rect(5, 5, 15, 15)

	polys := Clip(subject, area)
	if len(polys) == 0 {
		t.Fatal("corner clip removed everything")
	}
	want := 100.0 - 25.0 // 5x5 corner removed
	if got := totalArea(polys); math.Abs(got-want) > 1e-6 {
		t.Fatalf("surviving area %g, want %g", got, want)
	}
}

func TestClip_ExplicitlyClosedRing(t *testing.T) {
	ring := append(square(0, 0, 10, 10), coords.Point{X: 0, Y: 0})
	polys := Clip([][]coords.Point{ring}, coords.Rect(50, 50, 60, 60))
	if len(polys) != 1 || len(polys[0]) != 4 {
		t.Fatalf("closing point not normalized: %+v", polys)
	}
}

func TestClip_MultipleSubpaths(t *testing.T) {
	subpaths := [][]coords.Point{
		square(0, 0, 2, 2),     // fully inside the area
		square(20, 20, 22, 22), // untouched
		square(0, 20, 10, 30),  // partially clipped on the left region
	}
	area := coords.Rect(-1, -1, 5, 25)

	polys := Clip(subpaths, area)
	// first ring vanishes, second passes, third loses its left part
	if len(polys) < 2 {
		t.Fatalf("want at least 2 polygons, got %d", len(polys))
	}
	var total float64
	for _, p := range polys {
		total += p.Area()
	}
	want := 4.0 + (10.0*10.0 - 5.0*5.0) // 4 + clipped third ring
	if math.Abs(total-want) > 1e-6 {
		t.Fatalf("surviving area %g, want %g", total, want)
	}
}
