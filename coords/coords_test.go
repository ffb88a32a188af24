package coords

import (
	"math"
	"testing"
)

const eps = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) < eps }

func TestMatrix_Identity(t *testing.T) {
	m := Identity()
	x, y := m.Transform(3.5, -7)
	if !approx(x, 3.5) || !approx(y, -7) {
		t.Fatalf("identity moved point: (%g, %g)", x, y)
	}
}

func TestMatrix_MultiplyOrder(t *testing.T) {
	// scale then translate must differ from translate then scale
	s := Scale(2, 2)
	tr := Translate(10, 0)

	x, y := s.Multiply(tr).Transform(1, 1)
	if !approx(x, 12) || !approx(y, 2) {
		t.Fatalf("scale-then-translate: got (%g, %g), want (12, 2)", x, y)
	}
	x, y = tr.Multiply(s).Transform(1, 1)
	if !approx(x, 22) || !approx(y, 2) {
		t.Fatalf("translate-then-scale: got (%g, %g), want (22, 2)", x, y)
	}
}

func TestMatrix_InverseRoundTrip(t *testing.T) {
	m := Translate(3, 4).Multiply(Scale(2, 3))
	inv, ok := m.Inverse()
	if !ok {
		t.Fatal("invertible matrix reported singular")
	}
	p := inv.Apply(m.Apply(Point{X: 7, Y: -2}))
	if !approx(p.X, 7) || !approx(p.Y, -2) {
		t.Fatalf("round trip drifted: %+v", p)
	}
	if _, ok := Scale(0, 1).Inverse(); ok {
		t.Fatal("singular matrix inverted")
	}
}

func TestMatrix_MultiplyMatchesSequentialTransform(t *testing.T) {
	a := Matrix{2, 0.5, -0.5, 2, 7, -3}
	b := Matrix{0.25, 0, 0, 4, -1, 2}
	p := Point{X: 3, Y: -2}

	composed := a.Multiply(b).Apply(p)
	sequential := b.Apply(a.Apply(p))
	if !approx(composed.X, sequential.X) || !approx(composed.Y, sequential.Y) {
		t.Fatalf("composition mismatch: %+v vs %+v", composed, sequential)
	}
}

func TestMatrix_Translation(t *testing.T) {
	p := Translate(4, -9).Translation()
	if p.X != 4 || p.Y != -9 {
		t.Fatalf("translation component: %+v", p)
	}
}

func TestRect_Normalizes(t *testing.T) {
	r := Rect(10, 20, 2, 5)
	want := Rectangle{Left: 2, Bottom: 5, Right: 10, Top: 20}
	if r != want {
		t.Fatalf("got %+v, want %+v", r, want)
	}
}

func TestRectangle_IntersectsOpenInterval(t *testing.T) {
	a := Rect(0, 0, 10, 10)
	cases := []struct {
		name string
		b    Rectangle
		want bool
	}{
		{"overlapping", Rect(5, 5, 15, 15), true},
		{"contained", Rect(2, 2, 4, 4), true},
		{"edge adjacent", Rect(10, 0, 20, 10), false},
		{"corner touching", Rect(10, 10, 20, 20), false},
		{"disjoint", Rect(30, 30, 40, 40), false},
	}
	for _, tc := range cases {
		if got := a.Intersects(tc.b); got != tc.want {
			t.Errorf("%s: Intersects=%v, want %v", tc.name, got, tc.want)
		}
		if got := tc.b.Intersects(a); got != tc.want {
			t.Errorf("%s (swapped): Intersects=%v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRectangle_ContainsBoundaryInclusive(t *testing.T) {
	r := Rect(0, 0, 10, 10)
	if !r.Contains(0, 0) || !r.Contains(10, 10) || !r.Contains(5, 10) {
		t.Fatal("boundary points must be contained")
	}
	if r.Contains(10.001, 5) {
		t.Fatal("point outside must not be contained")
	}
}

func TestRectangle_ContainsRect(t *testing.T) {
	outer := Rect(0, 0, 10, 10)
	if !outer.ContainsRect(Rect(0, 0, 10, 10)) {
		t.Fatal("rectangle must contain itself")
	}
	if !outer.ContainsRect(Rect(1, 1, 9, 9)) {
		t.Fatal("inner rectangle must be contained")
	}
	if outer.ContainsRect(Rect(5, 5, 11, 9)) {
		t.Fatal("overhanging rectangle must not be contained")
	}
}

func TestRectangle_EmptyAndExpand(t *testing.T) {
	if !(Rectangle{Left: 5, Bottom: 5, Right: 5, Top: 8}).IsEmpty() {
		t.Fatal("zero-width rectangle should be empty")
	}
	r := Rect(2, 2, 4, 4).Expand(1)
	if r != (Rectangle{Left: 1, Bottom: 1, Right: 5, Top: 5}) {
		t.Fatalf("expand: %+v", r)
	}
}

func TestBoundsOf(t *testing.T) {
	r := BoundsOf(Point{X: 3, Y: -1}, Point{X: -2, Y: 8}, Point{X: 0, Y: 0})
	want := Rectangle{Left: -2, Bottom: -1, Right: 3, Top: 8}
	if r != want {
		t.Fatalf("got %+v, want %+v", r, want)
	}
}

func TestPixelPointRoundTrip(t *testing.T) {
	for _, dpi := range []float64{72, 150, 300} {
		pt, err := PixelsToPoints(1234, dpi)
		if err != nil {
			t.Fatalf("dpi %g: %v", dpi, err)
		}
		px, err := PointsToPixels(pt, dpi)
		if err != nil {
			t.Fatalf("dpi %g: %v", dpi, err)
		}
		if math.Abs(px-1234) > 1e-4 {
			t.Fatalf("dpi %g: round trip drifted to %g", dpi, px)
		}
	}
	if _, err := PixelsToPoints(10, 0); err != ErrBadDPI {
		t.Fatalf("expected ErrBadDPI, got %v", err)
	}
	if _, err := PointsToPixels(10, -1); err != ErrBadDPI {
		t.Fatalf("expected ErrBadDPI, got %v", err)
	}
}

func TestUIFlipSelfInverse(t *testing.T) {
	const h = 792.0
	if got := ToUIY(ToUIY(123.4, h), h); !approx(got, 123.4) {
		t.Fatalf("Y flip not self-inverse: %g", got)
	}
	r := Rect(10, 20, 100, 200)
	back := RectToPDF(RectToUI(r, h), h)
	if back != r {
		t.Fatalf("rect flip not self-inverse: %+v", back)
	}
	ui := RectToUI(r, h)
	if !approx(ui.Top, h-20) || !approx(ui.Bottom, h-200) {
		t.Fatalf("flip swapped edges wrong: %+v", ui)
	}
	if !approx(ui.Width(), r.Width()) || !approx(ui.Height(), r.Height()) {
		t.Fatal("flip changed size")
	}
}

func TestRectScaling(t *testing.T) {
	r := Rect(0, 0, 300, 150)
	pts, err := RectPixelsToPoints(r, 150)
	if err != nil {
		t.Fatal(err)
	}
	if !approx(pts.Right, 144) || !approx(pts.Top, 72) {
		t.Fatalf("pixel->point: %+v", pts)
	}
	px, err := RectPointsToPixels(pts, 150)
	if err != nil {
		t.Fatal(err)
	}
	if !approx(px.Right, 300) || !approx(px.Top, 150) {
		t.Fatalf("point->pixel: %+v", px)
	}
	if _, err := RectPixelsToPoints(r, 0); err != ErrBadDPI {
		t.Fatalf("expected ErrBadDPI, got %v", err)
	}
}
