package coords

import "errors"

// ErrBadDPI is returned by the pixel conversions when dpi <= 0.
var ErrBadDPI = errors.New("coords: dpi must be positive")

// PDF user space is 72 points per inch.
const pointsPerInch = 72

// PixelsToPoints converts a length in raster pixels at the given DPI to PDF
// points.
func PixelsToPoints(px, dpi float64) (float64, error) {
	if dpi <= 0 {
		return 0, ErrBadDPI
	}
	return px * pointsPerInch / dpi, nil
}

// PointsToPixels converts a length in PDF points to raster pixels at the
// given DPI.
func PointsToPixels(pt, dpi float64) (float64, error) {
	if dpi <= 0 {
		return 0, ErrBadDPI
	}
	return pt * dpi / pointsPerInch, nil
}

// ToUIY converts a PDF-space Y coordinate (bottom-left origin) to UI space
// (top-left origin) for a page of the given height. The conversion is its
// own inverse.
func ToUIY(pdfY, pageHeight float64) float64 { return pageHeight - pdfY }

// RectToUI converts a PDF-space rectangle to UI space. The Y flip swaps
// which edge is on top, so all four edges stay consistent.
func RectToUI(r Rectangle, pageHeight float64) Rectangle {
	return Rectangle{
		Left:   r.Left,
		Bottom: pageHeight - r.Top,
		Right:  r.Right,
		Top:    pageHeight - r.Bottom,
	}
}

// RectToPDF converts a UI-space rectangle back to PDF space.
func RectToPDF(r Rectangle, pageHeight float64) Rectangle {
	return RectToUI(r, pageHeight) // the flip is self-inverse
}

// PointToUI converts a PDF-space point to UI space.
func PointToUI(p Point, pageHeight float64) Point {
	return Point{X: p.X, Y: ToUIY(p.Y, pageHeight)}
}

// RectPixelsToPoints scales a pixel-space rectangle to PDF points.
func RectPixelsToPoints(r Rectangle, dpi float64) (Rectangle, error) {
	if dpi <= 0 {
		return Rectangle{}, ErrBadDPI
	}
	s := pointsPerInch / dpi
	return Rectangle{Left: r.Left * s, Bottom: r.Bottom * s, Right: r.Right * s, Top: r.Top * s}, nil
}

// RectPointsToPixels scales a PDF-point rectangle to raster pixels.
func RectPointsToPixels(r Rectangle, dpi float64) (Rectangle, error) {
	if dpi <= 0 {
		return Rectangle{}, ErrBadDPI
	}
	s := dpi / pointsPerInch
	return Rectangle{Left: r.Left * s, Bottom: r.Bottom * s, Right: r.Right * s, Top: r.Top * s}, nil
}
