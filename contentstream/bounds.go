package contentstream

import (
	"github.com/wudi/redactkit/coords"
)

// CharAdvances returns the text-space advance of each character of text
// under ts: glyph width scaled by font size and horizontal scaling, plus
// word spacing for literal spaces and character spacing.
func CharAdvances(text string, ts *TextState) []float64 {
	h := ts.HScale / 100
	widths := ts.Font.Advances(text)
	out := make([]float64, len(text))
	for i := 0; i < len(text); i++ {
		adv := widths[i] / 1000 * ts.FontSize * h
		if text[i] == ' ' {
			adv += ts.WordSpacing * h
		}
		out[i] = adv + ts.CharSpacing
	}
	return out
}

// textWidth is the total text-space width: per-character advances with
// character spacing applied between characters only.
func textWidth(text string, ts *TextState) float64 {
	if len(text) == 0 {
		return 0
	}
	var w float64
	for _, adv := range CharAdvances(text, ts) {
		w += adv
	}
	return w - ts.CharSpacing
}

// textExtents returns the text-space vertical extent of a line.
func textExtents(ts *TextState) (bottom, top float64) {
	scale := ts.FontSize / 1000
	return ts.Rise + ts.Font.DescentOrDefault()*scale, ts.Rise + ts.Font.AscentOrDefault()*scale
}

// pdfTextBounds computes the PDF-space bounding box and origin of text
// drawn with the given state, plus the total text-space advance used to
// move the text matrix past the shown string.
func pdfTextBounds(text string, ts *TextState, gs *GraphicsState) (coords.Rectangle, coords.Point, float64) {
	m := ts.TextMatrix.Multiply(gs.CTM)
	origin := m.Translation()
	if text == "" || ts.FontSize <= 0 {
		return coords.Rectangle{Left: origin.X, Bottom: origin.Y, Right: origin.X, Top: origin.Y}, origin, 0
	}
	w := textWidth(text, ts)
	bottom, top := textExtents(ts)
	box := coords.BoundsOf(
		m.Apply(coords.Point{X: 0, Y: bottom}),
		m.Apply(coords.Point{X: w, Y: bottom}),
		m.Apply(coords.Point{X: 0, Y: top}),
		m.Apply(coords.Point{X: w, Y: top}),
	)
	advance := w + ts.CharSpacing // spacing also follows the last character
	return box, origin, advance
}

// CalculateBounds returns the UI-space bounds of text drawn with ts and gs
// on a page of the given height. Empty text or a non-positive font size
// yields the degenerate all-zero rectangle.
func CalculateBounds(text string, ts *TextState, gs *GraphicsState, pageHeight float64) coords.Rectangle {
	if text == "" || ts == nil || gs == nil || ts.FontSize <= 0 {
		return coords.Rectangle{}
	}
	box, _, _ := pdfTextBounds(text, ts, gs)
	return coords.RectToUI(box, pageHeight)
}
