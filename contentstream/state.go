package contentstream

import (
	"github.com/wudi/redactkit/coords"
	"github.com/wudi/redactkit/fonts"
)

// Color is a device color value. Color objects are treated as immutable
// and shared by reference across state snapshots.
type Color struct {
	Space      string // DeviceGray, DeviceRGB, DeviceCMYK
	Components []float64
}

var defaultBlack = &Color{Space: "DeviceGray", Components: []float64{0}}

// GraphicsState is the mutable device state the q/Q stack snapshots.
type GraphicsState struct {
	CTM         coords.Matrix
	LineWidth   float64
	StrokeColor *Color
	FillColor   *Color
	DashPattern []float64
	DashPhase   float64
}

// NewGraphicsState returns the PDF initial graphics state.
func NewGraphicsState() *GraphicsState {
	return &GraphicsState{
		CTM:         coords.Identity(),
		LineWidth:   1,
		StrokeColor: defaultBlack,
		FillColor:   defaultBlack,
	}
}

// Clone deep-copies the matrix and dash array. Colors are shared by
// reference; they are never mutated in place.
func (g *GraphicsState) Clone() *GraphicsState {
	c := *g
	if g.DashPattern != nil {
		c.DashPattern = append([]float64(nil), g.DashPattern...)
	}
	return &c
}

// TextState tracks the parameters of the active text object.
type TextState struct {
	FontName       string
	Font           *fonts.Font
	FontSize       float64
	CharSpacing    float64
	WordSpacing    float64
	HScale         float64 // percent
	Leading        float64
	Rise           float64
	RenderMode     int
	TextMatrix     coords.Matrix
	TextLineMatrix coords.Matrix
}

// NewTextState returns the defaults used before any Tf/Tz/... is seen.
func NewTextState() *TextState {
	return &TextState{
		FontSize:       12,
		HScale:         100,
		TextMatrix:     coords.Identity(),
		TextLineMatrix: coords.Identity(),
	}
}

// ResetMatrices sets both matrices to identity (BT).
func (t *TextState) ResetMatrices() {
	t.TextMatrix = coords.Identity()
	t.TextLineMatrix = coords.Identity()
}

// TranslateText moves to the start of the next line offset by (tx, ty),
// updating both matrices together (Td).
func (t *TextState) TranslateText(tx, ty float64) {
	t.TextLineMatrix = coords.Translate(tx, ty).Multiply(t.TextLineMatrix)
	t.TextMatrix = t.TextLineMatrix
}

// SetTextMatrix installs m as both the text and text-line matrix (Tm).
func (t *TextState) SetTextMatrix(m coords.Matrix) {
	t.TextMatrix = m
	t.TextLineMatrix = m
}

// MoveToNextLine shifts down by the leading (T*).
func (t *TextState) MoveToNextLine() {
	t.TranslateText(0, -t.Leading)
}

// Clone deep-copies the state, matrices included.
func (t *TextState) Clone() *TextState {
	c := *t
	return &c
}
