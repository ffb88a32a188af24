// Package fonts resolves per-character advance widths for text measuring.
//
// Widths come from three sources in order of preference: the glyph metrics
// of an embedded font program (shaped with go-text/typesetting), the font
// dictionary's Widths array, and finally a flat average-width default. All
// values are in glyph space (1/1000 em).
package fonts

import (
	"bytes"
	"sync"

	"github.com/go-text/typesetting/di"
	gofont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// Default metrics applied when a font carries no usable information.
const (
	DefaultWidth   = 600.0 // average advance, 1/1000 em
	DefaultAscent  = 750.0
	DefaultDescent = -250.0
)

// Font is the metrics view of one font resource.
type Font struct {
	Name      string // resource name, e.g. F1
	BaseFont  string
	Subtype   string // Type1, TrueType, ...
	FirstChar int
	Widths    []float64 // indexed from FirstChar, 1/1000 em
	Ascent    float64   // 1/1000 em; 0 means unknown
	Descent   float64
	FontFile  []byte // embedded font program, if any

	once sync.Once
	face *gofont.Face
}

// AscentOrDefault returns the descriptor ascent or the default.
func (f *Font) AscentOrDefault() float64 {
	if f == nil || f.Ascent == 0 {
		return DefaultAscent
	}
	return f.Ascent
}

// DescentOrDefault returns the descriptor descent or the default.
func (f *Font) DescentOrDefault() float64 {
	if f == nil || f.Descent == 0 {
		return DefaultDescent
	}
	return f.Descent
}

// Width returns the advance of one character code in 1/1000 em.
func (f *Font) Width(code byte) float64 {
	if f != nil {
		i := int(code) - f.FirstChar
		if i >= 0 && i < len(f.Widths) && f.Widths[i] > 0 {
			return f.Widths[i]
		}
	}
	return DefaultWidth
}

// Advances returns one advance per character of text in 1/1000 em. When an
// embedded face is available its shaped metrics win; otherwise the Widths
// table (then the default) is used per character code.
func (f *Font) Advances(text string) []float64 {
	if f != nil && len(f.FontFile) > 0 {
		if adv := f.shapedAdvances(text); adv != nil {
			return adv
		}
	}
	out := make([]float64, 0, len(text))
	for i := 0; i < len(text); i++ {
		out = append(out, f.Width(text[i]))
	}
	return out
}

// shapedAdvances shapes text at a 1000-unit em and maps glyph advances back
// to character indexes via cluster indexes. Returns nil when the face
// cannot be parsed or shaping produced nothing.
func (f *Font) shapedAdvances(text string) []float64 {
	f.once.Do(func() {
		face, err := gofont.ParseTTF(bytes.NewReader(f.FontFile))
		if err == nil {
			f.face = face
		}
	})
	if f.face == nil {
		return nil
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	shaper := &shaping.HarfbuzzShaper{}
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      f.face,
		// 1000 * 64 fixed point: one em maps to 1000 units, so the shaped
		// advances are directly in glyph space.
		Size:     fixed.Int26_6(1000 * 64),
		Script:   language.Latin,
		Language: language.DefaultLanguage(),
	}
	output := shaper.Shape(input)
	if len(output.Glyphs) == 0 {
		return nil
	}

	perRune := make([]float64, len(runes))
	for _, g := range output.Glyphs {
		idx := g.ClusterIndex
		if idx < 0 || idx >= len(perRune) {
			continue
		}
		perRune[idx] += float64(g.XAdvance) / 64.0
	}

	// The engine's texts are single-byte; rune and character indexes line
	// up one to one for them.
	if len(runes) != len(text) {
		return nil
	}
	return perRune
}
