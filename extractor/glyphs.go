// Package extractor produces an ordered per-character glyph list for a
// page, with each glyph's bounding rectangle in PDF point space.
//
// It interprets the content stream with its own minimal state tracking,
// deliberately independent of the contentstream parser, so the redaction
// pipeline can cross-check the two against each other.
package extractor

import (
	"errors"

	"github.com/wudi/redactkit/contentstream"
	"github.com/wudi/redactkit/coords"
	"github.com/wudi/redactkit/fonts"
)

// ErrNilPage is returned when page is nil.
var ErrNilPage = errors.New("extractor: nil page")

// Glyph is one rendered character with its box in PDF point space
// (bottom-left origin).
type Glyph struct {
	Char                     rune
	Left, Bottom, Right, Top float64
}

// Bounds returns the glyph box as a rectangle.
func (g Glyph) Bounds() coords.Rectangle {
	return coords.Rectangle{Left: g.Left, Bottom: g.Bottom, Right: g.Right, Top: g.Top}
}

// Center returns the glyph's geometric center.
func (g Glyph) Center() coords.Point { return g.Bounds().Center() }

type walker struct {
	res *contentstream.Resources

	ctm   coords.Matrix
	stack []coords.Matrix

	font     *fonts.Font
	size     float64
	charSp   float64
	wordSp   float64
	hscale   float64
	leading  float64
	rise     float64
	tm, tlm  coords.Matrix
	glyphs   []Glyph
	operands []contentstream.Token
}

// ExtractGlyphs walks the page's content stream and returns one glyph per
// shown character, in stream order.
func ExtractGlyphs(page contentstream.Page) ([]Glyph, error) {
	if page == nil {
		return nil, ErrNilPage
	}
	w := &walker{
		res:    page.Resources(),
		ctm:    coords.Identity(),
		size:   12,
		hscale: 100,
		tm:     coords.Identity(),
		tlm:    coords.Identity(),
	}
	lex := contentstream.NewLexer(page.Content())
	for {
		tok, err := lex.Next()
		if err != nil {
			break
		}
		switch tok.Kind {
		case contentstream.TokenKeyword:
			w.keyword(string(tok.Raw))
			w.operands = w.operands[:0]
		case contentstream.TokenInlineImage:
			w.operands = w.operands[:0]
		default:
			w.operands = append(w.operands, tok)
		}
	}
	return w.glyphs, nil
}

func (w *walker) floats() []float64 {
	var out []float64
	for _, t := range w.operands {
		if t.Kind == contentstream.TokenNumber {
			out = append(out, t.Num)
		}
	}
	return out
}

func (w *walker) keyword(op string) {
	switch op {
	case "q":
		w.stack = append(w.stack, w.ctm)
	case "Q":
		if n := len(w.stack); n > 0 {
			w.ctm = w.stack[n-1]
			w.stack = w.stack[:n-1]
		}
	case "cm":
		if f := w.floats(); len(f) == 6 {
			w.ctm = coords.Matrix{f[0], f[1], f[2], f[3], f[4], f[5]}.Multiply(w.ctm)
		}
	case "BT":
		w.tm = coords.Identity()
		w.tlm = coords.Identity()
	case "Tf":
		if len(w.operands) >= 2 {
			name := w.operands[len(w.operands)-2]
			size := w.operands[len(w.operands)-1]
			if name.Kind == contentstream.TokenName && size.Kind == contentstream.TokenNumber {
				w.font = w.res.Font(name.Name)
				w.size = size.Num
			}
		}
	case "Tc":
		if f := w.floats(); len(f) == 1 {
			w.charSp = f[0]
		}
	case "Tw":
		if f := w.floats(); len(f) == 1 {
			w.wordSp = f[0]
		}
	case "Tz":
		if f := w.floats(); len(f) == 1 {
			w.hscale = f[0]
		}
	case "TL":
		if f := w.floats(); len(f) == 1 {
			w.leading = f[0]
		}
	case "Ts":
		if f := w.floats(); len(f) == 1 {
			w.rise = f[0]
		}
	case "Td":
		if f := w.floats(); len(f) == 2 {
			w.translateLine(f[0], f[1])
		}
	case "TD":
		if f := w.floats(); len(f) == 2 {
			w.leading = -f[1]
			w.translateLine(f[0], f[1])
		}
	case "Tm":
		if f := w.floats(); len(f) == 6 {
			w.tlm = coords.Matrix{f[0], f[1], f[2], f[3], f[4], f[5]}
			w.tm = w.tlm
		}
	case "T*":
		w.translateLine(0, -w.leading)
	case "Tj":
		if s, ok := w.lastString(); ok {
			w.show(s)
		}
	case "'":
		w.translateLine(0, -w.leading)
		if s, ok := w.lastString(); ok {
			w.show(s)
		}
	case "\"":
		if f := w.floats(); len(f) >= 2 {
			w.wordSp = f[0]
			w.charSp = f[1]
		}
		w.translateLine(0, -w.leading)
		if s, ok := w.lastString(); ok {
			w.show(s)
		}
	case "TJ":
		w.showArray()
	}
}

func (w *walker) translateLine(tx, ty float64) {
	w.tlm = coords.Translate(tx, ty).Multiply(w.tlm)
	w.tm = w.tlm
}

func (w *walker) lastString() ([]byte, bool) {
	for i := len(w.operands) - 1; i >= 0; i-- {
		t := w.operands[i]
		if t.Kind == contentstream.TokenString || t.Kind == contentstream.TokenHexString {
			return t.Str, true
		}
	}
	return nil, false
}

func (w *walker) showArray() {
	inArray := false
	for _, t := range w.operands {
		switch t.Kind {
		case contentstream.TokenArrayOpen:
			inArray = true
		case contentstream.TokenArrayClose:
			inArray = false
		case contentstream.TokenString, contentstream.TokenHexString:
			if inArray {
				w.show(t.Str)
			}
		case contentstream.TokenNumber:
			if inArray {
				w.advance(-t.Num / 1000 * w.size * w.hscale / 100)
			}
		}
	}
}

// advance moves the text matrix by dx text-space units.
func (w *walker) advance(dx float64) {
	w.tm = coords.Translate(dx, 0).Multiply(w.tm)
}

// show emits one glyph per byte of s and advances the text matrix.
func (w *walker) show(s []byte) {
	h := w.hscale / 100
	scale := w.size / 1000
	descent := w.rise + w.font.DescentOrDefault()*scale
	ascent := w.rise + w.font.AscentOrDefault()*scale

	widths := w.font.Advances(string(s))
	for i, b := range s {
		core := widths[i] / 1000 * w.size * h
		m := w.tm.Multiply(w.ctm)
		box := coords.BoundsOf(
			m.Apply(coords.Point{X: 0, Y: descent}),
			m.Apply(coords.Point{X: core, Y: descent}),
			m.Apply(coords.Point{X: 0, Y: ascent}),
			m.Apply(coords.Point{X: core, Y: ascent}),
		)
		w.glyphs = append(w.glyphs, Glyph{
			Char:   rune(b),
			Left:   box.Left,
			Bottom: box.Bottom,
			Right:  box.Right,
			Top:    box.Top,
		})
		adv := core + w.charSp
		if b == ' ' {
			adv += w.wordSp * h
		}
		w.advance(adv)
	}
}
