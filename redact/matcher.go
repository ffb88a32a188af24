// Package redact removes the marks inside a rectangle from a page's
// content stream: glyph-level text filtering, path clipping, rebuild and
// post-hoc verification.
package redact

import (
	"github.com/wudi/redactkit/contentstream"
	"github.com/wudi/redactkit/coords"
	"github.com/wudi/redactkit/extractor"
)

// DefaultMatchTolerance is the bounding-box expansion, in UI points, used
// when aligning the external glyph list to a text operation. It is an
// empirical constant; override it via TextFilter.Tolerance.
const DefaultMatchTolerance = 5.0

// GlyphMap maps every character index of a text operation to a glyph.
// Indexes with no extracted glyph (a glyph source may omit spaces) carry a
// synthesized placeholder, so lookups never miss.
type GlyphMap map[int]extractor.Glyph

// MatchCharacters aligns the page's glyph list to op's characters. It
// returns nil, the fallback signal, when op's text is empty or no glyph's
// UI-space center falls inside the operation's bounding box expanded by
// the tolerance. The caller must then treat the whole operation
// atomically.
func MatchCharacters(op *contentstream.TextOperation, glyphs []extractor.Glyph, pageHeight, tolerance float64) GlyphMap {
	if op == nil || op.Text == "" {
		return nil
	}
	boundsUI := coords.RectToUI(op.BoundingBox, pageHeight).Expand(tolerance)

	var cands []extractor.Glyph
	for _, g := range glyphs {
		c := coords.PointToUI(g.Center(), pageHeight)
		if boundsUI.Contains(c.X, c.Y) {
			cands = append(cands, g)
		}
	}
	if len(cands) == 0 {
		return nil
	}

	m := make(GlyphMap, len(op.Text))
	j := 0
	for i := 0; i < len(op.Text); i++ {
		ch := rune(op.Text[i])
		switch {
		case j < len(cands) && cands[j].Char == ch:
			m[i] = cands[j]
			j++
		case ch == ' ':
			// glyph sources may omit space glyphs; synthesize one
			m[i] = synthesize(m, i, cands, j)
		case j < len(cands):
			m[i] = cands[j]
			j++
		default:
			m[i] = synthesize(m, i, cands, j)
		}
	}
	return m
}

// synthesize builds a placeholder glyph adjacent to its neighbors.
func synthesize(m GlyphMap, i int, cands []extractor.Glyph, j int) extractor.Glyph {
	if prev, ok := m[i-1]; ok {
		w := prev.Right - prev.Left
		return extractor.Glyph{
			Char:   ' ',
			Left:   prev.Right,
			Bottom: prev.Bottom,
			Right:  prev.Right + w,
			Top:    prev.Top,
		}
	}
	if j < len(cands) {
		next := cands[j]
		w := next.Right - next.Left
		return extractor.Glyph{
			Char:   ' ',
			Left:   next.Left - w,
			Bottom: next.Bottom,
			Right:  next.Left,
			Top:    next.Top,
		}
	}
	last := cands[len(cands)-1]
	return extractor.Glyph{Char: ' ', Left: last.Right, Bottom: last.Bottom, Right: last.Right, Top: last.Top}
}

// IsInArea reports whether the glyph's geometric center lies inside the
// UI-space area.
func IsInArea(g extractor.Glyph, areaUI coords.Rectangle, pageHeight float64) bool {
	c := coords.PointToUI(g.Center(), pageHeight)
	return areaUI.Contains(c.X, c.Y)
}
