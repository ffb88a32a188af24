package redact

import (
	"github.com/wudi/redactkit/contentstream"
	"github.com/wudi/redactkit/coords"
	"github.com/wudi/redactkit/extractor"
)

// FilterResult is the outcome of filtering one text operation. It is
// produced fresh on every call and never cached.
type FilterResult struct {
	// Operations replace the original operation: the original itself when
	// nothing was removed or the matcher fell back, zero operations when
	// everything was removed, or one PartialTextOperation per surviving
	// run.
	Operations []contentstream.Operation
	// RemovedText is the Keep=false characters in original order.
	RemovedText string
	// FallbackToOperationLevel signals the matcher could not align glyphs;
	// the caller must keep or drop the whole operation atomically.
	FallbackToOperationLevel bool
}

// TextFilter splits text operations into kept and removed character runs.
type TextFilter struct {
	// Tolerance is the glyph-matching tolerance in UI points;
	// DefaultMatchTolerance when zero.
	Tolerance float64
}

func (f *TextFilter) tolerance() float64 {
	if f == nil || f.Tolerance == 0 {
		return DefaultMatchTolerance
	}
	return f.Tolerance
}

// Filter marks each character of op removed iff its glyph center lies
// inside areaUI, collapses contiguous same-disposition characters into
// runs, and re-emits the kept runs as positioned text operations.
func (f *TextFilter) Filter(op *contentstream.TextOperation, glyphs []extractor.Glyph, areaUI coords.Rectangle, pageHeight float64) FilterResult {
	gm := MatchCharacters(op, glyphs, pageHeight, f.tolerance())
	if gm == nil {
		return FilterResult{
			Operations:               []contentstream.Operation{op},
			FallbackToOperationLevel: true,
		}
	}

	keep := make([]bool, len(op.Text))
	removed := make([]byte, 0, len(op.Text))
	anyRemoved := false
	for i := range keep {
		keep[i] = !IsInArea(gm[i], areaUI, pageHeight)
		if !keep[i] {
			removed = append(removed, op.Text[i])
			anyRemoved = true
		}
	}
	if !anyRemoved {
		// untouched: hand back the original operation itself
		return FilterResult{Operations: []contentstream.Operation{op}}
	}

	runs := buildRuns(op, gm, keep)
	boxes := make(map[int]coords.Rectangle, len(gm))
	for i, g := range gm {
		boxes[i] = g.Bounds()
	}
	parts := contentstream.EmitAll(runs, op, boxes, pageHeight)

	ops := make([]contentstream.Operation, 0, len(parts))
	for i := range parts {
		ops = append(ops, &parts[i])
	}
	return FilterResult{Operations: ops, RemovedText: string(removed)}
}

// buildRuns collapses contiguous characters with the same disposition.
func buildRuns(op *contentstream.TextOperation, gm GlyphMap, keep []bool) []contentstream.CharacterRun {
	var runs []contentstream.CharacterRun
	for i := 0; i < len(keep); {
		j := i
		for j < len(keep) && keep[j] == keep[i] {
			j++
		}
		first, last := gm[i], gm[j-1]
		runs = append(runs, contentstream.CharacterRun{
			Start:         i,
			End:           j,
			Keep:          keep[i],
			StartPosition: coords.Point{X: first.Left, Y: first.Bottom},
			Width:         last.Right - first.Left,
		})
		i = j
	}
	return runs
}
