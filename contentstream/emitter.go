package contentstream

import (
	"bytes"

	"github.com/wudi/redactkit/coords"
)

// CharacterRun is a maximal contiguous slice of a text operation's
// characters sharing one keep/remove disposition. Indexes are half-open.
type CharacterRun struct {
	Start, End    int
	Keep          bool
	StartPosition coords.Point // PDF space
	Width         float64      // PDF points
}

// EmitRun serializes one run of op's text as a positioned show operator:
// "1 0 0 1 0 0 Tm x y Td (escaped) Tj". The original positioning
// operators survive the rebuild and still translate the line matrix, so
// each run resets the text matrix first and its Td is absolute. The
// position is the run's first matched glyph box (bottom-left, PDF space)
// from boxes, mapped through the inverse CTM captured at show time; when
// no glyph matched, the run's own tracked start position is used. An
// empty run yields zero bytes.
func EmitRun(run CharacterRun, op *TextOperation, boxes map[int]coords.Rectangle) []byte {
	if op == nil || run.End <= run.Start || run.Start < 0 || run.End > len(op.Text) {
		return nil
	}
	pos := run.StartPosition
	for i := run.Start; i < run.End; i++ {
		if b, ok := boxes[i]; ok {
			pos = coords.Point{X: b.Left, Y: b.Bottom}
			break
		}
	}
	if op.Graphics != nil {
		if inv, ok := op.Graphics.CTM.Inverse(); ok {
			pos = inv.Apply(pos)
		}
	}
	var buf bytes.Buffer
	buf.WriteString("1 0 0 1 0 0 Tm\n")
	buf.WriteString(FormatNumber(pos.X))
	buf.WriteByte(' ')
	buf.WriteString(FormatNumber(pos.Y))
	buf.WriteString(" Td (")
	buf.Write(EscapeString([]byte(op.Text[run.Start:run.End])))
	buf.WriteString(") Tj")
	return buf.Bytes()
}

// EmitAll serializes the Keep runs, one PartialTextOperation per run. Each
// bounding box keeps the original operation's height; Y is converted to UI
// space (pageHeight - runStartY - height).
func EmitAll(runs []CharacterRun, op *TextOperation, boxes map[int]coords.Rectangle, pageHeight float64) []PartialTextOperation {
	if op == nil {
		return nil
	}
	height := op.BoundingBox.Height()
	var out []PartialTextOperation
	for _, run := range runs {
		if !run.Keep {
			continue
		}
		raw := EmitRun(run, op, boxes)
		if len(raw) == 0 {
			continue
		}
		startX := run.StartPosition.X
		startY := run.StartPosition.Y
		for i := run.Start; i < run.End; i++ {
			if b, ok := boxes[i]; ok {
				startX, startY = b.Left, b.Bottom
				break
			}
		}
		top := pageHeight - startY
		out = append(out, PartialTextOperation{
			DisplayText: op.Text[run.Start:run.End],
			Raw:         raw,
			BoundingBox: coords.Rectangle{
				Left:   startX,
				Right:  startX + run.Width,
				Top:    top,
				Bottom: top - height,
			},
			StreamPosition: op.StreamPosition,
		})
	}
	return out
}
