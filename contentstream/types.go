// Package contentstream interprets and rebuilds PDF page content streams.
//
// Parse walks a page's operator sequence while tracking graphics and text
// state, producing a closed set of typed operations that the redaction
// pipeline can filter and that Build can serialize back to bytes without
// touching unrelated content.
package contentstream

import (
	"github.com/wudi/redactkit/coords"
	"github.com/wudi/redactkit/fonts"
)

// Page is the collaborator contract for a single PDF page.
type Page interface {
	// Content returns the page's content-stream bytes.
	Content() []byte
	// Resources returns the page's resource dictionary view.
	Resources() *Resources
	// Height returns the page height in PDF points.
	Height() float64
}

// Resources is the read-only slice of a page's resource dictionary the
// engine needs: the font map for width metrics.
type Resources struct {
	Fonts map[string]*fonts.Font
}

// Font returns the named font resource, or nil.
func (r *Resources) Font(name string) *fonts.Font {
	if r == nil {
		return nil
	}
	return r.Fonts[name]
}

// Operation is one entry of a parsed content stream. The variant set is
// closed; every consumer switches exhaustively.
type Operation interface {
	op()
	// Pos is the operation's stable stream position. Filtering and
	// rebuilding preserve this total order.
	Pos() int
	// Bytes is the operation's serialized form.
	Bytes() []byte
}

// TextOperation is a text-showing operator (Tj, TJ, ' or ") together with
// the state that was active at the operator.
type TextOperation struct {
	Operator       string
	Text           string
	Raw            []byte
	BoundingBox    coords.Rectangle // PDF space
	Position       coords.Point     // text origin in PDF space
	Graphics       *GraphicsState
	TextState      *TextState
	StreamPosition int
}

func (*TextOperation) op() {}
func (t *TextOperation) Pos() int { return t.StreamPosition }
func (t *TextOperation) Bytes() []byte { return t.Raw }

// PartialTextOperation is a surviving slice of a filtered TextOperation,
// re-emitted as a text-matrix reset plus an absolute Td/Tj pair.
type PartialTextOperation struct {
	DisplayText    string
	Raw            []byte
	BoundingBox    coords.Rectangle // UI space
	StreamPosition int
}

func (*PartialTextOperation) op() {}
func (t *PartialTextOperation) Pos() int { return t.StreamPosition }
func (t *PartialTextOperation) Bytes() []byte { return t.Raw }

// PaintType classifies how a collected path is painted.
type PaintType int

const (
	PaintNone PaintType = iota
	PaintStroke
	PaintFill
	PaintFillStroke
)

// PathSegment is one path-construction operator with its numeric operands.
type PathSegment struct {
	Operator string
	Args     []float64
}

// CollectedPath is a maximal run of path-construction operators plus the
// paint operator that terminated it.
type CollectedPath struct {
	Segments []PathSegment
	// Subpaths holds the flattened point rings in PDF user space (the CTM
	// at construction time is already applied). A 4-corner re yields one
	// ring of 5 points, the last repeating the first.
	Subpaths [][]coords.Point
	PaintOp  string
	Clip     bool
	// IsRectangle marks a path that is exactly one re operator.
	IsRectangle bool
}

// PathOperation is a collected path with its paint classification.
type PathOperation struct {
	Path           CollectedPath
	Type           PaintType
	BoundingBox    coords.Rectangle // PDF space
	Raw            []byte
	Graphics       *GraphicsState
	StreamPosition int
}

func (*PathOperation) op() {}
func (p *PathOperation) Pos() int { return p.StreamPosition }
func (p *PathOperation) Bytes() []byte { return p.Raw }

// InlineImageOperation is a BI..ID..EI block kept as raw bytes. The binary
// payload may contain byte sequences that look like operators, so it is
// never reinterpreted or re-encoded.
type InlineImageOperation struct {
	Raw            []byte
	Bounds         coords.Rectangle
	StreamPosition int
	Length         int
}

func (*InlineImageOperation) op() {}
func (i *InlineImageOperation) Pos() int { return i.StreamPosition }
func (i *InlineImageOperation) Bytes() []byte { return i.Raw }

// GenericOperation preserves any operator the engine does not model,
// including state operators it tracks but passes through, and malformed
// input kept verbatim. An empty Operator marks dangling operands with no
// operator token; Build drops those silently.
type GenericOperation struct {
	Operator       string
	Raw            []byte
	StreamPosition int
}

func (*GenericOperation) op() {}
func (g *GenericOperation) Pos() int { return g.StreamPosition }
func (g *GenericOperation) Bytes() []byte { return g.Raw }
