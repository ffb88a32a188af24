package redact

import (
	"bytes"

	"github.com/wudi/redactkit/clip"
	"github.com/wudi/redactkit/contentstream"
	"github.com/wudi/redactkit/coords"
	"github.com/wudi/redactkit/extractor"
	"github.com/wudi/redactkit/observability"
)

// Page is the collaborator contract the service mutates: a content stream
// that can be read and replaced, plus the resource and geometry views the
// parser needs.
type Page interface {
	contentstream.Page
	ReplaceContent([]byte)
}

// Result summarizes one RedactArea call.
type Result struct {
	RemovedText       string
	CharactersRemoved int
	OperationsDropped int
	PathsClipped      int
	PolygonsKept      int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger installs a logger; the default is a no-op.
func WithLogger(l observability.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithTolerance overrides the glyph-matching tolerance in UI points.
func WithTolerance(t float64) Option {
	return func(s *Service) { s.tolerance = t }
}

// Service removes the marks inside a rectangle from one page per call.
// A call owns everything it produces; nothing is cached or shared, so
// calls on different pages are independent. Calls on the same page must
// be serialized by the caller: each rewrites the content stream the next
// call reparses.
type Service struct {
	log       observability.Logger
	tolerance float64
}

// NewService returns a Service with the given options applied.
func NewService(opts ...Option) *Service {
	s := &Service{log: observability.NopLogger{}, tolerance: DefaultMatchTolerance}
	for _, o := range opts {
		o(s)
	}
	return s
}

// RedactArea removes the text glyphs and path geometry inside area (PDF
// point space) from the page's content stream, rebuilds the stream and
// replaces it, then paints an opaque black rectangle over the area as a
// cosmetic confirmation layer. The structural removal is the security
// effect; the box is redundant but expected.
//
// An empty or non-intersecting rectangle is a valid no-op (only the box
// is appended). The page is always reparsed; no state survives between
// calls.
func (s *Service) RedactArea(page Page, area coords.Rectangle) (*Result, error) {
	if page == nil {
		return nil, contentstream.ErrNilPage
	}
	ops, err := contentstream.Parse(page)
	if err != nil {
		return nil, err
	}
	pageHeight := page.Height()
	glyphs, err := extractor.ExtractGlyphs(page)
	if err != nil {
		return nil, err
	}
	s.log.Debug("page parsed",
		observability.Int(observability.MetricParsedOps, len(ops)),
		observability.Int("glyphs", len(glyphs)))

	areaUI := coords.RectToUI(area, pageHeight)
	filter := &TextFilter{Tolerance: s.tolerance}
	res := &Result{}

	out := make([]contentstream.Operation, 0, len(ops)+1)
	for _, op := range ops {
		switch t := op.(type) {
		case *contentstream.TextOperation:
			if area.IsEmpty() || !t.BoundingBox.Intersects(area) {
				out = append(out, t)
				continue
			}
			fr := filter.Filter(t, glyphs, areaUI, pageHeight)
			if fr.FallbackToOperationLevel {
				// cannot split confidently: drop the whole operation
				// rather than risk a partial leak
				res.OperationsDropped++
				res.RemovedText += t.Text
				res.CharactersRemoved += len(t.Text)
				s.log.Warn("glyph match fallback, dropping operation",
					observability.Int("pos", t.StreamPosition),
					observability.Int("chars", len(t.Text)))
				continue
			}
			out = append(out, fr.Operations...)
			res.RemovedText += fr.RemovedText
			res.CharactersRemoved += len(fr.RemovedText)
		case *contentstream.PathOperation:
			if area.IsEmpty() || !clip.HasOverlap(t.Path.Subpaths, area) {
				out = append(out, t)
				continue
			}
			res.PathsClipped++
			if clip.IsFullyContained(t.Path.Subpaths, area) {
				continue
			}
			polys := clip.Clip(t.Path.Subpaths, area)
			res.PolygonsKept += len(polys)
			if len(polys) == 0 {
				continue
			}
			out = append(out, synthesizePath(t, polys))
		default:
			out = append(out, op)
		}
	}

	out = append(out, confirmationBox(area, maxPos(ops)+1))

	data, err := contentstream.Build(out)
	if err != nil {
		return nil, err
	}
	page.ReplaceContent(data)
	s.log.Info("area redacted",
		observability.Int(observability.MetricCharsRemoved, res.CharactersRemoved),
		observability.Int(observability.MetricOpsDropped, res.OperationsDropped),
		observability.Int(observability.MetricPathsClipped, res.PathsClipped),
		observability.Int(observability.MetricPolygonsKept, res.PolygonsKept))
	return res, nil
}

func maxPos(ops []contentstream.Operation) int {
	max := -1
	for _, op := range ops {
		if op.Pos() > max {
			max = op.Pos()
		}
	}
	return max
}

// synthesizePath re-serializes the clipped polygons with the original
// path's paint operator. The clipped rings are in device space, but the
// original cm operators survive the rebuild and apply again on
// reinterpretation, so the coordinates are written through the inverse
// CTM captured at paint time.
func synthesizePath(orig *contentstream.PathOperation, polys []clip.Polygon) *contentstream.PathOperation {
	toUser := coords.Identity()
	if orig.Graphics != nil {
		if inv, ok := orig.Graphics.CTM.Inverse(); ok {
			toUser = inv
		}
	}
	var buf bytes.Buffer
	subpaths := make([][]coords.Point, 0, len(polys))
	var pts []coords.Point
	for _, poly := range polys {
		for i, p := range poly {
			if i == 0 {
				writePoint(&buf, toUser.Apply(p), "m")
			} else {
				writePoint(&buf, toUser.Apply(p), "l")
			}
		}
		buf.WriteString("h\n")
		ring := append(append([]coords.Point(nil), poly...), poly[0])
		subpaths = append(subpaths, ring)
		pts = append(pts, poly...)
	}
	buf.WriteString(orig.Path.PaintOp)

	return &contentstream.PathOperation{
		Path: contentstream.CollectedPath{
			Subpaths: subpaths,
			PaintOp:  orig.Path.PaintOp,
		},
		Type:           orig.Type,
		BoundingBox:    coords.BoundsOf(pts...),
		Raw:            buf.Bytes(),
		Graphics:       orig.Graphics,
		StreamPosition: orig.StreamPosition,
	}
}

func writePoint(buf *bytes.Buffer, p coords.Point, op string) {
	buf.WriteString(contentstream.FormatNumber(p.X))
	buf.WriteByte(' ')
	buf.WriteString(contentstream.FormatNumber(p.Y))
	buf.WriteByte(' ')
	buf.WriteString(op)
	buf.WriteByte('\n')
}

// confirmationBox builds the appended opaque black rectangle inside its
// own q/Q pair so it always paints last and reparses cleanly.
func confirmationBox(area coords.Rectangle, pos int) contentstream.Operation {
	var buf bytes.Buffer
	buf.WriteString("q\n0 g\n")
	buf.WriteString(contentstream.FormatNumber(area.Left))
	buf.WriteByte(' ')
	buf.WriteString(contentstream.FormatNumber(area.Bottom))
	buf.WriteByte(' ')
	buf.WriteString(contentstream.FormatNumber(area.Width()))
	buf.WriteByte(' ')
	buf.WriteString(contentstream.FormatNumber(area.Height()))
	buf.WriteString(" re\nf\nQ")
	return &contentstream.GenericOperation{
		Operator:       "q",
		Raw:            buf.Bytes(),
		StreamPosition: pos,
	}
}
