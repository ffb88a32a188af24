package contentstream

import (
	"errors"

	"github.com/wudi/redactkit/coords"
)

// ErrNilPage is returned by Parse when page is nil.
var ErrNilPage = errors.New("contentstream: nil page")

// Parse tokenizes the page's content stream into an ordered operation
// list while tracking graphics and text state. A page with no content
// yields an empty list. Malformed operators never abort the parse; they
// are preserved verbatim as GenericOperations so a later rebuild cannot
// corrupt unrelated content.
func Parse(page Page) ([]Operation, error) {
	if page == nil {
		return nil, ErrNilPage
	}
	data := page.Content()
	if len(data) == 0 {
		return []Operation{}, nil
	}
	p := &parser{
		data: data,
		lex:  NewLexer(data),
		res:  page.Resources(),
		gs:   NewGraphicsState(),
		ts:   NewTextState(),
	}
	p.spanStart = -1
	p.run()
	return p.ops, nil
}

type parser struct {
	data []byte
	lex  *Lexer
	res  *Resources

	gs      *GraphicsState
	ts      *TextState
	gsStack []*GraphicsState

	ops       []Operation
	operands  []Token
	spanStart int

	path *pathBuilder
}

type pathBuilder struct {
	start    int
	segments []PathSegment
	subpaths [][]coords.Point
	cur      []coords.Point
	clip     bool
	onlyRe   bool
	reCount  int
}

func (p *parser) run() {
	for {
		tok, err := p.lex.Next()
		if err != nil {
			break // the lexer only fails with io.EOF
		}
		switch tok.Kind {
		case TokenKeyword:
			p.operator(tok)
		case TokenInlineImage:
			p.flushDangling()
			p.flushPath(tok.Pos)
			b := p.unitSquareBounds()
			p.ops = append(p.ops, &InlineImageOperation{
				Raw:            tok.Raw,
				Bounds:         b,
				StreamPosition: len(p.ops),
				Length:         len(tok.Raw),
			})
		default:
			if p.spanStart < 0 {
				p.spanStart = tok.Pos
			}
			p.operands = append(p.operands, tok)
		}
	}
	p.flushDangling()
	p.flushPath(len(p.data))
}

// flushDangling turns pending operands with no operator into an
// operator-less GenericOperation; Build drops those silently.
func (p *parser) flushDangling() {
	if p.spanStart < 0 {
		return
	}
	end := p.lex.Offset()
	p.ops = append(p.ops, &GenericOperation{
		Operator:       "",
		Raw:            p.data[p.spanStart:end],
		StreamPosition: len(p.ops),
	})
	p.clearOperands()
}

// flushPath emits an unterminated path group verbatim so a truncated
// stream round-trips unchanged.
func (p *parser) flushPath(end int) {
	if p.path == nil {
		return
	}
	p.ops = append(p.ops, &GenericOperation{
		Operator:       "path",
		Raw:            p.data[p.path.start:end],
		StreamPosition: len(p.ops),
	})
	p.path = nil
}

func (p *parser) clearOperands() {
	p.operands = p.operands[:0]
	p.spanStart = -1
}

// span returns the source bytes from the first pending operand through the
// operator token.
func (p *parser) span(tok Token) []byte {
	start := p.spanStart
	if start < 0 {
		start = tok.Pos
	}
	return p.data[start:tok.End()]
}

func (p *parser) floats() []float64 {
	out := make([]float64, 0, len(p.operands))
	for _, t := range p.operands {
		if t.Kind == TokenNumber {
			out = append(out, t.Num)
		}
	}
	return out
}

func (p *parser) generic(tok Token) {
	p.ops = append(p.ops, &GenericOperation{
		Operator:       string(tok.Raw),
		Raw:            p.span(tok),
		StreamPosition: len(p.ops),
	})
	p.clearOperands()
}

func (p *parser) operator(tok Token) {
	op := string(tok.Raw)

	if isPathConstruction(op) {
		p.pathConstruction(op, tok)
		return
	}
	if isPaint(op) {
		if p.path != nil {
			p.finishPath(op, tok)
			return
		}
		// paint with no path: pass through untouched
		p.generic(tok)
		return
	}

	switch op {
	case "q":
		p.gsStack = append(p.gsStack, p.gs.Clone())
	case "Q":
		// unmatched Q is a no-op
		if n := len(p.gsStack); n > 0 {
			p.gs = p.gsStack[n-1]
			p.gsStack = p.gsStack[:n-1]
		}
	case "cm":
		if f := p.floats(); len(f) == 6 {
			m := coords.Matrix{f[0], f[1], f[2], f[3], f[4], f[5]}
			p.gs.CTM = m.Multiply(p.gs.CTM)
		}
	case "w":
		if f := p.floats(); len(f) == 1 {
			p.gs.LineWidth = f[0]
		}
	case "d":
		f := p.floats()
		if len(f) >= 1 {
			p.gs.DashPhase = f[len(f)-1]
			p.gs.DashPattern = append([]float64(nil), f[:len(f)-1]...)
		}
	case "g":
		if f := p.floats(); len(f) == 1 {
			p.gs.FillColor = &Color{Space: "DeviceGray", Components: f}
		}
	case "G":
		if f := p.floats(); len(f) == 1 {
			p.gs.StrokeColor = &Color{Space: "DeviceGray", Components: f}
		}
	case "rg":
		if f := p.floats(); len(f) == 3 {
			p.gs.FillColor = &Color{Space: "DeviceRGB", Components: f}
		}
	case "RG":
		if f := p.floats(); len(f) == 3 {
			p.gs.StrokeColor = &Color{Space: "DeviceRGB", Components: f}
		}
	case "k":
		if f := p.floats(); len(f) == 4 {
			p.gs.FillColor = &Color{Space: "DeviceCMYK", Components: f}
		}
	case "K":
		if f := p.floats(); len(f) == 4 {
			p.gs.StrokeColor = &Color{Space: "DeviceCMYK", Components: f}
		}
	case "BT":
		p.ts.ResetMatrices()
	case "ET":
		// nothing to restore; matrices reset at the next BT
	case "Tf":
		if len(p.operands) >= 2 {
			name := p.operands[len(p.operands)-2]
			size := p.operands[len(p.operands)-1]
			if name.Kind == TokenName && size.Kind == TokenNumber {
				p.ts.FontName = name.Name
				p.ts.FontSize = size.Num
				p.ts.Font = p.res.Font(name.Name)
			}
		}
	case "Tc":
		if f := p.floats(); len(f) == 1 {
			p.ts.CharSpacing = f[0]
		}
	case "Tw":
		if f := p.floats(); len(f) == 1 {
			p.ts.WordSpacing = f[0]
		}
	case "Tz":
		if f := p.floats(); len(f) == 1 {
			p.ts.HScale = f[0]
		}
	case "TL":
		if f := p.floats(); len(f) == 1 {
			p.ts.Leading = f[0]
		}
	case "Ts":
		if f := p.floats(); len(f) == 1 {
			p.ts.Rise = f[0]
		}
	case "Tr":
		if f := p.floats(); len(f) == 1 {
			p.ts.RenderMode = int(f[0])
		}
	case "Td":
		if f := p.floats(); len(f) == 2 {
			p.ts.TranslateText(f[0], f[1])
		}
	case "TD":
		if f := p.floats(); len(f) == 2 {
			p.ts.Leading = -f[1]
			p.ts.TranslateText(f[0], f[1])
		}
	case "Tm":
		if f := p.floats(); len(f) == 6 {
			p.ts.SetTextMatrix(coords.Matrix{f[0], f[1], f[2], f[3], f[4], f[5]})
		}
	case "T*":
		p.ts.MoveToNextLine()
	case "Tj":
		p.showText(tok, nil)
		return
	case "'":
		p.ts.MoveToNextLine()
		p.showText(tok, nil)
		return
	case "\"":
		if f := p.floats(); len(f) == 2 {
			p.ts.WordSpacing = f[0]
			p.ts.CharSpacing = f[1]
		}
		p.ts.MoveToNextLine()
		p.showText(tok, nil)
		return
	case "TJ":
		p.showText(tok, p.arrayItems())
		return
	}

	p.generic(tok)
}

// arrayItems returns the tokens between the outermost [ and ], or nil.
func (p *parser) arrayItems() []Token {
	start, end := -1, -1
	for i, t := range p.operands {
		if t.Kind == TokenArrayOpen && start < 0 {
			start = i
		}
		if t.Kind == TokenArrayClose {
			end = i
		}
	}
	if start < 0 || end <= start {
		return nil
	}
	return p.operands[start+1 : end]
}

// lastString returns the decoded bytes of the trailing string operand.
func (p *parser) lastString() ([]byte, bool) {
	for i := len(p.operands) - 1; i >= 0; i-- {
		t := p.operands[i]
		if t.Kind == TokenString || t.Kind == TokenHexString {
			return t.Str, true
		}
	}
	return nil, false
}

// showText emits a TextOperation for Tj/'/"/TJ. items is non-nil only for
// TJ. The text matrix advances past the shown string afterwards.
func (p *parser) showText(tok Token, items []Token) {
	var chunks []Token
	if items != nil {
		chunks = items
	} else {
		if s, ok := p.lastString(); ok {
			chunks = []Token{{Kind: TokenString, Str: s}}
		}
	}
	if chunks == nil {
		p.generic(tok)
		return
	}

	text, box, origin, advance := p.measureChunks(chunks)
	p.ops = append(p.ops, &TextOperation{
		Operator:       string(tok.Raw),
		Text:           text,
		Raw:            p.span(tok),
		BoundingBox:    box,
		Position:       origin,
		Graphics:       p.gs.Clone(),
		TextState:      p.ts.Clone(),
		StreamPosition: len(p.ops),
	})
	p.ts.TextMatrix = coords.Translate(advance, 0).Multiply(p.ts.TextMatrix)
	p.clearOperands()
}

// measureChunks walks the string/number items of a show operator,
// accumulating text, the PDF-space bounding box and the final text-space
// advance. TJ numbers shift the pen by -n/1000 em.
func (p *parser) measureChunks(chunks []Token) (string, coords.Rectangle, coords.Point, float64) {
	ts := p.ts
	h := ts.HScale / 100
	m := ts.TextMatrix.Multiply(p.gs.CTM)
	origin := m.Translation()

	var text []byte
	var x, minX, maxX float64
	for _, c := range chunks {
		switch c.Kind {
		case TokenString, TokenHexString:
			s := string(c.Str)
			text = append(text, c.Str...)
			adv := CharAdvances(s, ts)
			for i := range s {
				glyphEnd := x + adv[i] - ts.CharSpacing
				if glyphEnd > maxX {
					maxX = glyphEnd
				}
				x += adv[i]
				if x > maxX {
					maxX = x
				}
			}
		case TokenNumber:
			x -= c.Num / 1000 * ts.FontSize * h
			if x < minX {
				minX = x
			}
		}
	}

	if len(text) == 0 || ts.FontSize <= 0 {
		return string(text), coords.Rectangle{Left: origin.X, Bottom: origin.Y, Right: origin.X, Top: origin.Y}, origin, x
	}
	bottom, top := textExtents(ts)
	box := coords.BoundsOf(
		m.Apply(coords.Point{X: minX, Y: bottom}),
		m.Apply(coords.Point{X: maxX, Y: bottom}),
		m.Apply(coords.Point{X: minX, Y: top}),
		m.Apply(coords.Point{X: maxX, Y: top}),
	)
	return string(text), box, origin, x
}

func (p *parser) unitSquareBounds() coords.Rectangle {
	return coords.BoundsOf(
		p.gs.CTM.Apply(coords.Point{X: 0, Y: 0}),
		p.gs.CTM.Apply(coords.Point{X: 1, Y: 0}),
		p.gs.CTM.Apply(coords.Point{X: 0, Y: 1}),
		p.gs.CTM.Apply(coords.Point{X: 1, Y: 1}),
	)
}

func isPathConstruction(op string) bool {
	switch op {
	case "m", "l", "c", "v", "y", "h", "re", "W", "W*":
		return true
	}
	return false
}

func isPaint(op string) bool {
	switch op {
	case "S", "s", "f", "F", "f*", "B", "B*", "b", "b*", "n":
		return true
	}
	return false
}

func paintType(op string) PaintType {
	switch op {
	case "S", "s":
		return PaintStroke
	case "f", "F", "f*":
		return PaintFill
	case "B", "B*", "b", "b*":
		return PaintFillStroke
	}
	return PaintNone
}

func (p *parser) pathConstruction(op string, tok Token) {
	if p.path == nil {
		start := p.spanStart
		if start < 0 {
			start = tok.Pos
		}
		p.path = &pathBuilder{start: start, onlyRe: true}
	}
	pb := p.path
	f := p.floats()
	pb.segments = append(pb.segments, PathSegment{Operator: op, Args: f})
	if op != "re" {
		pb.onlyRe = false
	}

	ctm := p.gs.CTM
	switch op {
	case "m":
		if len(f) == 2 {
			pb.closeCurrent(false)
			pb.cur = []coords.Point{ctm.Apply(coords.Point{X: f[0], Y: f[1]})}
		}
	case "l":
		if len(f) == 2 && len(pb.cur) > 0 {
			pb.cur = append(pb.cur, ctm.Apply(coords.Point{X: f[0], Y: f[1]}))
		}
	case "c":
		if len(f) == 6 && len(pb.cur) > 0 {
			pb.appendCurve(
				ctm.Apply(coords.Point{X: f[0], Y: f[1]}),
				ctm.Apply(coords.Point{X: f[2], Y: f[3]}),
				ctm.Apply(coords.Point{X: f[4], Y: f[5]}),
			)
		}
	case "v":
		if len(f) == 4 && len(pb.cur) > 0 {
			// first control point coincides with the current point
			last := pb.cur[len(pb.cur)-1]
			pb.appendCurve(last, ctm.Apply(coords.Point{X: f[0], Y: f[1]}), ctm.Apply(coords.Point{X: f[2], Y: f[3]}))
		}
	case "y":
		if len(f) == 4 && len(pb.cur) > 0 {
			end := ctm.Apply(coords.Point{X: f[2], Y: f[3]})
			pb.appendCurve(ctm.Apply(coords.Point{X: f[0], Y: f[1]}), end, end)
		}
	case "h":
		pb.closeCurrent(true)
	case "re":
		if len(f) == 4 {
			pb.closeCurrent(false)
			x, y, w, hh := f[0], f[1], f[2], f[3]
			ring := []coords.Point{
				ctm.Apply(coords.Point{X: x, Y: y}),
				ctm.Apply(coords.Point{X: x + w, Y: y}),
				ctm.Apply(coords.Point{X: x + w, Y: y + hh}),
				ctm.Apply(coords.Point{X: x, Y: y + hh}),
				ctm.Apply(coords.Point{X: x, Y: y}),
			}
			pb.subpaths = append(pb.subpaths, ring)
			pb.reCount++
		}
	case "W", "W*":
		pb.clip = true
	}
	p.clearOperands()
}

func (pb *pathBuilder) closeCurrent(explicit bool) {
	if len(pb.cur) == 0 {
		return
	}
	ring := pb.cur
	if explicit && len(ring) > 1 {
		ring = append(ring, ring[0])
	}
	if len(ring) > 1 {
		pb.subpaths = append(pb.subpaths, ring)
	}
	if explicit {
		pb.cur = []coords.Point{ring[0]}
	} else {
		pb.cur = nil
	}
}

const curveSteps = 8

// appendCurve flattens a cubic from the current point with fixed
// subdivision. Control points are already in device space.
func (pb *pathBuilder) appendCurve(c1, c2, c3 coords.Point) {
	p0 := pb.cur[len(pb.cur)-1]
	for i := 1; i <= curveSteps; i++ {
		t := float64(i) / curveSteps
		u := 1 - t
		x := u*u*u*p0.X + 3*u*u*t*c1.X + 3*u*t*t*c2.X + t*t*t*c3.X
		y := u*u*u*p0.Y + 3*u*u*t*c1.Y + 3*u*t*t*c2.Y + t*t*t*c3.Y
		pb.cur = append(pb.cur, coords.Point{X: x, Y: y})
	}
}

func (p *parser) finishPath(paintOp string, tok Token) {
	pb := p.path
	p.path = nil
	if paintOp == "s" || paintOp == "b" || paintOp == "b*" {
		pb.closeCurrent(true)
	} else {
		pb.closeCurrent(false)
	}

	var pts []coords.Point
	for _, ring := range pb.subpaths {
		pts = append(pts, ring...)
	}
	var box coords.Rectangle
	if len(pts) > 0 {
		box = coords.BoundsOf(pts...)
	}

	p.ops = append(p.ops, &PathOperation{
		Path: CollectedPath{
			Segments:    pb.segments,
			Subpaths:    pb.subpaths,
			PaintOp:     paintOp,
			Clip:        pb.clip,
			IsRectangle: pb.onlyRe && pb.reCount == 1,
		},
		Type:           paintType(paintOp),
		BoundingBox:    box,
		Raw:            p.data[pb.start:tok.End()],
		Graphics:       p.gs.Clone(),
		StreamPosition: len(p.ops),
	})
	p.clearOperands()
}
