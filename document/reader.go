package document

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"

	"github.com/wudi/redactkit/contentstream"
	"github.com/wudi/redactkit/fonts"
)

var (
	// ErrNotPDF is returned when the data has no PDF header.
	ErrNotPDF = errors.New("document: missing %PDF header")
	// ErrNoPages is returned when no page tree can be found.
	ErrNoPages = errors.New("document: no pages")
)

// Load parses a linearly-written PDF: all indirect objects are scanned in
// file order, the page tree is walked from the catalog, and content
// streams are decoded (FlateDecode or plain). Objects the engine does not
// model are kept verbatim for Save.
func Load(data []byte) (*Document, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, ErrNotPDF
	}
	objs := scanObjects(data)
	if len(objs) == 0 {
		return nil, ErrNoPages
	}
	byNum := make(map[int]*object, len(objs))
	for _, o := range objs {
		byNum[o.num] = o
	}

	d := &Document{objects: objs}
	var pagesRef Ref
	for _, o := range objs {
		if o.dict == nil {
			continue
		}
		if t, _ := o.dict["Type"].(Name); t == "Catalog" {
			d.rootNum = o.num
			if r, ok := o.dict["Pages"].(Ref); ok {
				pagesRef = r
			}
			break
		}
	}
	if d.rootNum == 0 {
		return nil, ErrNoPages
	}
	if err := d.walkPages(byNum, pagesRef, nil, nil); err != nil {
		return nil, err
	}
	if len(d.pages) == 0 {
		return nil, ErrNoPages
	}
	return d, nil
}

// walkPages descends the page tree, carrying inheritable attributes.
func (d *Document) walkPages(byNum map[int]*object, ref Ref, mediaBox Array, res Dict) error {
	dict, ok := resolve(byNum, ref).(Dict)
	if !ok {
		return fmt.Errorf("document: object %d is not a page node", ref.Num)
	}
	if mb, ok := resolve(byNum, dict["MediaBox"]).(Array); ok {
		mediaBox = mb
	}
	if r, ok := resolve(byNum, dict["Resources"]).(Dict); ok {
		res = r
	}
	switch t, _ := dict["Type"].(Name); t {
	case "Pages":
		kids, _ := resolve(byNum, dict["Kids"]).(Array)
		for _, kid := range kids {
			r, ok := kid.(Ref)
			if !ok {
				continue
			}
			if err := d.walkPages(byNum, r, mediaBox, res); err != nil {
				return err
			}
		}
		return nil
	case "Page":
		return d.appendPage(byNum, dict, mediaBox, res)
	}
	return nil
}

func (d *Document) appendPage(byNum map[int]*object, dict Dict, mediaBox Array, res Dict) error {
	width, height := 612.0, 792.0
	if len(mediaBox) == 4 {
		if x0, ok := asFloat(mediaBox[0]); ok {
			if y0, ok2 := asFloat(mediaBox[1]); ok2 {
				if x1, ok3 := asFloat(mediaBox[2]); ok3 {
					if y1, ok4 := asFloat(mediaBox[3]); ok4 {
						width, height = x1-x0, y1-y0
					}
				}
			}
		}
	}

	content, contentNums := pageContent(byNum, dict["Contents"])
	p := &Page{
		width:       width,
		height:      height,
		content:     content,
		contentNums: contentNums,
		resources:   &contentstream.Resources{Fonts: fontsFromResources(byNum, res)},
	}
	d.pages = append(d.pages, p)
	return nil
}

// pageContent concatenates the decoded content streams and returns the
// object numbers of the streams for write-back.
func pageContent(byNum map[int]*object, v Value) ([]byte, []int) {
	switch t := v.(type) {
	case Ref:
		if o := byNum[t.Num]; o != nil && o.stream != nil {
			return decodeStream(o), []int{o.num}
		}
	case Array:
		var buf bytes.Buffer
		var nums []int
		for _, item := range t {
			r, ok := item.(Ref)
			if !ok {
				continue
			}
			o := byNum[r.Num]
			if o == nil || o.stream == nil {
				continue
			}
			nums = append(nums, o.num)
			buf.Write(decodeStream(o))
			buf.WriteByte('\n')
		}
		return buf.Bytes(), nums
	}
	return nil, nil
}

// decodeStream applies FlateDecode when declared, as a bare name or a
// one-element filter array; anything else passes through raw.
func decodeStream(o *object) []byte {
	f := o.dict["Filter"]
	if arr, ok := f.(Array); ok && len(arr) == 1 {
		f = arr[0]
	}
	if name, _ := f.(Name); name != "FlateDecode" {
		return o.stream
	}
	zr, err := zlib.NewReader(bytes.NewReader(o.stream))
	if err != nil {
		return o.stream
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return o.stream
	}
	return out
}

func fontsFromResources(byNum map[int]*object, res Dict) map[string]*fonts.Font {
	fontDict, ok := resolve(byNum, res["Font"]).(Dict)
	if !ok {
		return nil
	}
	out := make(map[string]*fonts.Font, len(fontDict))
	for name, v := range fontDict {
		fd, ok := resolve(byNum, v).(Dict)
		if !ok {
			continue
		}
		f := &fonts.Font{Name: name}
		if bf, ok := fd["BaseFont"].(Name); ok {
			f.BaseFont = string(bf)
		}
		if st, ok := fd["Subtype"].(Name); ok {
			f.Subtype = string(st)
		}
		if fc, ok := asFloat(fd["FirstChar"]); ok {
			f.FirstChar = int(fc)
		}
		if ws, ok := resolve(byNum, fd["Widths"]).(Array); ok {
			for _, wv := range ws {
				if w, ok := asFloat(wv); ok {
					f.Widths = append(f.Widths, w)
				}
			}
		}
		if desc, ok := resolve(byNum, fd["FontDescriptor"]).(Dict); ok {
			if a, ok := asFloat(desc["Ascent"]); ok {
				f.Ascent = a
			}
			if de, ok := asFloat(desc["Descent"]); ok {
				f.Descent = de
			}
			for _, key := range []string{"FontFile2", "FontFile3", "FontFile"} {
				if r, ok := desc[key].(Ref); ok {
					if o := byNum[r.Num]; o != nil && o.stream != nil {
						f.FontFile = decodeStream(o)
						break
					}
				}
			}
		}
		out[name] = f
	}
	return out
}

func resolve(byNum map[int]*object, v Value) Value {
	if r, ok := v.(Ref); ok {
		if o := byNum[r.Num]; o != nil {
			return o.val()
		}
		return nil
	}
	return v
}

func (o *object) val() Value {
	if o.dict != nil {
		return o.dict
	}
	return o.body
}

func asFloat(v Value) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

// scanObjects walks the file for "N G obj ... endobj" spans.
func scanObjects(data []byte) []*object {
	var objs []*object
	search := 0
	for {
		idx := indexToken(data, search, "obj")
		if idx < 0 {
			break
		}
		numStart, num, ok := objectHeader(data, idx)
		if !ok {
			search = idx + 3
			continue
		}
		o, end := parseObjectBody(data, numStart, num, idx+3)
		if o == nil {
			search = idx + 3
			continue
		}
		objs = append(objs, o)
		search = end
	}
	return objs
}

// indexToken finds keyword as a standalone token at or after from.
func indexToken(data []byte, from int, keyword string) int {
	kw := []byte(keyword)
	for {
		i := bytes.Index(data[from:], kw)
		if i < 0 {
			return -1
		}
		i += from
		prevOK := i == 0 || !isRegular(data[i-1])
		next := i + len(kw)
		nextOK := next >= len(data) || !isRegular(data[next])
		if prevOK && nextOK {
			return i
		}
		from = i + len(kw)
	}
}

func isRegular(c byte) bool {
	return !(c == 0 || c == '\t' || c == '\n' || c == '\f' || c == '\r' || c == ' ' ||
		c == '(' || c == ')' || c == '<' || c == '>' || c == '[' || c == ']' ||
		c == '{' || c == '}' || c == '/' || c == '%')
}

// objectHeader backtracks over "N G " before the obj keyword.
func objectHeader(data []byte, objIdx int) (start, num int, ok bool) {
	i := objIdx - 1
	skipWS := func() {
		for i >= 0 && (data[i] == ' ' || data[i] == '\r' || data[i] == '\n' || data[i] == '\t') {
			i--
		}
	}
	digits := func() (int, bool) {
		end := i
		for i >= 0 && data[i] >= '0' && data[i] <= '9' {
			i--
		}
		if i == end {
			return 0, false
		}
		v := 0
		for _, c := range data[i+1 : end+1] {
			v = v*10 + int(c-'0')
		}
		return v, true
	}
	skipWS()
	if _, ok := digits(); !ok { // generation
		return 0, 0, false
	}
	skipWS()
	n, ok2 := digits()
	if !ok2 {
		return 0, 0, false
	}
	return i + 1, n, true
}

// parseObjectBody parses one object starting after the obj keyword and
// returns the object plus the offset past endobj.
func parseObjectBody(data []byte, numStart, num, bodyStart int) (*object, int) {
	op := newObjParser(data[bodyStart:])
	body, err := op.parseValue()
	if err != nil {
		return nil, 0
	}
	pos := bodyStart + op.offset()
	pos = skipWS(data, pos)

	var stream []byte
	dict, _ := body.(Dict)
	if dict != nil && hasPrefixAt(data, pos, "stream") {
		pos += len("stream")
		if pos < len(data) && data[pos] == '\r' {
			pos++
		}
		if pos < len(data) && data[pos] == '\n' {
			pos++
		}
		end := -1
		if ln, ok := asFloat(dict["Length"]); ok {
			cand := pos + int(ln)
			if cand <= len(data) && indexToken(data, cand, "endstream") >= 0 {
				end = cand
			}
		}
		if end < 0 {
			end = indexToken(data, pos, "endstream")
			if end < 0 {
				return nil, 0
			}
			for end > pos && (data[end-1] == '\n' || data[end-1] == '\r') {
				end--
			}
		}
		stream = data[pos:end]
		pos = indexToken(data, end, "endstream") + len("endstream")
	}

	endIdx := indexToken(data, pos, "endobj")
	if endIdx < 0 {
		return nil, 0
	}
	end := endIdx + len("endobj")
	return &object{
		num:    num,
		raw:    data[numStart:end],
		dict:   dict,
		body:   body,
		stream: stream,
	}, end
}

func skipWS(data []byte, pos int) int {
	for pos < len(data) {
		c := data[pos]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == 0 || c == '\f' {
			pos++
			continue
		}
		if c == '%' {
			for pos < len(data) && data[pos] != '\n' && data[pos] != '\r' {
				pos++
			}
			continue
		}
		break
	}
	return pos
}

func hasPrefixAt(data []byte, pos int, s string) bool {
	return pos+len(s) <= len(data) && string(data[pos:pos+len(s)]) == s
}

// objParser builds object values from content-stream tokens.
type objParser struct {
	lex *contentstream.Lexer
	buf []contentstream.Token
}

func newObjParser(data []byte) *objParser {
	return &objParser{lex: contentstream.NewLexer(data)}
}

func (p *objParser) offset() int {
	if len(p.buf) > 0 {
		return p.buf[len(p.buf)-1].Pos
	}
	return p.lex.Offset()
}

func (p *objParser) next() (contentstream.Token, error) {
	if n := len(p.buf); n > 0 {
		t := p.buf[n-1]
		p.buf = p.buf[:n-1]
		return t, nil
	}
	return p.lex.Next()
}

func (p *objParser) unread(t contentstream.Token) { p.buf = append(p.buf, t) }

func (p *objParser) parseValue() (Value, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case contentstream.TokenNumber:
		return p.numberOrRef(tok)
	case contentstream.TokenName:
		return Name(tok.Name), nil
	case contentstream.TokenString, contentstream.TokenHexString:
		return tok.Str, nil
	case contentstream.TokenArrayOpen:
		var arr Array
		for {
			t, err := p.next()
			if err != nil {
				return arr, nil
			}
			if t.Kind == contentstream.TokenArrayClose {
				return arr, nil
			}
			p.unread(t)
			v, err := p.parseValue()
			if err != nil {
				return arr, nil
			}
			arr = append(arr, v)
		}
	case contentstream.TokenDictOpen:
		d := Dict{}
		for {
			t, err := p.next()
			if err != nil {
				return d, nil
			}
			if t.Kind == contentstream.TokenDictClose {
				return d, nil
			}
			if t.Kind != contentstream.TokenName {
				continue
			}
			v, err := p.parseValue()
			if err != nil {
				return d, nil
			}
			d[t.Name] = v
		}
	case contentstream.TokenKeyword:
		switch string(tok.Raw) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null":
			return nil, nil
		}
		return nil, fmt.Errorf("document: unexpected keyword %q", tok.Raw)
	}
	return nil, fmt.Errorf("document: unexpected token")
}

// numberOrRef recognizes the "N G R" indirect reference pattern.
func (p *objParser) numberOrRef(first contentstream.Token) (Value, error) {
	second, err := p.next()
	if err != nil {
		return first.Num, nil
	}
	if second.Kind != contentstream.TokenNumber {
		p.unread(second)
		return first.Num, nil
	}
	third, err := p.next()
	if err != nil {
		p.unread(second)
		return first.Num, nil
	}
	if third.Kind == contentstream.TokenKeyword && string(third.Raw) == "R" {
		return Ref{Num: int(first.Num), Gen: int(second.Num)}, nil
	}
	p.unread(third)
	p.unread(second)
	return first.Num, nil
}
