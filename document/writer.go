package document

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/wudi/redactkit/contentstream"
	"github.com/wudi/redactkit/fonts"
)

// Save serializes the document. A loaded document is rewritten with every
// source object byte-exact except replaced content streams, which come out
// uncompressed; a built document is written from scratch. The cross
// reference table and trailer are rebuilt in both cases.
func (d *Document) Save() ([]byte, error) {
	if d.objects != nil {
		return d.saveLoaded()
	}
	return d.saveBuilt()
}

func (d *Document) saveLoaded() ([]byte, error) {
	replaced := make(map[int][]byte)
	for _, p := range d.pages {
		if !p.dirty || len(p.contentNums) == 0 {
			continue
		}
		replaced[p.contentNums[0]] = p.content
		// remaining members of a Contents array are emptied so no stale
		// content survives
		for _, n := range p.contentNums[1:] {
			replaced[n] = nil
		}
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")
	offsets := make(map[int]int, len(d.objects))
	maxNum := 0
	for _, o := range d.objects {
		offsets[o.num] = buf.Len()
		if o.num > maxNum {
			maxNum = o.num
		}
		if content, ok := replaced[o.num]; ok {
			writeStreamObject(&buf, o.num, Dict{"Length": float64(len(content))}, content)
		} else {
			buf.Write(o.raw)
			buf.WriteByte('\n')
		}
	}
	writeTail(&buf, offsets, maxNum, d.rootNum)
	return buf.Bytes(), nil
}

func (d *Document) saveBuilt() ([]byte, error) {
	type rec struct {
		num    int
		dict   Dict
		stream []byte
	}
	var recs []rec
	next := 3 // 1 catalog, 2 page tree

	kids := make(Array, 0, len(d.pages))
	for _, p := range d.pages {
		pageNum := next
		contNum := next + 1
		next += 2
		kids = append(kids, Ref{Num: pageNum})

		fontDict := Dict{}
		for _, name := range sortedFontNames(p.resources) {
			f := p.resources.Fonts[name]
			fontNum := next
			next++
			fd := fontObjectDict(f)
			if f.Ascent != 0 || f.Descent != 0 {
				descNum := next
				next++
				fd["FontDescriptor"] = Ref{Num: descNum}
				recs = append(recs, rec{num: descNum, dict: descriptorDict(f)})
			}
			recs = append(recs, rec{num: fontNum, dict: fd})
			fontDict[name] = Ref{Num: fontNum}
		}

		pageDict := Dict{
			"Type":     Name("Page"),
			"Parent":   Ref{Num: 2},
			"MediaBox": Array{0.0, 0.0, p.width, p.height},
			"Contents": Ref{Num: contNum},
		}
		if len(fontDict) > 0 {
			pageDict["Resources"] = Dict{"Font": fontDict}
		} else {
			pageDict["Resources"] = Dict{}
		}
		recs = append(recs, rec{num: pageNum, dict: pageDict})
		recs = append(recs, rec{
			num:    contNum,
			dict:   Dict{"Length": float64(len(p.content))},
			stream: p.content,
		})
	}
	recs = append(recs, rec{num: 1, dict: Dict{"Type": Name("Catalog"), "Pages": Ref{Num: 2}}})
	recs = append(recs, rec{num: 2, dict: Dict{
		"Type":  Name("Pages"),
		"Kids":  kids,
		"Count": float64(len(d.pages)),
	}})
	sort.Slice(recs, func(i, j int) bool { return recs[i].num < recs[j].num })

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")
	offsets := make(map[int]int, len(recs))
	for _, r := range recs {
		offsets[r.num] = buf.Len()
		if r.stream != nil {
			writeStreamObject(&buf, r.num, r.dict, r.stream)
		} else {
			fmt.Fprintf(&buf, "%d 0 obj\n", r.num)
			writeValue(&buf, r.dict)
			buf.WriteString("\nendobj\n")
		}
	}
	writeTail(&buf, offsets, next-1, 1)
	return buf.Bytes(), nil
}

func sortedFontNames(res *contentstream.Resources) []string {
	if res == nil || len(res.Fonts) == 0 {
		return nil
	}
	names := make([]string, 0, len(res.Fonts))
	for name := range res.Fonts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func fontObjectDict(f *fonts.Font) Dict {
	base := f.BaseFont
	if base == "" {
		base = "Helvetica"
	}
	subtype := f.Subtype
	if subtype == "" {
		subtype = "Type1"
	}
	d := Dict{
		"Type":     Name("Font"),
		"Subtype":  Name(subtype),
		"BaseFont": Name(base),
	}
	if len(f.Widths) > 0 {
		widths := make(Array, len(f.Widths))
		for i, w := range f.Widths {
			widths[i] = w
		}
		d["FirstChar"] = float64(f.FirstChar)
		d["LastChar"] = float64(f.FirstChar + len(f.Widths) - 1)
		d["Widths"] = widths
	}
	return d
}

func descriptorDict(f *fonts.Font) Dict {
	base := f.BaseFont
	if base == "" {
		base = "Helvetica"
	}
	return Dict{
		"Type":        Name("FontDescriptor"),
		"FontName":    Name(base),
		"Flags":       32.0,
		"Ascent":      f.Ascent,
		"Descent":     f.Descent,
		"ItalicAngle": 0.0,
		"StemV":       0.0,
		"FontBBox":    Array{0.0, f.Descent, 1000.0, f.Ascent},
	}
}

func writeStreamObject(buf *bytes.Buffer, num int, dict Dict, stream []byte) {
	fmt.Fprintf(buf, "%d 0 obj\n", num)
	writeValue(buf, dict)
	buf.WriteString("\nstream\n")
	buf.Write(stream)
	buf.WriteString("\nendstream\nendobj\n")
}

func writeTail(buf *bytes.Buffer, offsets map[int]int, maxNum, rootNum int) {
	xref := buf.Len()
	fmt.Fprintf(buf, "xref\n0 %d\n", maxNum+1)
	buf.WriteString("0000000000 65535 f \n")
	for n := 1; n <= maxNum; n++ {
		if off, ok := offsets[n]; ok {
			fmt.Fprintf(buf, "%010d 00000 n \n", off)
		} else {
			buf.WriteString("0000000000 65535 f \n")
		}
	}
	fmt.Fprintf(buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		maxNum+1, rootNum, xref)
}

// writeValue serializes a Value in PDF syntax. Dictionary keys come out
// sorted so output is deterministic.
func writeValue(buf *bytes.Buffer, v Value) {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case float64:
		buf.WriteString(contentstream.FormatNumber(t))
	case Name:
		buf.WriteByte('/')
		buf.WriteString(string(t))
	case []byte:
		buf.WriteByte('(')
		buf.Write(contentstream.EscapeString(t))
		buf.WriteByte(')')
	case Ref:
		fmt.Fprintf(buf, "%d %d R", t.Num, t.Gen)
	case Array:
		buf.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				buf.WriteByte(' ')
			}
			writeValue(buf, item)
		}
		buf.WriteByte(']')
	case Dict:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteString("<< ")
		for _, k := range keys {
			buf.WriteByte('/')
			buf.WriteString(k)
			buf.WriteByte(' ')
			writeValue(buf, t[k])
			buf.WriteByte(' ')
		}
		buf.WriteString(">>")
	default:
		buf.WriteString("null")
	}
}
