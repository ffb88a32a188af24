// Package document is the thin container layer around the redaction core:
// a minimal PDF file reader and writer covering the linear subset the
// engine and its verifier need. It is not a general object-model editor;
// unrelated objects are carried through byte-exact on rewrite.
package document

import (
	"github.com/wudi/redactkit/contentstream"
	"github.com/wudi/redactkit/fonts"
)

// Document is a loaded or programmatically built PDF.
type Document struct {
	pages []*Page

	// loaded-mode state: the source objects in file order, re-emitted
	// verbatim on save except for replaced content streams.
	objects []*object
	rootNum int
}

// Pages returns the document's pages in order.
func (d *Document) Pages() []*Page { return d.pages }

// Page is one page: content-stream bytes, the resource view the engine
// needs, and the page geometry in PDF points. It satisfies the redaction
// service's page contract.
type Page struct {
	width, height float64
	content       []byte
	resources     *contentstream.Resources

	contentNums []int // object numbers of the content streams when loaded
	dirty       bool
}

// Content returns the page's content-stream bytes.
func (p *Page) Content() []byte { return p.content }

// Resources returns the page's font resources.
func (p *Page) Resources() *contentstream.Resources { return p.resources }

// Height returns the page height in PDF points.
func (p *Page) Height() float64 { return p.height }

// Width returns the page width in PDF points.
func (p *Page) Width() float64 { return p.width }

// ReplaceContent swaps in a new content stream; Save writes it back
// uncompressed.
func (p *Page) ReplaceContent(b []byte) {
	p.content = b
	p.dirty = true
}

// New returns an empty document to build programmatically.
func New() *Document { return &Document{} }

// AddPage appends a page with the given size, content stream and font
// resources.
func (d *Document) AddPage(width, height float64, content []byte, pageFonts map[string]*fonts.Font) *Page {
	p := &Page{
		width:     width,
		height:    height,
		content:   content,
		resources: &contentstream.Resources{Fonts: pageFonts},
	}
	d.pages = append(d.pages, p)
	return p
}

// object is one indirect object of a loaded file.
type object struct {
	num    int
	raw    []byte // full "N 0 obj ... endobj" span
	dict   Dict   // nil for non-dict objects
	body   Value  // parsed body value
	stream []byte // raw (still encoded) stream payload, nil if none
}

// Value is a parsed PDF object body: float64, bool, []byte (strings),
// Name, Dict, Array, Ref or nil.
type Value interface{}

// Name is a PDF name without the slash.
type Name string

// Ref is an indirect reference.
type Ref struct{ Num, Gen int }

// Dict is a PDF dictionary.
type Dict map[string]Value

// Array is a PDF array.
type Array []Value
