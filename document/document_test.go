package document

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wudi/redactkit/fonts"
)

func TestLoad_RejectsNonPDF(t *testing.T) {
	if _, err := Load([]byte("hello world")); err != ErrNotPDF {
		t.Fatalf("expected ErrNotPDF, got %v", err)
	}
	if _, err := Load([]byte("%PDF-1.7\ngarbage")); err == nil {
		t.Fatal("expected an error for a pageless file")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	doc := New()
	c1 := []byte("BT\n/F1 12 Tf\n72 700 Td\n(page one) Tj\nET")
	c2 := []byte("0 0 100 100 re\nf")
	doc.AddPage(612, 792, c1, nil)
	doc.AddPage(595, 842, c2, nil)

	data, err := doc.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(data)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	pages := loaded.Pages()
	if len(pages) != 2 {
		t.Fatalf("page count: %d", len(pages))
	}
	if pages[0].Width() != 612 || pages[0].Height() != 792 {
		t.Fatalf("page 1 size: %g x %g", pages[0].Width(), pages[0].Height())
	}
	if pages[1].Width() != 595 || pages[1].Height() != 842 {
		t.Fatalf("page 2 size: %g x %g", pages[1].Width(), pages[1].Height())
	}
	if !bytes.Equal(pages[0].Content(), c1) || !bytes.Equal(pages[1].Content(), c2) {
		t.Fatalf("content drifted: %q / %q", pages[0].Content(), pages[1].Content())
	}
}

func TestSaveLoad_FontRoundTrip(t *testing.T) {
	doc := New()
	f := &fonts.Font{
		Name:      "F1",
		BaseFont:  "Helvetica",
		Subtype:   "Type1",
		FirstChar: 32,
		Widths:    []float64{278, 278, 355, 556},
		Ascent:    718,
		Descent:   -207,
	}
	doc.AddPage(612, 792, []byte("BT ET"), map[string]*fonts.Font{"F1": f})

	data, err := doc.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(data)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := loaded.Pages()[0].Resources().Font("F1")
	if got == nil {
		t.Fatal("font resource missing after reload")
	}
	if got.BaseFont != "Helvetica" || got.Subtype != "Type1" || got.FirstChar != 32 {
		t.Fatalf("font identity: %+v", got)
	}
	if diff := cmp.Diff(f.Widths, got.Widths); diff != "" {
		t.Fatalf("widths mismatch (-want +got):\n%s", diff)
	}
	if got.Ascent != 718 || got.Descent != -207 {
		t.Fatalf("descriptor metrics: %+v", got)
	}
}

// flateFixture builds a one-page file whose content stream is
// zlib-compressed and declared with the given Filter value.
func flateFixture(t *testing.T, filter string, content []byte) []byte {
	t.Helper()
	var comp bytes.Buffer
	zw := zlib.NewWriter(&comp)
	if _, err := zw.Write(content); err != nil {
		t.Fatalf("compress: %v", err)
	}
	zw.Close()

	var file bytes.Buffer
	file.WriteString("%PDF-1.7\n")
	file.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	file.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	file.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> /Contents 4 0 R >>\nendobj\n")
	fmt.Fprintf(&file, "4 0 obj\n<< /Length %d /Filter %s >>\nstream\n", comp.Len(), filter)
	file.Write(comp.Bytes())
	file.WriteString("\nendstream\nendobj\n")
	file.WriteString("trailer\n<< /Size 5 /Root 1 0 R >>\n%%EOF\n")
	return file.Bytes()
}

func TestLoad_FlateDecodedContent(t *testing.T) {
	content := []byte("BT\n/F1 10 Tf\n10 700 Td\n(compressed) Tj\nET")
	doc, err := Load(flateFixture(t, "/FlateDecode", content))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !bytes.Equal(doc.Pages()[0].Content(), content) {
		t.Fatalf("decoded content: %q", doc.Pages()[0].Content())
	}
}

func TestLoad_FlateDecodeFilterArray(t *testing.T) {
	content := []byte("BT\n/F1 10 Tf\n10 700 Td\n(array filter) Tj\nET")
	doc, err := Load(flateFixture(t, "[/FlateDecode]", content))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !bytes.Equal(doc.Pages()[0].Content(), content) {
		t.Fatalf("decoded content: %q", doc.Pages()[0].Content())
	}
}

func TestLoad_InheritedMediaBox(t *testing.T) {
	file := []byte("%PDF-1.7\n" +
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n" +
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 300 400] >>\nendobj\n" +
		"3 0 obj\n<< /Type /Page /Parent 2 0 R /Contents 4 0 R >>\nendobj\n" +
		"4 0 obj\n<< /Length 5 >>\nstream\nBT ET\nendstream\nendobj\n")
	doc, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	p := doc.Pages()[0]
	if p.Width() != 300 || p.Height() != 400 {
		t.Fatalf("inherited size: %g x %g", p.Width(), p.Height())
	}
}

func TestReplaceContent_RewritePreservesOtherObjects(t *testing.T) {
	doc := New()
	doc.AddPage(612, 792, []byte("BT\n(one) Tj\nET"), nil)
	doc.AddPage(612, 792, []byte("BT\n(untouched) Tj\nET"), nil)
	data, err := doc.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(data)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	replacement := []byte("BT\n(rewritten) Tj\nET")
	loaded.Pages()[0].ReplaceContent(replacement)

	data2, err := loaded.Save()
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if bytes.Contains(data2, []byte("(one)")) {
		t.Fatal("replaced content still present")
	}
	if !bytes.Contains(data2, []byte("(untouched)")) {
		t.Fatal("unrelated content lost")
	}

	final, err := Load(data2)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !bytes.Equal(final.Pages()[0].Content(), replacement) {
		t.Fatalf("rewritten content: %q", final.Pages()[0].Content())
	}
	if !bytes.Equal(final.Pages()[1].Content(), []byte("BT\n(untouched) Tj\nET")) {
		t.Fatalf("second page content: %q", final.Pages()[1].Content())
	}
}

func TestSave_EmitsXrefAndTrailer(t *testing.T) {
	doc := New()
	doc.AddPage(612, 792, []byte("BT ET"), nil)
	data, err := doc.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	for _, marker := range []string{"%PDF-1.7", "xref", "trailer", "startxref", "%%EOF"} {
		if !bytes.Contains(data, []byte(marker)) {
			t.Fatalf("missing %q in output", marker)
		}
	}
}
