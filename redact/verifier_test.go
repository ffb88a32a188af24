package redact

import (
	"testing"

	"github.com/wudi/redactkit/coords"
	"github.com/wudi/redactkit/document"
)

func secretDoc(t *testing.T) (*document.Document, *document.Page) {
	t.Helper()
	doc := document.New()
	content := []byte("BT\n/F1 10 Tf\n10 700 Td\n(SUPER_SECRET_DATA) Tj\nET\nBT\n/F1 10 Tf\n10 600 Td\n(public line) Tj\nET")
	page := doc.AddPage(612, 792, content, nil)
	return doc, page
}

func TestVerify_CleanAfterRedaction(t *testing.T) {
	doc, page := secretDoc(t)
	if _, err := NewService().RedactArea(page, coords.Rect(0, 690, 200, 710)); err != nil {
		t.Fatalf("redact: %v", err)
	}
	saved, err := doc.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	res := NewVerifier().Verify(saved, []string{"SUPER_SECRET_DATA"})
	if !res.OK() {
		t.Fatalf("verification failed: %+v", res.Failures())
	}
	if len(res.Checks) == 0 {
		t.Fatal("no checks ran")
	}
}

func TestVerify_DetectsLeak(t *testing.T) {
	doc, _ := secretDoc(t)
	saved, err := doc.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	res := NewVerifier().Verify(saved, []string{"SUPER_SECRET_DATA"})
	if res.OK() {
		t.Fatal("unredacted term not detected")
	}
	names := map[string]bool{}
	for _, c := range res.Failures() {
		names[c.Name] = true
	}
	if !names["structural-extraction"] {
		t.Fatalf("structural scan missed the term: %v", names)
	}
	if !names["raw-byte-scan/latin1"] {
		t.Fatalf("raw byte scan missed the term: %v", names)
	}
}

func TestVerify_KeepsUnrelatedText(t *testing.T) {
	doc, page := secretDoc(t)
	if _, err := NewService().RedactArea(page, coords.Rect(0, 690, 200, 710)); err != nil {
		t.Fatalf("redact: %v", err)
	}
	saved, err := doc.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	// the public line must still be extractable from the saved file
	res := NewVerifier().Verify(saved, []string{"public line"})
	if res.OK() {
		t.Fatal("surviving text vanished from the output")
	}
}

func TestVerify_GarbageInput(t *testing.T) {
	res := NewVerifier().Verify([]byte("not a pdf at all"), []string{"x"})
	if res.OK() {
		t.Fatal("garbage input must fail the structure check")
	}
	var structural bool
	for _, c := range res.Failures() {
		if c.Name == "document-structure" {
			structural = true
		}
	}
	if !structural {
		t.Fatalf("structure check missing: %+v", res.Failures())
	}
}

func TestVerify_RoundTripThroughFile(t *testing.T) {
	doc, page := secretDoc(t)
	if _, err := NewService().RedactArea(page, coords.Rect(0, 690, 200, 710)); err != nil {
		t.Fatalf("redact: %v", err)
	}
	saved, err := doc.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	// a reloaded document can be redacted again and stays loadable
	doc2, err := document.Load(saved)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	page2 := doc2.Pages()[0]
	if _, err := NewService().RedactArea(page2, coords.Rect(0, 590, 200, 610)); err != nil {
		t.Fatalf("second redact: %v", err)
	}
	saved2, err := doc2.Save()
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	res := NewVerifier().Verify(saved2, []string{"SUPER_SECRET_DATA", "public line"})
	if !res.OK() {
		t.Fatalf("second pass leaked: %+v", res.Failures())
	}
}
