package redact

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/wudi/redactkit/contentstream"
	"github.com/wudi/redactkit/document"
	"github.com/wudi/redactkit/extractor"
	"github.com/wudi/redactkit/observability"
)

// Check is one verification probe against the output file.
type Check struct {
	Name   string
	Term   string
	Passed bool
	Detail string
}

// VerifyResult is the outcome of a Verify call: every check that ran, in
// order.
type VerifyResult struct {
	Checks []Check
}

// OK reports whether every check passed.
func (r *VerifyResult) OK() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// Failures returns the failed checks.
func (r *VerifyResult) Failures() []Check {
	var out []Check
	for _, c := range r.Checks {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

// Verifier proves redaction worked on the final written bytes, not on
// in-memory state: it reloads the file, re-extracts its text, and scans
// the raw bytes for the removed terms under the encodings a PDF can carry
// text in. Verification is advisory; it cannot prove absence from
// encodings it does not model, only presence.
type Verifier struct {
	log observability.Logger
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithVerifierLogger installs a logger; the default is a no-op.
func WithVerifierLogger(l observability.Logger) VerifierOption {
	return func(v *Verifier) { v.log = l }
}

// NewVerifier returns a Verifier with the given options applied.
func NewVerifier(opts ...VerifierOption) *Verifier {
	v := &Verifier{log: observability.NopLogger{}}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Verify runs every check against the written file bytes. A failed check
// means the term is still recoverable and the redaction must be treated
// as failed.
func (v *Verifier) Verify(data []byte, terms []string) *VerifyResult {
	res := &VerifyResult{}

	doc, err := document.Load(data)
	if err != nil {
		res.Checks = append(res.Checks, Check{
			Name:   "document-structure",
			Passed: false,
			Detail: fmt.Sprintf("load failed: %v", err),
		})
	} else {
		res.Checks = append(res.Checks, Check{
			Name:   "document-structure",
			Passed: len(doc.Pages()) > 0,
			Detail: fmt.Sprintf("%d pages", len(doc.Pages())),
		})
	}

	if doc != nil {
		text := documentText(doc)
		for _, term := range terms {
			found := strings.Contains(text, term)
			res.Checks = append(res.Checks, Check{
				Name:   "structural-extraction",
				Term:   term,
				Passed: !found,
				Detail: detailFor(found, "term recoverable from parsed text"),
			})
		}
	}

	for _, term := range terms {
		for enc, probe := range encodedForms(term) {
			found := len(probe) > 0 && bytes.Contains(data, probe)
			res.Checks = append(res.Checks, Check{
				Name:   "raw-byte-scan/" + enc,
				Term:   term,
				Passed: !found,
				Detail: detailFor(found, "term present in raw file bytes"),
			})
		}
	}

	v.log.Info("verification finished",
		observability.Int(observability.MetricVerifyChecks, len(res.Checks)),
		observability.Int(observability.MetricVerifyLeaks, len(res.Failures())))
	for _, c := range res.Failures() {
		v.log.Error("redaction leak",
			observability.String("check", c.Name),
			observability.String("term", c.Term))
	}
	return res
}

func detailFor(found bool, failMsg string) string {
	if found {
		return failMsg
	}
	return "clean"
}

// documentText rebuilds everything a text extractor could still read:
// parsed text operations plus the glyph walk, across all pages.
func documentText(doc *document.Document) string {
	var sb strings.Builder
	for _, page := range doc.Pages() {
		if ops, err := contentstream.Parse(page); err == nil {
			for _, op := range ops {
				if t, ok := op.(*contentstream.TextOperation); ok {
					sb.WriteString(t.Text)
				}
			}
		}
		sb.WriteByte('\n')
		if glyphs, err := extractor.ExtractGlyphs(page); err == nil {
			for _, g := range glyphs {
				sb.WriteRune(g.Char)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// encodedForms returns the byte patterns a term takes under the string
// encodings PDF text objects use: Latin-1 for simple fonts and UTF-16BE
// for composite ones.
func encodedForms(term string) map[string][]byte {
	forms := make(map[string][]byte, 2)
	if latin1, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(term)); err == nil {
		forms["latin1"] = latin1
	}
	utf16 := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	if be, err := utf16.NewEncoder().Bytes([]byte(term)); err == nil {
		forms["utf16be"] = be
	}
	return forms
}
