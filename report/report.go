// Package report renders a redaction audit: which areas were cleared on
// which pages, what the verifier found, as markdown and as HTML.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/wudi/redactkit/redact"
)

// AreaResult is one redacted area with its per-call counters.
type AreaResult struct {
	Page   int // 1-based
	Rect   string
	Result *redact.Result
}

// Audit collects everything one redaction run did to one file.
type Audit struct {
	File         string
	When         time.Time
	Areas        []AreaResult
	Verification *redact.VerifyResult
}

// Markdown renders the audit as a GFM document. Removed text is never
// included; the report must be shareable without re-leaking the content
// it documents.
func (a *Audit) Markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Redaction audit: %s\n\n", a.File)
	if !a.When.IsZero() {
		fmt.Fprintf(&sb, "Generated %s\n\n", a.When.Format(time.RFC3339))
	}

	sb.WriteString("## Areas\n\n")
	if len(a.Areas) == 0 {
		sb.WriteString("No areas redacted.\n\n")
	} else {
		sb.WriteString("| Page | Area | Chars removed | Ops dropped | Paths clipped |\n")
		sb.WriteString("| --- | --- | --- | --- | --- |\n")
		for _, ar := range a.Areas {
			r := ar.Result
			if r == nil {
				r = &redact.Result{}
			}
			fmt.Fprintf(&sb, "| %d | %s | %d | %d | %d |\n",
				ar.Page, ar.Rect, r.CharactersRemoved, r.OperationsDropped, r.PathsClipped)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Verification\n\n")
	switch {
	case a.Verification == nil:
		sb.WriteString("Not run.\n")
	case a.Verification.OK():
		fmt.Fprintf(&sb, "All %d checks passed.\n", len(a.Verification.Checks))
	default:
		fmt.Fprintf(&sb, "**%d of %d checks FAILED.**\n\n",
			len(a.Verification.Failures()), len(a.Verification.Checks))
		for _, c := range a.Verification.Failures() {
			fmt.Fprintf(&sb, "- `%s`: %s\n", c.Name, c.Detail)
		}
	}
	return sb.String()
}

// HTML renders the markdown audit to HTML.
func (a *Audit) HTML() ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert([]byte(a.Markdown()), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
