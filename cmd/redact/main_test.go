package main

import (
	"strings"
	"testing"

	"github.com/wudi/redactkit/redact"
)

func TestFailureSummary_NamesEveryFailedCheck(t *testing.T) {
	v := &redact.VerifyResult{Checks: []redact.Check{
		{Name: "document-structure", Passed: true, Detail: "1 pages"},
		{Name: "structural-extraction", Term: "SECRET", Passed: false, Detail: "term recoverable from parsed text"},
		{Name: "raw-byte-scan/latin1", Term: "SECRET", Passed: false, Detail: "term present in raw file bytes"},
	}}

	s := failureSummary(v)
	if !strings.Contains(s, `structural-extraction "SECRET"`) {
		t.Fatalf("extraction check unnamed: %s", s)
	}
	if !strings.Contains(s, `raw-byte-scan/latin1 "SECRET"`) {
		t.Fatalf("byte-scan check unnamed: %s", s)
	}
	if !strings.Contains(s, "term recoverable from parsed text") {
		t.Fatalf("detail missing: %s", s)
	}
	if strings.Contains(s, "document-structure") {
		t.Fatalf("passed check reported as failed: %s", s)
	}
}
