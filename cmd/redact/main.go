package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wudi/redactkit/coords"
	"github.com/wudi/redactkit/document"
	"github.com/wudi/redactkit/observability"
	"github.com/wudi/redactkit/redact"
	"github.com/wudi/redactkit/report"
)

type options struct {
	inPath     string
	outPath    string
	page       int
	rects      []coords.Rectangle
	terms      []string
	tolerance  float64
	reportPath string
	verbose    bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "redact: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "redact: %v\n", err)
		os.Exit(1)
	}
}

// rectList parses repeated -rect x0,y0,x1,y1 flags in PDF points.
type rectList []coords.Rectangle

func (r *rectList) String() string { return fmt.Sprintf("%v", []coords.Rectangle(*r)) }

func (r *rectList) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return fmt.Errorf("rect wants x0,y0,x1,y1, got %q", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fmt.Errorf("rect coordinate %q: %v", p, err)
		}
		vals[i] = v
	}
	*r = append(*r, coords.Rect(vals[0], vals[1], vals[2], vals[3]))
	return nil
}

func parseFlags() (options, error) {
	var opts options
	var rects rectList
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: go run ./cmd/redact [flags] -rect x0,y0,x1,y1 <pdf>\n")
		flag.PrintDefaults()
	}
	out := flag.String("out", "", "Output path (default: <input>.redacted.pdf)")
	page := flag.Int("page", 1, "1-based page number to redact")
	flag.Var(&rects, "rect", "Area to redact in PDF points, x0,y0,x1,y1 (repeatable)")
	verify := flag.String("verify", "", "Comma-separated terms that must be gone from the output")
	tolerance := flag.Float64("tolerance", 0, "Glyph matching tolerance in points (0 = default)")
	reportPath := flag.String("report", "", "Write an HTML audit report to this path")
	verbose := flag.Bool("v", false, "Log redaction progress to stderr")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return options{}, fmt.Errorf("missing pdf path")
	}
	if len(rects) == 0 {
		return options{}, fmt.Errorf("at least one -rect is required")
	}
	opts.inPath = flag.Arg(0)
	opts.outPath = *out
	if opts.outPath == "" {
		opts.outPath = strings.TrimSuffix(opts.inPath, ".pdf") + ".redacted.pdf"
	}
	opts.page = *page
	opts.rects = rects
	if *verify != "" {
		for _, t := range strings.Split(*verify, ",") {
			if t = strings.TrimSpace(t); t != "" {
				opts.terms = append(opts.terms, t)
			}
		}
	}
	opts.tolerance = *tolerance
	opts.reportPath = *reportPath
	opts.verbose = *verbose
	return opts, nil
}

func run(opts options) error {
	data, err := os.ReadFile(opts.inPath)
	if err != nil {
		return err
	}
	doc, err := document.Load(data)
	if err != nil {
		return fmt.Errorf("load %s: %w", opts.inPath, err)
	}
	pages := doc.Pages()
	if opts.page < 1 || opts.page > len(pages) {
		return fmt.Errorf("page %d out of range (document has %d)", opts.page, len(pages))
	}

	var log observability.Logger = observability.NopLogger{}
	if opts.verbose {
		log = observability.NewWriterLogger(os.Stderr)
	}
	svcOpts := []redact.Option{redact.WithLogger(log)}
	if opts.tolerance > 0 {
		svcOpts = append(svcOpts, redact.WithTolerance(opts.tolerance))
	}
	svc := redact.NewService(svcOpts...)

	audit := &report.Audit{File: opts.inPath, When: time.Now()}
	for _, rect := range opts.rects {
		res, err := svc.RedactArea(pages[opts.page-1], rect)
		if err != nil {
			return fmt.Errorf("redact page %d: %w", opts.page, err)
		}
		audit.Areas = append(audit.Areas, report.AreaResult{
			Page:   opts.page,
			Rect:   fmt.Sprintf("(%g,%g)-(%g,%g)", rect.Left, rect.Bottom, rect.Right, rect.Top),
			Result: res,
		})
	}

	saved, err := doc.Save()
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err := os.WriteFile(opts.outPath, saved, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d bytes)\n", opts.outPath, len(saved))

	if len(opts.terms) > 0 {
		verifier := redact.NewVerifier(redact.WithVerifierLogger(log))
		audit.Verification = verifier.Verify(saved, opts.terms)
	}
	if opts.reportPath != "" {
		html, err := audit.HTML()
		if err != nil {
			return fmt.Errorf("report: %w", err)
		}
		if err := os.WriteFile(opts.reportPath, html, 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", opts.reportPath)
	}
	if audit.Verification != nil && !audit.Verification.OK() {
		return fmt.Errorf("verification failed: %s", failureSummary(audit.Verification))
	}
	return nil
}

// failureSummary names every failed check and its term so a non-verbose
// run still reports what leaked.
func failureSummary(v *redact.VerifyResult) string {
	fails := v.Failures()
	parts := make([]string, 0, len(fails))
	for _, c := range fails {
		s := c.Name
		if c.Term != "" {
			s += " " + strconv.Quote(c.Term)
		}
		parts = append(parts, s+" ("+c.Detail+")")
	}
	return strings.Join(parts, "; ")
}
