package output

import (
	"fmt"
	"io"
	"strings"
)

// TextWriter outputs a human-readable terminal summary.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, doc *Document) error {
	ew := &errWriter{w: w}

	ew.println("API compatibility check")
	ew.printf("Baseline:  %s\n", doc.Baseline)
	ew.printf("Candidate: %s\n", doc.Candidate)
	if doc.ReportPath != "" {
		ew.printf("Report:    %s\n", doc.ReportPath)
	}
	ew.println(strings.Repeat("─", 60))
	ew.printf("Verdict: %s (%s)\n", verdictLabel(doc.Passed), doc.Verdict)
	ew.printf("Findings: %d total", doc.Total)
	if len(doc.Categories) > 0 {
		ew.printf(" in %d categories", len(doc.Categories))
	}
	ew.println("")
	ew.println(strings.Repeat("─", 60))

	if doc.Total == 0 {
		if doc.Passed {
			ew.println("\nNo API breakage found.")
		} else {
			ew.printf("\nReport fingerprint %s does not match an empty report.\n", doc.Fingerprint)
		}
		return ew.err
	}

	for _, cat := range doc.Categories {
		ew.printf("\n%s (%d)\n", cat.Name, len(cat.Findings))
		ew.println(strings.Repeat("─", 40))
		for _, f := range cat.Findings {
			ew.printf("  %s\n", f)
		}
	}

	return ew.err
}

func verdictLabel(passed bool) string {
	if passed {
		return "PASS"
	}
	return "BREAKING"
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
