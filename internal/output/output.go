package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dshills/apiguard/internal/report"
)

// Document is everything a writer needs to describe one check-api run.
type Document struct {
	Tool        string            `json:"tool"`
	Version     string            `json:"version"`
	RunID       string            `json:"runId"`
	Baseline    string            `json:"baseline"`
	Candidate   string            `json:"candidate"`
	ReportPath  string            `json:"reportPath"`
	Verdict     string            `json:"verdict"`
	Passed      bool              `json:"passed"`
	Fingerprint string            `json:"fingerprint"`
	Total       int               `json:"total"`
	Categories  []report.Category `json:"categories"`
}

// NewDocument summarizes r under the given verdict mode.
func NewDocument(r *report.BreakageReport, mode report.VerdictMode) *Document {
	return &Document{
		Tool:        "apiguard",
		ReportPath:  r.Path,
		Verdict:     string(mode),
		Passed:      r.Passed(mode),
		Fingerprint: r.Fingerprint,
		Total:       r.Total(),
		Categories:  r.Breakage(),
	}
}

// Writer writes a document in a specific format.
type Writer interface {
	Write(w io.Writer, doc *Document) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text":
		return &TextWriter{}, nil
	case "markdown":
		return &MarkdownWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "sarif":
		return &SARIFWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes doc to outPath, or to stdout when outPath is empty.
func WriteReport(stdout io.Writer, doc *Document, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	if outPath == "" {
		return writer.Write(stdout, doc)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := writer.Write(f, doc); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	return nil
}

// RenderSummary returns the markdown posted as a pull request comment.
func RenderSummary(doc *Document) string {
	var b strings.Builder
	// strings.Builder never fails to write.
	_ = (&MarkdownWriter{}).Write(&b, doc)
	return b.String()
}
