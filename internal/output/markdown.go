package output

import (
	"io"
	"strings"
)

// MarkdownWriter renders the condensed, category-grouped summary used for
// pull request comments.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, doc *Document) error {
	ew := &errWriter{w: w}

	if doc.Passed {
		ew.println("**API compatibility report:** ✅")
		return ew.err
	}

	ew.println("## API compatibility report: ❌")
	for _, cat := range doc.Categories {
		ew.printf("#### %s\n", cat.Name)
		for _, f := range cat.Findings {
			ew.printf("* %s\n", inlineCode(f))
		}
	}
	if doc.Total == 0 {
		ew.println("")
		ew.println("The report differs from an empty report but lists no findings; check it for formatting changes.")
	}
	return ew.err
}

// inlineCode wraps s in backticks, widening the fence when s contains one.
func inlineCode(s string) string {
	fence := "`"
	for strings.Contains(s, fence) {
		fence += "`"
	}
	if len(fence) > 1 {
		return fence + " " + s + " " + fence
	}
	return fence + s + fence
}
