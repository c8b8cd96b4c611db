package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONWriter outputs the full document as JSON.
type JSONWriter struct{}

func (j *JSONWriter) Write(w io.Writer, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
