// internal/output/json.go
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// JSONWriter writes the document as one indented JSON object
type JSONWriter struct {
	filename string
	file     *os.File
}

// NewJSONWriter creates a new JSON writer
func NewJSONWriter(filename string) (*JSONWriter, error) {
	file, err := createFile(filename)
	if err != nil {
		return nil, err
	}

	return &JSONWriter{
		filename: filename,
		file:     file,
	}, nil
}

// Write writes the document to the JSON file. Non-ASCII text is written
// verbatim.
func (w *JSONWriter) Write(ctx context.Context, doc Document) error {
	if w.file == nil {
		return fmt.Errorf("json writer %s is closed", w.filename)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	encoder := json.NewEncoder(w.file)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode json output: %w", err)
	}
	return nil
}

// Close closes the JSON writer
func (w *JSONWriter) Close() error {
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}
