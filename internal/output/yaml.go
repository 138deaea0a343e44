// internal/output/yaml.go
package output

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLWriter implements the Writer interface for YAML output
type YAMLWriter struct {
	filename string
	file     *os.File
	indent   int
}

// NewYAMLWriter creates a new YAML writer
func NewYAMLWriter(filename string) (*YAMLWriter, error) {
	file, err := createFile(filename)
	if err != nil {
		return nil, err
	}
	return &YAMLWriter{filename: filename, file: file, indent: 2}, nil
}

// Write writes the document as a single YAML document keyed by dataset id.
func (w *YAMLWriter) Write(ctx context.Context, doc Document) error {
	if w.file == nil {
		return fmt.Errorf("yaml writer %s is closed", w.filename)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	encoder := yaml.NewEncoder(w.file)
	encoder.SetIndent(w.indent)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode yaml output: %w", err)
	}
	return encoder.Close()
}

// Close closes the YAML writer
func (w *YAMLWriter) Close() error {
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}
