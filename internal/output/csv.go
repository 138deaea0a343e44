// internal/output/csv.go
package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
)

// CSVWriter writes one row per input component or outcome product. Rows
// carry a record column so both views share one header.
type CSVWriter struct {
	filename string
	file     *os.File
	writer   *csv.Writer
}

// NewCSVWriter creates a new CSV writer
func NewCSVWriter(filename string) (*CSVWriter, error) {
	file, err := createFile(filename)
	if err != nil {
		return nil, err
	}

	return &CSVWriter{
		filename: filename,
		file:     file,
		writer:   csv.NewWriter(file),
	}, nil
}

// csvColumns is the union of the component and product columns.
var csvColumns = []string{
	"record", "dataset_id", "reaction_id", "input", "reaction_role",
	"is_desired_product", "identifiers", "amount_kind", "amount_value",
	"amount_units", "measurements",
}

// Write writes the flattened document to the CSV file
func (w *CSVWriter) Write(ctx context.Context, doc Document) error {
	if w.writer == nil {
		return fmt.Errorf("csv writer %s is closed", w.filename)
	}

	if err := w.writer.Write(csvColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, row := range componentRows(doc) {
		if err := ctx.Err(); err != nil {
			return err
		}
		// dataset_id, reaction_id, input, role, identifiers, kind, value, units
		record := []string{"component", row[0], row[1], row[2], row[3], "", row[4], row[5], row[6], row[7], ""}
		if err := w.writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	for _, row := range productRows(doc) {
		if err := ctx.Err(); err != nil {
			return err
		}
		// dataset_id, reaction_id, role, desired, identifiers, measurements
		record := []string{"product", row[0], row[1], "", row[2], row[3], row[4], "", "", "", row[5]}
		if err := w.writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	w.writer.Flush()
	return w.writer.Error()
}

// Close closes the CSV writer
func (w *CSVWriter) Close() error {
	if w.writer != nil {
		w.writer.Flush()
		w.writer = nil
	}
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}
