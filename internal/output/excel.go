// internal/output/excel.go
package output

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the Excel workbook
const (
	SheetDatasets   = "Datasets"
	SheetComponents = "Components"
	SheetProducts   = "Products"
)

// DefaultExcelMaxSheetRows is the maximum rows per sheet in Excel
const DefaultExcelMaxSheetRows = 1048576

var datasetColumns = []string{"dataset_id", "total_reactions", "successful_scrapes", "reactions"}

// ExcelWriter implements the Writer interface for Excel output
type ExcelWriter struct {
	file        *excelize.File
	path        string
	headerStyle int
}

// NewExcelWriter creates a new Excel writer
func NewExcelWriter(path string) (*ExcelWriter, error) {
	if path == "" {
		return nil, fmt.Errorf("Excel file path is required")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	file := excelize.NewFile()
	style, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	return &ExcelWriter{file: file, path: filepath.Clean(path), headerStyle: style}, nil
}

// Write fills the Datasets, Components and Products sheets and saves the
// workbook.
func (w *ExcelWriter) Write(ctx context.Context, doc Document) error {
	if w.file == nil {
		return fmt.Errorf("excel writer %s is closed", w.path)
	}

	var summary [][]string
	for _, id := range doc.DatasetIDs() {
		rec := doc[id]
		summary = append(summary, []string{
			id, strconv.Itoa(rec.TotalReactions), strconv.Itoa(rec.SuccessfulScrapes), strconv.Itoa(len(rec.Reactions)),
		})
	}

	if err := w.file.SetSheetName(w.file.GetSheetName(0), SheetDatasets); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	sheets := []struct {
		name    string
		headers []string
		rows    [][]string
	}{
		{SheetDatasets, datasetColumns, summary},
		{SheetComponents, componentColumns, componentRows(doc)},
		{SheetProducts, productColumns, productRows(doc)},
	}
	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.writeSheet(sheet.name, sheet.headers, sheet.rows); err != nil {
			return fmt.Errorf("sheet %s: %w", sheet.name, err)
		}
	}
	w.file.SetActiveSheet(0)

	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func (w *ExcelWriter) writeSheet(name string, headers []string, rows [][]string) error {
	if len(rows)+1 > DefaultExcelMaxSheetRows {
		return fmt.Errorf("%d rows exceed the sheet limit", len(rows))
	}
	if idx, _ := w.file.GetSheetIndex(name); idx < 0 {
		if _, err := w.file.NewSheet(name); err != nil {
			return err
		}
	}

	for col, header := range headers {
		cell := columnName(col+1) + "1"
		if err := w.file.SetCellValue(name, cell, header); err != nil {
			return err
		}
		if err := w.file.SetCellStyle(name, cell, cell, w.headerStyle); err != nil {
			return err
		}
	}
	for i, row := range rows {
		for col, value := range row {
			cell := columnName(col+1) + strconv.Itoa(i+2)
			if err := w.file.SetCellValue(name, cell, value); err != nil {
				return err
			}
		}
	}

	last := columnName(len(headers))
	if err := w.file.SetColWidth(name, "A", last, 20); err != nil {
		return err
	}
	return w.file.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// Close releases the workbook
func (w *ExcelWriter) Close() error {
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}

// columnName converts a column number to Excel column name (A, B, C, ..., AA, AB, etc.)
func columnName(col int) string {
	name := ""
	for col > 0 {
		col--
		name = string(rune('A'+col%26)) + name
		col /= 26
	}
	return name
}
