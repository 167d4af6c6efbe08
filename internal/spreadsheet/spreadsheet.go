// Package spreadsheet reads and writes single-sheet XLSX tables with a header row.
package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of an XLSX workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrEmptyWorkbook is returned when the first sheet has no header row
var ErrEmptyWorkbook = errors.New("workbook has no header row")

// Table is the first sheet of a workbook. Header names are trimmed and
// lower-cased.
type Table struct {
	Headers []string
	Rows    []Row
	index   map[string]int
}

// Row is one data row. Number is the 1-based row number in the sheet.
type Row struct {
	Number int
	cells  []string
	table  *Table
}

// Get returns the trimmed cell under header, or "" when the column is absent
func (r Row) Get(header string) string {
	i, ok := r.table.index[strings.ToLower(header)]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

// Empty reports whether every cell of the row is blank
func (r Row) Empty() bool {
	for _, c := range r.cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// HasColumn reports whether the header row contains name
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[strings.ToLower(name)]
	return ok
}

// Read parses the first sheet of an XLSX workbook. Blank rows are skipped.
func Read(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyWorkbook
	}

	t := &Table{index: make(map[string]int)}
	for i, h := range rows[0] {
		name := strings.ToLower(strings.TrimSpace(h))
		t.Headers = append(t.Headers, name)
		if name != "" {
			if _, dup := t.index[name]; !dup {
				t.index[name] = i
			}
		}
	}
	if len(t.index) == 0 {
		return nil, ErrEmptyWorkbook
	}

	for i, cells := range rows[1:] {
		row := Row{Number: i + 2, cells: cells, table: t}
		if row.Empty() {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Write renders headers and rows as a single-sheet workbook with a bold
// header row.
func Write(w io.Writer, sheetName string, headers []string, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if sheetName != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("failed to remove default sheet: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if len(headers) > 0 {
		last, err := excelize.CoordinatesToCellName(len(headers), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
		lastCol, _ := excelize.ColumnNumberToName(len(headers))
		if err := f.SetColWidth(sheetName, "A", lastCol, 18); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
