// Package localfile reads and writes tables on the local filesystem as CSV
// or XLSX, chosen by file extension.
package localfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"finsheets/internal/core"
)

const (
	ExtCSV  = ".csv"
	ExtXLSX = ".xlsx"
)

// XLSXSheet is the sheet name used for written workbooks.
const XLSXSheet = "Sheet1"

var (
	ErrEmptyFile         = errors.New("empty file")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// ReadGrid returns every row of a CSV file or of the first sheet of an XLSX
// workbook. Rows keep their own widths.
func ReadGrid(path string) (core.Grid, error) {
	switch ext(path) {
	case ExtCSV:
		return readCSV(path)
	case ExtXLSX:
		return readXLSX(path)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

// ReadTable reads a file whose first row is the header.
func ReadTable(path string) (core.Table, error) {
	grid, err := ReadGrid(path)
	if err != nil {
		return core.Table{}, err
	}
	if len(grid) == 0 {
		return core.Table{}, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}
	return core.NewTable(grid[0], grid[1:]), nil
}

// WriteTable writes the header and rows of t to path, creating parent
// directories as needed.
func WriteTable(path string, t core.Table) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	switch ext(path) {
	case ExtCSV:
		return writeCSV(path, t)
	case ExtXLSX:
		return writeXLSX(path, t)
	default:
		return fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

func readCSV(path string) (core.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	var grid core.Grid
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		grid = append(grid, rec)
	}
	return grid, nil
}

func writeCSV(path string, t core.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(t.Values()); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func readXLSX(path string) (core.Grid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func writeXLSX(path string, t core.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range t.Values() {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		vals := make([]interface{}, len(row))
		for j, v := range row {
			vals[j] = v
		}
		if err := f.SetSheetRow(XLSXSheet, cell, &vals); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
