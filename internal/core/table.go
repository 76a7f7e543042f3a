// Package core holds the canonical table model shared by ingestion, merging
// and the sink writer.
package core

import "strings"

type (
	// Grid is the raw text content of one sheet. Rows may have different widths.
	Grid [][]string

	// Table is an ordered set of rows under a fixed list of column names.
	// Every row has exactly len(Columns) cells.
	Table struct {
		Columns []string
		Rows    [][]string
	}
)

// EmptyTable is the result of merging zero successful sources. It has no
// columns, which distinguishes it from a table whose cells are all empty.
var EmptyTable = Table{}

// NewTable builds a table from raw rows, padding short rows with empty cells
// and ignoring cells beyond the last column.
func NewTable(columns []string, rows [][]string) Table {
	cols := append([]string(nil), columns...)
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, fitRow(r, len(cols)))
	}
	return Table{Columns: cols, Rows: out}
}

// IsEmpty reports whether t is the column-less sentinel.
func (t Table) IsEmpty() bool {
	return len(t.Columns) == 0
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of the first column named name, or -1.
func (t Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the named column's cells, or nil if absent.
func (t Table) Column(name string) []string {
	idx := t.Index(name)
	if idx < 0 {
		return nil
	}
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[idx]
	}
	return out
}

// Filter returns a table holding the rows for which keep returns true.
func (t Table) Filter(keep func(row []string) bool) Table {
	out := Table{Columns: t.Columns, Rows: make([][]string, 0, len(t.Rows))}
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Project returns a table with exactly the given columns, in order. Columns
// missing from t are synthesized as all-empty; extra columns are dropped.
func (t Table) Project(columns []string) Table {
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = t.Index(c)
	}
	out := Table{Columns: append([]string(nil), columns...), Rows: make([][]string, len(t.Rows))}
	for i, r := range t.Rows {
		row := make([]string, len(columns))
		for j, k := range idx {
			if k >= 0 {
				row[j] = r[k]
			}
		}
		out.Rows[i] = row
	}
	return out
}

// WithColumn returns a copy of t where every row carries value under name.
// An existing column of the same name is overwritten.
func (t Table) WithColumn(name, value string) Table {
	cols := append([]string(nil), t.Columns...)
	idx := t.Index(name)
	if idx < 0 {
		cols = append(cols, name)
		idx = len(cols) - 1
	}
	out := Table{Columns: cols, Rows: make([][]string, len(t.Rows))}
	for i, r := range t.Rows {
		row := fitRow(r, len(cols))
		row[idx] = value
		out.Rows[i] = row
	}
	return out
}

// Values returns the header followed by the data rows, every row padded to
// the header width.
func (t Table) Values() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, append([]string(nil), t.Columns...))
	for _, r := range t.Rows {
		out = append(out, fitRow(r, len(t.Columns)))
	}
	return out
}

// IsBlankRow reports whether every cell of row is empty or whitespace.
func IsBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func fitRow(r []string, width int) []string {
	row := make([]string, width)
	copy(row, r)
	return row
}
