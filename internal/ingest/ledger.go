package ingest

import (
	"errors"
	"fmt"
	"strings"

	"finsheets/internal/core"
)

var ErrMissingDateColumn = errors.New("missing Date column")

// MapLedger maps a grid laid out in the ledger convention onto the fixed
// ledger schema. Header names are trimmed but not deduplicated; when a name
// repeats, its first column wins.
func MapLedger(grid core.Grid) core.Outcome {
	return Ledger.mapLedger(grid)
}

func (m Mode) mapLedger(grid core.Grid) core.Outcome {
	if len(grid) < m.MinRows {
		return core.Skipped("", ReasonNotEnoughRows)
	}

	header := make([]string, len(grid[m.HeaderRow]))
	for i, h := range grid[m.HeaderRow] {
		header[i] = strings.TrimSpace(h)
	}

	// The first cell carries the date.
	var kept [][]string
	for _, row := range grid[m.DataRow:] {
		if len(row) > 0 && strings.TrimSpace(row[0]) != "" {
			kept = append(kept, row)
		}
	}
	if len(kept) == 0 {
		return core.Skipped("", ReasonNoValidDate)
	}

	tbl := core.NewTable(header, kept)
	date := tbl.Index(core.ColDate)
	if date < 0 {
		return core.Failed("", fmt.Errorf("%w: header %v", ErrMissingDateColumn, header))
	}
	tbl = tbl.Filter(func(row []string) bool {
		return strings.TrimSpace(row[date]) != ""
	})
	if tbl.Len() == 0 {
		return core.Skipped("", ReasonNoValidDate)
	}
	return core.Ok("", tbl.Project(core.LedgerColumns))
}
