package ingest

import (
	"finsheets/internal/core"
)

// MapHistorical maps a grid laid out in the historical convention. Duplicate
// header names are suffixed, unparseable dates drop their row and every
// surviving row is tagged with sourceID.
func MapHistorical(grid core.Grid, sourceID string) core.Outcome {
	return Historical.mapHistorical(grid, sourceID)
}

func (m Mode) mapHistorical(grid core.Grid, sourceID string) core.Outcome {
	if len(grid) < m.MinRows {
		return core.Skipped(sourceID, ReasonNotEnoughRows)
	}

	header := core.ResolveHeaders(grid[m.HeaderRow])
	tbl := core.NewTable(header, grid[m.DataRow:])

	if date := tbl.Index(core.ColDate); date >= 0 {
		rows := make([][]string, 0, tbl.Len())
		for _, row := range tbl.Rows {
			d, err := NormalizeDate(row[date])
			if err != nil {
				continue
			}
			out := append([]string(nil), row...)
			out[date] = d
			rows = append(rows, out)
		}
		tbl.Rows = rows
	}

	tbl = tbl.Filter(func(row []string) bool { return !core.IsBlankRow(row) })
	if tbl.Len() == 0 {
		return core.Skipped(sourceID, ReasonAllRowsEmpty)
	}
	return core.Ok(sourceID, tbl.WithColumn(ProvenanceColumn, sourceID))
}
