// Package ingest maps raw spreadsheet grids onto canonical tables.
//
// Two layouts coexist and are kept as separate modes:
//
//   - Ledger: header on the second row, data from the third, projected onto
//     the fixed ledger schema.
//   - Historical: header on the third row, data from the fourth, columns kept
//     as provided, dates normalized and a source_sheet column appended.
package ingest

import (
	"fmt"
	"strings"

	"finsheets/internal/core"
)

// Skip reasons.
const (
	ReasonNotEnoughRows = "not enough rows"
	ReasonNoValidDate   = "no rows with valid Date"
	ReasonAllRowsEmpty  = "all rows empty after filtering"
)

// ProvenanceColumn names the column historical ingestion appends.
const ProvenanceColumn = "source_sheet"

type kind int

const (
	kindLedger kind = iota + 1
	kindHistorical
)

// Mode describes one ingestion convention.
type Mode struct {
	Name string
	// HeaderRow is the zero-based index of the header row.
	HeaderRow int
	// DataRow is the zero-based index of the first data row.
	DataRow int
	// MinRows is the smallest grid worth mapping.
	MinRows int

	kind kind
}

var (
	Ledger     = Mode{Name: "ledger", HeaderRow: 1, DataRow: 2, MinRows: 4, kind: kindLedger}
	Historical = Mode{Name: "historical", HeaderRow: 2, DataRow: 3, MinRows: 4, kind: kindHistorical}
)

// ParseMode returns the mode with the given name.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case Ledger.Name:
		return Ledger, nil
	case Historical.Name:
		return Historical, nil
	default:
		return Mode{}, fmt.Errorf("unknown ingestion mode %q: must be %q or %q", name, Ledger.Name, Historical.Name)
	}
}

func (m Mode) String() string {
	return m.Name
}

// Map applies the mode to grid and labels the outcome with source.
func (m Mode) Map(grid core.Grid, source string) core.Outcome {
	var o core.Outcome
	switch m.kind {
	case kindLedger:
		o = m.mapLedger(grid)
	case kindHistorical:
		o = m.mapHistorical(grid, source)
	default:
		o = core.Failed(source, fmt.Errorf("ingestion mode %q is not configured", m.Name))
	}
	o.Source = source
	return o
}
