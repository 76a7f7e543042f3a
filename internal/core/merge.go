package core

// Diagnostic describes a source that did not contribute rows to a merge.
type Diagnostic struct {
	Source  string
	Status  Status
	Message string
}

// MergeReport summarizes how each source fared during a merge.
type MergeReport struct {
	Loaded      int
	Skipped     int
	Failed      int
	Rows        int
	Diagnostics []Diagnostic
}

// Merge folds per-source outcomes left to right into one table. Rows keep
// source order, then their original order within the source. Skips and
// failures are recorded in the report and never stop the fold. When no
// source succeeds the result is EmptyTable.
//
// Sources with differing columns are combined on the union of their columns
// in first-seen order; cells a source does not provide are empty.
func Merge(outcomes []Outcome) (Table, MergeReport) {
	acc := EmptyTable
	var rep MergeReport
	for _, o := range outcomes {
		switch o.Status {
		case StatusOK:
			acc = appendTable(acc, o.Table)
			rep.Loaded++
		case StatusSkip:
			rep.Skipped++
			rep.Diagnostics = append(rep.Diagnostics, Diagnostic{Source: o.Source, Status: o.Status, Message: o.Message()})
		default:
			rep.Failed++
			rep.Diagnostics = append(rep.Diagnostics, Diagnostic{Source: o.Source, Status: StatusFail, Message: o.Message()})
		}
	}
	rep.Rows = acc.Len()
	return acc, rep
}

func appendTable(acc, t Table) Table {
	if acc.IsEmpty() {
		return NewTable(t.Columns, t.Rows)
	}
	cols := append([]string(nil), acc.Columns...)
	pos := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		idx := indexOf(cols, c)
		if idx < 0 {
			cols = append(cols, c)
			idx = len(cols) - 1
		}
		pos[i] = idx
	}
	rows := make([][]string, 0, len(acc.Rows)+len(t.Rows))
	for _, r := range acc.Rows {
		rows = append(rows, fitRow(r, len(cols)))
	}
	for _, r := range t.Rows {
		row := make([]string, len(cols))
		for i, cell := range r {
			if i < len(pos) {
				row[pos[i]] = cell
			}
		}
		rows = append(rows, row)
	}
	return Table{Columns: cols, Rows: rows}
}

func indexOf(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}
