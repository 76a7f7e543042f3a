package core

import "github.com/shopspring/decimal"

// Column names of the fixed ledger schema.
const (
	ColDate        = "Date"
	ColDescription = "Description"
	ColCategory    = "Category"
	ColWithdrawals = "Withdrawals"
	ColDeposits    = "Deposits"
	ColBalance     = "Balance"
	ColSource      = "Source"
)

// LedgerColumns is the canonical schema produced by ledger ingestion.
var LedgerColumns = []string{ColDate, ColDescription, ColCategory, ColWithdrawals, ColDeposits, ColBalance, ColSource}

// Summary is a compact description of a table used in status lines.
type Summary struct {
	Rows        int
	Columns     int
	Withdrawals decimal.Decimal
	Deposits    decimal.Decimal
	// Unparsed counts non-empty amount cells that could not be read.
	Unparsed int
}

// Summarize totals the Withdrawals and Deposits columns when present.
func Summarize(t Table) Summary {
	s := Summary{Rows: t.Len(), Columns: len(t.Columns)}
	s.Withdrawals, s.Unparsed = total(t.Column(ColWithdrawals), s.Unparsed)
	s.Deposits, s.Unparsed = total(t.Column(ColDeposits), s.Unparsed)
	return s
}

func total(cells []string, unparsed int) (decimal.Decimal, int) {
	sum := decimal.Zero
	for _, c := range cells {
		d, err := ParseAmount(c)
		switch {
		case err == nil:
			sum = sum.Add(d)
		case err != ErrEmptyAmount:
			unparsed++
		}
	}
	return sum, unparsed
}
