// Package sink pushes canonical tables into spreadsheet sheets.
package sink

import (
	"context"
	"errors"
	"fmt"

	"finsheets/internal/core"
	applog "finsheets/internal/log"
	"finsheets/internal/sheets"
)

// Origin is the anchor of every bulk write.
const Origin = "A1"

// Headroom applied when a missing sheet is created.
const (
	ExtraRows  = 10
	MinRows    = 100
	ExtraCols  = 5
	MinColumns = 26
)

// UnknownPrincipal is reported when the adapter cannot name its identity.
const UnknownPrincipal = "<unknown-service-account-email>"

type (
	Destination struct {
		SpreadsheetID string
		SheetName     string
	}

	Options struct {
		CreateIfMissing bool
		Overwrite       bool
	}

	// Result describes a completed write.
	Result struct {
		SpreadsheetTitle string
		SheetName        string
		Principal        string
		Rows             int
		Columns          int
		Created          bool
		Resized          bool
	}
)

// DefaultOptions creates missing sheets and replaces their content.
func DefaultOptions() Options {
	return Options{CreateIfMissing: true, Overwrite: true}
}

// Writer writes tables to sheets through a SpreadsheetOpener.
type Writer struct {
	opener    sheets.SpreadsheetOpener
	principal string
	logger    *applog.Logger
}

// NewWriter builds a writer. If opener also implements sheets.Principal its
// identity is used in error messages and results.
func NewWriter(opener sheets.SpreadsheetOpener, logger *applog.Logger) *Writer {
	principal := UnknownPrincipal
	if p, ok := opener.(sheets.Principal); ok && p.Principal() != "" {
		principal = p.Principal()
	}
	if logger == nil {
		logger = applog.FromSlog(nil, applog.ComponentSink)
	}
	return &Writer{opener: opener, principal: principal, logger: logger.WithComponent(applog.ComponentSink)}
}

// Principal returns the identity writes are performed as.
func (w *Writer) Principal() string {
	return w.principal
}

// Write replaces the content of dest with the header and rows of table.
//
// It fails with *DestinationNotFoundError when the spreadsheet is missing
// or not shared with the principal, and with *ResourceMissingError when the sheet is absent and
// opts.CreateIfMissing is false. Resizing the sheet to the payload is best
// effort: a failure there is logged and the write still succeeds.
func (w *Writer) Write(ctx context.Context, table core.Table, dest Destination, opts Options) (Result, error) {
	ss, err := w.opener.OpenSpreadsheet(ctx, dest.SpreadsheetID)
	switch {
	case errors.Is(err, sheets.ErrSpreadsheetNotFound):
		return Result{}, &DestinationNotFoundError{SpreadsheetID: dest.SpreadsheetID, Principal: w.principal, Err: err}
	case err != nil:
		return Result{}, fmt.Errorf("open spreadsheet %s: %w", dest.SpreadsheetID, err)
	}

	res := Result{SpreadsheetTitle: ss.Title(), SheetName: dest.SheetName, Principal: w.principal}

	sh, err := ss.Sheet(ctx, dest.SheetName)
	switch {
	case errors.Is(err, sheets.ErrSheetNotFound):
		if !opts.CreateIfMissing {
			return Result{}, &ResourceMissingError{SpreadsheetID: dest.SpreadsheetID, SheetName: dest.SheetName}
		}
		rows, cols := Capacity(table)
		sh, err = ss.AddSheet(ctx, dest.SheetName, rows, cols)
		if err != nil {
			return Result{}, fmt.Errorf("create sheet %q: %w", dest.SheetName, err)
		}
		res.Created = true
		f := applog.NewFields().WithOperation(applog.OpCreate).WithDestination(dest.SpreadsheetID, dest.SheetName)
		f[applog.FieldRows], f[applog.FieldColumns] = rows, cols
		w.logger.InfoContext(ctx, "Created sheet", f.ToSlice()...)
	case err != nil:
		return Result{}, fmt.Errorf("lookup sheet %q: %w", dest.SheetName, err)
	}

	if opts.Overwrite {
		if err := sh.Clear(ctx); err != nil {
			return Result{}, fmt.Errorf("clear sheet %q: %w", dest.SheetName, err)
		}
	}

	values := Payload(table)
	if err := sh.Update(ctx, Origin, values); err != nil {
		return Result{}, fmt.Errorf("update sheet %q: %w", dest.SheetName, err)
	}
	res.Rows, res.Columns = len(values), len(values[0])

	if err := sh.Resize(ctx, res.Rows, res.Columns); err != nil {
		f := applog.NewFields().WithOperation(applog.OpResize).WithDestination(dest.SpreadsheetID, dest.SheetName).WithError(err)
		w.logger.DebugContext(ctx, "Resize skipped", f.ToSlice()...)
	} else {
		res.Resized = true
	}
	return res, nil
}

// Capacity returns the grid size used when creating a sheet for table.
func Capacity(table core.Table) (rows, cols int) {
	return max(table.Len()+ExtraRows, MinRows), max(len(table.Columns)+ExtraCols, MinColumns)
}

// Payload is the header row followed by every data row with missing cells
// filled with empty text.
func Payload(table core.Table) [][]string {
	return table.Values()
}
