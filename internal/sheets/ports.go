package sheets

import (
	"context"
	"errors"

	"finsheets/internal/core"
)

// MimeSpreadsheet is the Drive MIME type of native spreadsheets.
const MimeSpreadsheet = "application/vnd.google-apps.spreadsheet"

var (
	ErrSpreadsheetNotFound = errors.New("spreadsheet not found")
	ErrSheetNotFound       = errors.New("sheet not found")
)

// File identifies one spreadsheet inside a container.
type File struct {
	Name string
	ID   string
}

// Ports for outbound adapters.
type (
	// ContainerLister enumerates the spreadsheets stored in a folder.
	ContainerLister interface {
		ListSpreadsheets(ctx context.Context, folderID string) ([]File, error)
	}

	// SpreadsheetFinder resolves a spreadsheet by its title.
	SpreadsheetFinder interface {
		FindSpreadsheet(ctx context.Context, title string) (File, error)
	}

	// GridReader fetches the values of a spreadsheet's first sheet.
	GridReader interface {
		ReadGrid(ctx context.Context, spreadsheetID string) (core.Grid, error)
	}

	// SpreadsheetOpener opens a spreadsheet for writing. It returns an error
	// wrapping ErrSpreadsheetNotFound when the id is unknown or not shared
	// with the principal.
	SpreadsheetOpener interface {
		OpenSpreadsheet(ctx context.Context, spreadsheetID string) (Spreadsheet, error)
	}

	// Principal reports the identity the adapter acts as.
	Principal interface {
		Principal() string
	}

	Spreadsheet interface {
		ID() string
		Title() string
		// Sheet returns an error wrapping ErrSheetNotFound when absent.
		Sheet(ctx context.Context, name string) (Sheet, error)
		AddSheet(ctx context.Context, name string, rows, cols int) (Sheet, error)
	}

	Sheet interface {
		Name() string
		Clear(ctx context.Context) error
		// Update writes values with their top-left corner at origin (A1 notation).
		Update(ctx context.Context, origin string, values [][]string) error
		Resize(ctx context.Context, rows, cols int) error
	}
)
