package backend

import (
	"context"

	"finsheets/internal/sheets"
)

// Backend is a spreadsheet store that can be both ingested from and written to.
type Backend interface {
	sheets.ContainerLister
	sheets.SpreadsheetFinder
	sheets.GridReader
	sheets.SpreadsheetOpener
	sheets.Principal
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (Backend, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Google Sheets specific
	ServiceAccountJSON string
	ServiceAccountFile string

	// Memory backend specific
	DataDirectory string
}

// BackendType represents the type of backend
type BackendType string

const (
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
