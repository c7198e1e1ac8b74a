// Package backend builds the transaction store and the report writer the
// configuration asks for.
package backend

import (
	"context"

	"tracker/internal/sheets"
	"tracker/internal/store"
)

// CleanupFunc releases whatever the backend opened.
type CleanupFunc func() error

// Result is a ready store plus its cleanup.
type Result struct {
	Store   store.Store
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateStore(ctx context.Context, cfg Config) (*Result, error)
	CreateReportWriter(ctx context.Context, cfg Config) (sheets.ReportWriter, error)
}

// Config holds what the factory needs, independent of how it was loaded.
type Config struct {
	Type Type

	// SQLite
	SQLiteDBPath string

	// Memory
	SeedFile string

	// Google Sheets export
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string
}

// Type names a store implementation.
type Type string

const (
	SQLite Type = "sqlite"
	Memory Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case SQLite, Memory:
		return true
	default:
		return false
	}
}
