package backend

import (
	"context"
	"fmt"
	"log/slog"

	"tracker/internal/sheets"
	"tracker/internal/sheets/google"
	reportmem "tracker/internal/sheets/memory"
	"tracker/internal/storage"
	"tracker/internal/store/memory"
)

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateStore(_ context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Type {
	case SQLite:
		return f.createSQLite(cfg)
	case Memory:
		return f.createMemory(cfg)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}

func (f *DefaultFactory) createSQLite(cfg Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	return &Result{Store: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createMemory(cfg Config) (*Result, error) {
	var (
		s   *memory.Store
		err error
	)
	if cfg.SeedFile != "" {
		s, err = memory.NewFromFile(cfg.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to seed memory backend: %w", err)
		}
	} else {
		s = memory.New()
	}
	f.logger.Info("Initialized memory backend", "seed_file", cfg.SeedFile)
	return &Result{Store: s, Cleanup: s.Close}, nil
}

// CreateReportWriter returns the Google Sheets exporter when a spreadsheet
// is configured and an in-process sink otherwise.
func (f *DefaultFactory) CreateReportWriter(ctx context.Context, cfg Config) (sheets.ReportWriter, error) {
	if !cfg.SheetsEnabled() {
		f.logger.Warn("No spreadsheet configured, month reports stay in memory")
		return reportmem.New(), nil
	}
	cli, err := google.New(ctx, google.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsFile: cfg.GoogleCredentialsFile,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	return cli, nil
}
