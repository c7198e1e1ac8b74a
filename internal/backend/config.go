package backend

import (
	"fmt"

	"tracker/internal/config"
)

// FromAppConfig converts the application config to backend config.
func FromAppConfig(c *config.Config) (Config, error) {
	if c == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	t := Type(c.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", c.DataBackend)
	}
	return Config{
		Type:                  t,
		SQLiteDBPath:          c.SQLiteDBPath,
		SeedFile:              c.MemorySeedFile,
		GoogleSpreadsheetID:   c.GoogleSpreadsheetID,
		GoogleSheetName:       c.GoogleSheetName,
		GoogleCredentialsFile: c.GoogleCredentialsFile,
		GoogleCredentialsJSON: c.GoogleCredentialsJSON,
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLite && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	return nil
}

// SheetsEnabled reports whether reports go to Google Sheets.
func (c Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}
