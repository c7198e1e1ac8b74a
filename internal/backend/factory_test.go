package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tracker/internal/config"
	"tracker/internal/core"
	"tracker/internal/sheets/memory"
	"tracker/internal/store"
)

func TestFromAppConfig(t *testing.T) {
	c := config.Defaults()
	c.DataBackend = "sqlite"
	c.SQLiteDBPath = "/tmp/x.db"

	bc, err := FromAppConfig(c)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if bc.Type != SQLite || bc.SQLiteDBPath != "/tmp/x.db" {
		t.Fatalf("config = %+v", bc)
	}

	c.DataBackend = "sheets"
	if _, err := FromAppConfig(c); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestCreateStore(t *testing.T) {
	ctx := context.Background()
	seed := filepath.Join(t.TempDir(), "seed.txt")
	if err := os.WriteFile(seed, []byte("u1;2025-03-02;-12.50;Food;Lunch\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		cfg  Config
		want int
	}{
		{"memory", Config{Type: Memory}, 0},
		{"memory seeded", Config{Type: Memory, SeedFile: seed}, 1},
		{"sqlite", Config{Type: SQLite, SQLiteDBPath: filepath.Join(t.TempDir(), "db", "tracker.db")}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewFactory(nil).CreateStore(ctx, tt.cfg)
			if err != nil {
				t.Fatalf("CreateStore: %v", err)
			}
			defer res.Cleanup()

			q := store.Query{
				OwnerID: "u1",
				From:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local),
				To:      time.Date(2025, 4, 1, 0, 0, 0, 0, time.Local),
			}
			recs, err := res.Store.List(ctx, q)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(recs) != tt.want {
				t.Fatalf("records = %d, want %d", len(recs), tt.want)
			}
			if tt.want == 1 && core.Normalize(recs[0]).Amount != -12.5 {
				t.Fatalf("seeded record = %+v", recs[0])
			}
		})
	}
}

func TestCreateStoreRejectsInvalidConfig(t *testing.T) {
	if _, err := NewFactory(nil).CreateStore(context.Background(), Config{Type: SQLite}); err == nil {
		t.Fatalf("expected error without sqlite path")
	}
}

func TestCreateReportWriterFallsBackToMemory(t *testing.T) {
	w, err := NewFactory(nil).CreateReportWriter(context.Background(), Config{Type: Memory})
	if err != nil {
		t.Fatalf("CreateReportWriter: %v", err)
	}
	if _, ok := w.(*memory.Store); !ok {
		t.Fatalf("writer = %T, want in-memory sink", w)
	}
}
