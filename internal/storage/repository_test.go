package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tracker/internal/core"
	"tracker/internal/store"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "tracker.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func marchWindow() core.Window {
	return core.Window{
		Start: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func create(t *testing.T, repo *SQLiteRepository, owner string, at time.Time, amount float64, category string) string {
	t.Helper()
	id, err := repo.Create(context.Background(), core.NewTransaction{
		OwnerID:    owner,
		Title:      "item",
		Amount:     amount,
		OccurredAt: at,
		Category:   category,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return id
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	v1, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	v2, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if v1 != 1 || v2 != 1 {
		t.Fatalf("versions = %d, %d; want 1, 1", v1, v2)
	}
}

func TestListWindowAndOrdering(t *testing.T) {
	repo := newRepo(t)
	w := marchWindow()

	create(t, repo, "u1", w.Start, 1000, "Salary")
	create(t, repo, "u1", w.Start.Add(48*time.Hour), -12.34, "Food")
	create(t, repo, "u1", w.End.Add(-time.Second), -0.1, "Food")
	create(t, repo, "u1", w.End, -99, "Food")
	create(t, repo, "u2", w.Start.Add(time.Hour), -5, "Food")

	recs, err := repo.List(context.Background(), store.QueryFor("u1", w))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	txs := core.NormalizeAll(recs)
	if len(txs) != 3 {
		t.Fatalf("got %d transactions, want 3", len(txs))
	}
	want := []float64{-0.1, -12.34, 1000}
	for i, tx := range txs {
		if tx.Amount != want[i] {
			t.Fatalf("tx[%d].Amount = %v, want %v", i, tx.Amount, want[i])
		}
		if tx.OwnerID != "u1" || !w.Contains(tx.OccurredAt) {
			t.Fatalf("tx[%d] out of scope: %+v", i, tx)
		}
	}
}

func TestDeleteScopedToOwner(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	id := create(t, repo, "u1", marchWindow().Start, -1, "Food")

	if err := repo.Delete(ctx, "u2", id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("foreign delete = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, "u1", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	recs, _ := repo.List(ctx, store.QueryFor("u1", marchWindow()))
	if len(recs) != 0 {
		t.Fatalf("record still listed after delete")
	}
}

func TestOwnersInRange(t *testing.T) {
	repo := newRepo(t)
	w := marchWindow()
	create(t, repo, "bob", w.Start, -1, "Food")
	create(t, repo, "alice", w.Start, -1, "Food")
	create(t, repo, "alice", w.Start.Add(time.Hour), 3, "Gift")
	create(t, repo, "carol", w.End, -1, "Food")

	owners, err := repo.Owners(context.Background(), w.Start, w.End)
	if err != nil {
		t.Fatalf("owners: %v", err)
	}
	if len(owners) != 2 || owners[0] != "alice" || owners[1] != "bob" {
		t.Fatalf("owners = %v", owners)
	}
}

func TestWatchSeesWrites(t *testing.T) {
	repo := newRepo(t)
	w := marchWindow()

	snaps := make(chan []core.Record, 8)
	stop := repo.Watch(store.QueryFor("u1", w), func(r []core.Record) { snaps <- r }, func(err error) {
		t.Errorf("watch error: %v", err)
	})
	defer stop()

	next := func() []core.Record {
		t.Helper()
		select {
		case r := <-snaps:
			return r
		case <-time.After(5 * time.Second):
			t.Fatalf("no snapshot delivered")
			return nil
		}
	}
	if got := next(); len(got) != 0 {
		t.Fatalf("initial snapshot = %v", got)
	}
	create(t, repo, "u1", w.Start, -7, "Food")
	if got := next(); len(got) != 1 {
		t.Fatalf("snapshot after create = %v", got)
	}
}
