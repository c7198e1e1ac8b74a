package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tracker/internal/core"
	"tracker/internal/store"
)

var march = core.Window{
	Start: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
}

func newTx(owner string, day int, amount float64) core.NewTransaction {
	return core.NewTransaction{
		OwnerID:    owner,
		Title:      "t",
		Amount:     amount,
		OccurredAt: time.Date(2025, 3, day, 12, 0, 0, 0, time.UTC),
		Category:   "Food",
	}
}

func TestCreateListScopesByOwnerAndWindow(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	for _, nt := range []core.NewTransaction{
		newTx("u1", 3, -10),
		newTx("u1", 20, 500),
		newTx("u2", 5, -7),
	} {
		if _, err := s.Create(ctx, nt); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	april := newTx("u1", 1, -1)
	april.OccurredAt = march.End
	if _, err := s.Create(ctx, april); err != nil {
		t.Fatalf("create: %v", err)
	}

	recs, err := s.List(ctx, store.QueryFor("u1", march))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	txs := core.NormalizeAll(recs)
	if len(txs) != 2 {
		t.Fatalf("got %d records, want 2", len(txs))
	}
	if txs[0].Amount != 500 || txs[1].Amount != -10 {
		t.Fatalf("want newest first, got %+v", txs)
	}
	if recs[0].Fields[core.FieldCreatedAt] == nil {
		t.Fatalf("created_at not set")
	}
}

func TestCreateRejectsInvalid(t *testing.T) {
	s := New()
	defer s.Close()
	nt := newTx("u1", 1, 0)
	if _, err := s.Create(context.Background(), nt); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
}

func TestDeleteIsOwnerScoped(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	id, err := s.Create(ctx, newTx("u1", 2, -3))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Delete(ctx, "u2", id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("foreign delete err = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "u1", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "u1", id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestWritesPushSnapshotsAndNotify(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	var changed []string
	s.OnChange(func(owner string) { changed = append(changed, owner) })

	snaps := make(chan []core.Record, 8)
	stop := s.Watch(store.QueryFor("u1", march), func(r []core.Record) { snaps <- r }, func(error) {})
	defer stop()

	wait := func() []core.Record {
		t.Helper()
		select {
		case r := <-snaps:
			return r
		case <-time.After(2 * time.Second):
			t.Fatalf("no snapshot")
			return nil
		}
	}
	if got := wait(); len(got) != 0 {
		t.Fatalf("initial snapshot = %v, want empty", got)
	}

	if _, err := s.Create(ctx, newTx("u1", 4, -20)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := wait(); len(got) != 1 {
		t.Fatalf("snapshot after create = %v", got)
	}
	if len(changed) != 1 || changed[0] != "u1" {
		t.Fatalf("change listeners saw %v", changed)
	}
}

func TestOwners(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()
	for _, o := range []string{"b", "a", "b"} {
		if _, err := s.Create(ctx, newTx(o, 1, -1)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	owners, err := s.Owners(ctx, march.Start, march.End)
	if err != nil || len(owners) != 2 || owners[0] != "a" || owners[1] != "b" {
		t.Fatalf("owners = %v, err = %v", owners, err)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.txt")

	s, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("missing file should give empty store: %v", err)
	}
	s.Close()

	content := "# owner;date;amount;category;title\n\nu1;2025-03-02;1000;Salary;Pay\nu1;2025-03-05;-12,50;Food;Lunch\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	defer s.Close()

	recs, _ := s.List(context.Background(), store.QueryFor("u1", march))
	txs := core.NormalizeAll(recs)
	if len(txs) != 2 || txs[0].Amount != -12.5 || txs[1].Title != "Pay" {
		t.Fatalf("unexpected seeded data: %+v", txs)
	}

	if err := os.WriteFile(path, []byte("broken line\n"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := NewFromFile(path); err == nil {
		t.Fatalf("expected error for malformed seed line")
	}
}

func TestSeedDateIsLocalCalendarDay(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	nt, err := parseSeedLine("alice;2025-03-01;-10;Food;lunch", est)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	w := core.Window{
		Start: time.Date(2025, 3, 1, 0, 0, 0, 0, est),
		End:   time.Date(2025, 4, 1, 0, 0, 0, 0, est),
	}
	if !w.Contains(nt.OccurredAt) {
		t.Fatalf("seeded %v outside March in EST", nt.OccurredAt)
	}

	s := New()
	defer s.Close()
	if _, err := s.Create(context.Background(), nt); err != nil {
		t.Fatalf("create: %v", err)
	}
	recs, err := s.List(context.Background(), store.QueryFor("alice", w))
	if err != nil || len(recs) != 1 {
		t.Fatalf("march records = %d, err = %v", len(recs), err)
	}
}
