// Package memory is an in-process transaction store for development and
// tests.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tracker/internal/core"
	"tracker/internal/live"
	"tracker/internal/store"
)

type row struct {
	tx        core.Transaction
	createdAt time.Time
}

type Store struct {
	*live.Hub

	mu    sync.Mutex
	items map[string]row
	now   func() time.Time
}

func New() *Store {
	s := &Store{items: make(map[string]row), now: time.Now}
	s.Hub = live.New(s.List, slog.Default().With("component", "memory-store"))
	return s
}

// NewFromFile seeds a store from a text file with one transaction per line:
//
//	owner;YYYY-MM-DD;amount;category;title
//
// Blank lines and lines starting with '#' are skipped. A missing file yields
// an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	lines := readLines(path)
	for i, line := range lines {
		nt, err := parseSeedLine(line, time.Local)
		if err != nil {
			return nil, fmt.Errorf("seed line %d: %w", i+1, err)
		}
		if _, err := s.Create(context.Background(), nt); err != nil {
			return nil, fmt.Errorf("seed line %d: %w", i+1, err)
		}
	}
	return s, nil
}

// Create validates and stores the transaction.
func (s *Store) Create(_ context.Context, nt core.NewTransaction) (string, error) {
	if err := nt.Validate(); err != nil {
		return "", err
	}
	id := uuid.NewString()

	s.mu.Lock()
	s.items[id] = row{
		tx:        nt.Transaction(id),
		createdAt: s.now(),
	}
	s.mu.Unlock()

	s.Changed(nt.OwnerID)
	return id, nil
}

func (s *Store) Delete(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	r, ok := s.items[id]
	if !ok || r.tx.OwnerID != ownerID {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	delete(s.items, id)
	s.mu.Unlock()

	s.Changed(ownerID)
	return nil
}

// List returns the matching records newest first, ties broken by creation
// time.
func (s *Store) List(_ context.Context, q store.Query) ([]core.Record, error) {
	s.mu.Lock()
	matched := make([]row, 0)
	for _, r := range s.items {
		if r.tx.OwnerID != q.OwnerID || !q.Window().Contains(r.tx.OccurredAt) {
			continue
		}
		matched = append(matched, r)
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.tx.OccurredAt.Equal(b.tx.OccurredAt) {
			return a.tx.OccurredAt.After(b.tx.OccurredAt)
		}
		return a.createdAt.After(b.createdAt)
	})

	out := make([]core.Record, 0, len(matched))
	for _, r := range matched {
		rec := core.ToRecord(r.tx)
		rec.Fields[core.FieldCreatedAt] = r.createdAt
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) Owners(_ context.Context, from, to time.Time) ([]string, error) {
	w := core.Window{Start: from, End: to}
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]struct{}{}
	for _, r := range s.items {
		if w.Contains(r.tx.OccurredAt) {
			seen[r.tx.OwnerID] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for o := range seen {
		out = append(out, o)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) Close() error {
	s.Hub.Close()
	return nil
}

// parseSeedLine reads "owner;YYYY-MM-DD;amount;category;title". The date is
// a calendar day in loc.
func parseSeedLine(line string, loc *time.Location) (core.NewTransaction, error) {
	parts := strings.Split(line, ";")
	if len(parts) != 5 {
		return core.NewTransaction{}, fmt.Errorf("want 5 fields, got %d", len(parts))
	}
	date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(parts[1]), loc)
	if err != nil {
		return core.NewTransaction{}, core.ErrInvalidDate
	}
	amount, err := core.ParseAmount(parts[2])
	if err != nil {
		return core.NewTransaction{}, err
	}
	return core.NewTransaction{
		OwnerID:    strings.TrimSpace(parts[0]),
		OccurredAt: date,
		Amount:     amount,
		Category:   strings.TrimSpace(parts[3]),
		Title:      strings.TrimSpace(parts[4]),
	}, nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
