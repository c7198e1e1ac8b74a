// Package memory keeps exported month reports in process, for development
// runs without Google credentials and for tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tracker/internal/sheets"
)

type Store struct {
	mu      sync.Mutex
	reports map[string]sheets.MonthReport
	writes  int
}

func New() *Store {
	return &Store{reports: make(map[string]sheets.MonthReport)}
}

// WriteMonthReport stores r, replacing an earlier export of the same
// owner and month, and returns a synthetic reference.
func (s *Store) WriteMonthReport(_ context.Context, r sheets.MonthReport) (string, error) {
	if r.OwnerID == "" || r.Month == "" {
		return "", fmt.Errorf("report needs owner and month")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[key(r.OwnerID, r.Month)] = r
	s.writes++
	return fmt.Sprintf("mem:%d", s.writes), nil
}

// Report returns the last export for owner and month.
func (s *Store) Report(ownerID, month string) (sheets.MonthReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[key(ownerID, month)]
	return r, ok
}

// Keys lists exported "owner|month" keys in order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.reports))
	for k := range s.reports {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func key(ownerID, month string) string {
	return ownerID + "|" + month
}
