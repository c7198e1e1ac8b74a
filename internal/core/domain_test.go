package core

import (
	"testing"
	"time"
)

func TestNewTransactionValidate(t *testing.T) {
	good := NewTransaction{
		OwnerID:    "u1",
		Title:      "Groceries",
		Amount:     -42.5,
		OccurredAt: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		Category:   "Food",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []NewTransaction{
		{Title: "a", Amount: 1, OccurredAt: good.OccurredAt, Category: "c"},                // no owner
		{OwnerID: "u", Title: " ", Amount: 1, OccurredAt: good.OccurredAt, Category: "c"},  // blank title
		{OwnerID: "u", Title: "a", Amount: 0, OccurredAt: good.OccurredAt, Category: "c"},  // zero amount
		{OwnerID: "u", Title: "a", Amount: 1, Category: "c"},                               // zero date
		{OwnerID: "u", Title: "a", Amount: 1, OccurredAt: good.OccurredAt, Category: "  "}, // blank category
	}
	for i, n := range bads {
		if err := n.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestWindowContains(t *testing.T) {
	w := Window{
		Start: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	cases := []struct {
		at   time.Time
		want bool
	}{
		{w.Start, true},
		{w.End, false},
		{w.End.Add(-time.Nanosecond), true},
		{w.Start.Add(-time.Nanosecond), false},
	}
	for i, tc := range cases {
		if got := w.Contains(tc.at); got != tc.want {
			t.Fatalf("case %d: Contains(%v) = %v, want %v", i, tc.at, got, tc.want)
		}
	}
	if w.Key() != "2025-03" {
		t.Fatalf("unexpected key %q", w.Key())
	}
}

func TestDisplayFallbacks(t *testing.T) {
	var tx Transaction
	if tx.DisplayTitle() != "(No title)" {
		t.Fatalf("unexpected title fallback %q", tx.DisplayTitle())
	}
	if tx.DisplayCategory() != "Uncategorized" {
		t.Fatalf("unexpected category fallback %q", tx.DisplayCategory())
	}
	if !tx.IsIncome() {
		t.Fatalf("zero amount counts as income")
	}
}
