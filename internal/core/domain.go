package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// DefaultCategory is used when a record carries no category.
	DefaultCategory = "Other"

	fallbackTitle    = "(No title)"
	fallbackCategory = "Uncategorized"
)

type (
	// Transaction is a normalized store record. The sign of Amount encodes
	// direction: non-negative is income, negative is an expense.
	Transaction struct {
		ID          string
		OwnerID     string
		Title       string
		Amount      float64
		OccurredAt  time.Time
		Category    string
		Description string
	}

	// Window is a half-open calendar month range [Start, End).
	Window struct {
		Start time.Time
		End   time.Time
	}

	// Record is a raw store record as it comes off the wire.
	Record struct {
		ID     string
		Fields map[string]any
	}

	// NewTransaction is the input to a store create.
	NewTransaction struct {
		OwnerID     string
		Title       string
		Amount      float64
		OccurredAt  time.Time
		Category    string
		Description string
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyTitle    = errors.New("empty title")
	ErrEmptyCategory = errors.New("empty category")
	ErrEmptyOwner    = errors.New("empty owner")
)

// IsIncome reports whether the transaction adds to the month's income.
func (t Transaction) IsIncome() bool {
	return t.Amount >= 0
}

// DisplayTitle returns the title or a placeholder when it is blank.
func (t Transaction) DisplayTitle() string {
	if strings.TrimSpace(t.Title) == "" {
		return fallbackTitle
	}
	return t.Title
}

// DisplayCategory returns the category or "Uncategorized".
func (t Transaction) DisplayCategory() string {
	if strings.TrimSpace(t.Category) == "" {
		return fallbackCategory
	}
	return t.Category
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// IsZero reports whether the window was never set.
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// Equal compares both bounds as instants.
func (w Window) Equal(o Window) bool {
	return w.Start.Equal(o.Start) && w.End.Equal(o.End)
}

// Key is a stable "YYYY-MM" identifier for the window's month.
func (w Window) Key() string {
	return w.Start.Format("2006-01")
}

func (n NewTransaction) Validate() error {
	if strings.TrimSpace(n.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(n.Title) == "" {
		return ErrEmptyTitle
	}
	if len(n.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if n.Amount == 0 || !isFinite(n.Amount) {
		return ErrInvalidAmount
	}
	if n.OccurredAt.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(n.Category) == "" {
		return ErrEmptyCategory
	}
	if len(n.Description) > 1000 {
		return errors.New("description too long (max 1000 characters)")
	}
	return nil
}

// Transaction is what a store holds after creating n under id.
func (n NewTransaction) Transaction(id string) Transaction {
	return Transaction{
		ID:          id,
		OwnerID:     n.OwnerID,
		Title:       strings.TrimSpace(n.Title),
		Amount:      n.Amount,
		OccurredAt:  n.OccurredAt,
		Category:    strings.TrimSpace(n.Category),
		Description: n.Description,
	}
}
