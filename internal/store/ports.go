// Package store defines the ports the tracker uses to reach its transaction
// store. Implementations live in store/memory and storage.
package store

import (
	"context"
	"errors"
	"time"

	"tracker/internal/core"
)

// ErrNotFound is returned when a record does not exist or is not visible to
// the requesting owner.
var ErrNotFound = errors.New("record not found")

// Query selects one owner's records with OccurredAt in [From, To), newest
// first.
type Query struct {
	OwnerID string
	From    time.Time
	To      time.Time
}

// QueryFor scopes a query to an owner and a month window.
func QueryFor(ownerID string, w core.Window) Query {
	return Query{OwnerID: ownerID, From: w.Start, To: w.End}
}

// Window returns the query's time range.
func (q Query) Window() core.Window {
	return core.Window{Start: q.From, End: q.To}
}

type (
	// Watcher delivers the full matching record set on every change. The
	// first snapshot arrives shortly after Watch returns. stop detaches the
	// callbacks; it never blocks on an in-flight delivery.
	Watcher interface {
		Watch(q Query, onSnapshot func([]core.Record), onError func(error)) (stop func())
	}

	Writer interface {
		// Create assigns the ID and created_at.
		Create(ctx context.Context, t core.NewTransaction) (id string, err error)
		// Delete removes ownerID's record id, or returns ErrNotFound.
		Delete(ctx context.Context, ownerID, id string) error
	}

	Lister interface {
		List(ctx context.Context, q Query) ([]core.Record, error)
		// Owners returns every owner with at least one record in [from, to).
		Owners(ctx context.Context, from, to time.Time) ([]string, error)
	}

	// Store is the full backend surface. Refresh re-runs the watches of an
	// owner after a change made by another process; OnChange registers a
	// callback fired after each local write.
	Store interface {
		Watcher
		Writer
		Lister
		Refresh(ownerID string)
		OnChange(fn func(ownerID string))
		Close() error
	}
)
