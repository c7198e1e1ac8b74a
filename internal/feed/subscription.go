// Package feed keeps a live, month-scoped transaction set for one owner.
//
// A Subscription wraps exactly one store watch. Every push replaces the set
// wholesale; nothing is ever patched in place. Once Cancel returns the
// subscription is inert: late pushes from the store are dropped and the
// change callback is never called again.
package feed

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"tracker/internal/core"
	"tracker/internal/metrics"
	"tracker/internal/store"
)

var ErrSubscription = errors.New("transaction subscription failed")

// State is what a feed publishes. Transactions is never mutated after
// publication.
type State struct {
	OwnerID      string
	Window       core.Window
	Transactions []core.Transaction
	Loaded       bool
	Err          error
}

type Subscription struct {
	mu       sync.Mutex
	state    State
	stop     func()
	canceled bool
	onChange func(State)
}

// Open starts watching ownerID's transactions inside window. With an empty
// ownerID the subscription is born loaded and empty and the store is never
// contacted.
//
// onChange runs on the store's goroutine for every push or error. It must
// not call Cancel on the same subscription. The state right after Open is
// available from State.
func Open(w store.Watcher, ownerID string, window core.Window, onChange func(State)) *Subscription {
	s := &Subscription{
		state:    State{OwnerID: ownerID, Window: window},
		onChange: onChange,
	}
	if ownerID == "" {
		s.state.Loaded = true
		s.state.Transactions = []core.Transaction{}
		return s
	}

	stop := w.Watch(store.QueryFor(ownerID, window), s.handleSnapshot, s.handleError)
	metrics.SubscriptionsOpened.Inc()
	metrics.SubscriptionsActive.Inc()

	s.mu.Lock()
	s.stop = stop
	s.mu.Unlock()
	return s
}

func (s *Subscription) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cancel detaches from the store. It is synchronous and idempotent.
func (s *Subscription) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canceled {
		return
	}
	s.canceled = true
	if s.stop != nil {
		s.stop()
		s.stop = nil
		metrics.SubscriptionsCanceled.Inc()
		metrics.SubscriptionsActive.Dec()
	}
}

func (s *Subscription) handleSnapshot(recs []core.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canceled {
		return
	}
	s.state = State{
		OwnerID:      s.state.OwnerID,
		Window:       s.state.Window,
		Transactions: Scope(core.NormalizeAll(recs), s.state.OwnerID, s.state.Window),
		Loaded:       true,
	}
	metrics.Snapshots.Inc()
	if s.onChange != nil {
		s.onChange(s.state)
	}
}

func (s *Subscription) handleError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canceled {
		return
	}
	slog.Warn("Transaction subscription failed",
		"owner_id", s.state.OwnerID,
		"window", s.state.Window.Key(),
		"error", err)
	metrics.SubscriptionErrors.Inc()

	s.state.Loaded = true
	s.state.Err = fmt.Errorf("%w: %w", ErrSubscription, err)
	if s.onChange != nil {
		s.onChange(s.state)
	}
}

// Scope drops anything outside ownerID and w and sorts newest
// first.
func Scope(txs []core.Transaction, ownerID string, w core.Window) []core.Transaction {
	out := txs[:0]
	for _, t := range txs {
		if t.OwnerID != ownerID || !w.Contains(t.OccurredAt) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	return out
}
