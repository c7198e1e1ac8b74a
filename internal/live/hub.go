// Package live turns a one-shot query function into push-style watches.
//
// Each watch owns a goroutine that re-runs its query whenever the watch is
// kicked. Kicks coalesce: a burst of changes while a query is running yields
// exactly one more query, and every delivery is a complete snapshot.
package live

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"tracker/internal/core"
	"tracker/internal/store"
)

// ErrClosed is reported to watches opened after Close.
var ErrClosed = errors.New("live hub closed")

// QueryFunc runs one query against the backing store.
type QueryFunc func(ctx context.Context, q store.Query) ([]core.Record, error)

type Hub struct {
	query  QueryFunc
	logger *slog.Logger

	mu        sync.Mutex
	watches   map[string]map[*watch]struct{}
	listeners []func(ownerID string)
	closed    bool
}

type watch struct {
	q          store.Query
	onSnapshot func([]core.Record)
	onError    func(error)
	kick       chan struct{}
	ctx        context.Context
	cancel     context.CancelFunc
}

func New(query QueryFunc, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		query:   query,
		logger:  logger,
		watches: make(map[string]map[*watch]struct{}),
	}
}

// Watch implements store.Watcher. Callbacks always run on the watch's own
// goroutine, never inside Watch or stop.
func (h *Hub) Watch(q store.Query, onSnapshot func([]core.Record), onError func(error)) func() {
	ctx, cancel := context.WithCancel(context.Background())
	w := &watch{
		q:          q,
		onSnapshot: onSnapshot,
		onError:    onError,
		kick:       make(chan struct{}, 1),
		ctx:        ctx,
		cancel:     cancel,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		cancel()
		go onError(ErrClosed)
		return func() {}
	}
	set, ok := h.watches[q.OwnerID]
	if !ok {
		set = make(map[*watch]struct{})
		h.watches[q.OwnerID] = set
	}
	set[w] = struct{}{}
	h.mu.Unlock()

	w.kick <- struct{}{}
	go h.run(w)

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			h.remove(w)
		})
	}
}

func (h *Hub) run(w *watch) {
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.kick:
		}

		recs, err := h.query(w.ctx, w.q)
		if w.ctx.Err() != nil {
			return
		}
		if err != nil {
			h.logger.Warn("Watch query failed", "owner_id", w.q.OwnerID, "error", err)
			w.onError(err)
			continue
		}
		w.onSnapshot(recs)
	}
}

func (h *Hub) remove(w *watch) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.watches[w.q.OwnerID]
	delete(set, w)
	if len(set) == 0 {
		delete(h.watches, w.q.OwnerID)
	}
}

// Refresh re-runs every watch of ownerID.
func (h *Hub) Refresh(ownerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for w := range h.watches[ownerID] {
		select {
		case w.kick <- struct{}{}:
		default:
		}
	}
}

// Changed is called by the store after a local write: it refreshes the
// owner's watches and then fires the OnChange listeners.
func (h *Hub) Changed(ownerID string) {
	h.Refresh(ownerID)

	h.mu.Lock()
	listeners := append([]func(string){}, h.listeners...)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(ownerID)
	}
}

func (h *Hub) OnChange(fn func(ownerID string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Active returns the number of open watches.
func (h *Hub) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, set := range h.watches {
		n += len(set)
	}
	return n
}

// Close cancels every watch. Later watches fail with ErrClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, set := range h.watches {
		for w := range set {
			w.cancel()
		}
	}
	h.watches = make(map[string]map[*watch]struct{})
}
