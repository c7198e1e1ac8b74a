package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"tracker/internal/cache"
	"tracker/internal/core"
	"tracker/internal/feed"
	"tracker/internal/metrics"
	"tracker/internal/store"
)

// Loader reads month snapshots through a cache. Concurrent loads of the
// same owner and month share one store query.
//
// Each owner has a generation bumped by Invalidate. A load only caches its
// result if the generation did not move while it ran, and loads started
// after an Invalidate never join a flight started before it.
type Loader struct {
	lister store.Lister
	cache  cache.Cache[Snapshot]
	group  singleflight.Group
	logger *slog.Logger

	mu   sync.Mutex
	gens map[string]uint64
}

func NewLoader(lister store.Lister, c cache.Cache[Snapshot], logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{lister: lister, cache: c, logger: logger, gens: make(map[string]uint64)}
}

// Load returns ownerID's snapshot for w.
func (l *Loader) Load(ctx context.Context, ownerID string, w core.Window) (Snapshot, error) {
	key := cacheKey(ownerID, w)
	if s, ok := l.cache.Get(key); ok {
		metrics.CacheHits.Inc()
		return s, nil
	}
	metrics.CacheMisses.Inc()

	gen := l.generation(ownerID)
	v, err, shared := l.group.Do(key+"#"+strconv.FormatUint(gen, 10), func() (interface{}, error) {
		recs, err := l.lister.List(ctx, store.QueryFor(ownerID, w))
		if err != nil {
			return nil, fmt.Errorf("list transactions: %w", err)
		}
		s := NewSnapshot(ownerID, w, feed.Scope(core.NormalizeAll(recs), ownerID, w))

		l.mu.Lock()
		if l.gens[ownerID] == gen {
			l.cache.Set(key, s)
		}
		l.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	if shared {
		l.logger.DebugContext(ctx, "Shared dashboard load", "owner_id", ownerID, "month", w.Key())
	}
	return v.(Snapshot), nil
}

// Invalidate drops every cached month of ownerID and keeps loads already
// in flight from caching what they read.
func (l *Loader) Invalidate(ownerID string) int {
	l.mu.Lock()
	l.gens[ownerID]++
	l.mu.Unlock()

	n := l.cache.DeletePrefix(ownerID + "|")
	if n > 0 {
		l.logger.Debug("Invalidated dashboard cache", "owner_id", ownerID, "entries", n)
	}
	return n
}

func (l *Loader) generation(ownerID string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gens[ownerID]
}

func cacheKey(ownerID string, w core.Window) string {
	return ownerID + "|" + w.Key()
}
