package feed

import (
	"sync"

	"tracker/internal/core"
	"tracker/internal/identity"
	"tracker/internal/store"
)

// Feed follows the current owner and month window and keeps at most one
// Subscription open for that pair. Re-subscription only happens when the
// pair actually changes, and the previous subscription is always canceled
// before the next one opens.
type Feed struct {
	w store.Watcher

	mu     sync.Mutex
	owner  string
	window core.Window
	sub    *Subscription
	gen    uint64
	closed bool

	stateMu   sync.Mutex
	current   State
	sourceGen uint64
	updates   chan State
	done      bool
}

// New starts a signed-out feed for window.
func New(w store.Watcher, window core.Window) *Feed {
	f := &Feed{
		w:       w,
		window:  window,
		updates: make(chan State, 1),
	}
	f.mu.Lock()
	f.resubscribe()
	f.mu.Unlock()
	return f
}

// SetOwner switches to ownerID's transactions; "" signs out.
func (f *Feed) SetOwner(ownerID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || ownerID == f.owner {
		return
	}
	f.owner = ownerID
	f.resubscribe()
}

// SetWindow moves the feed to another month.
func (f *Feed) SetWindow(w core.Window) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || w.Equal(f.window) {
		return
	}
	f.window = w
	f.resubscribe()
}

// Bind follows p's auth state until the returned func is called.
func (f *Feed) Bind(p identity.Provider) (unbind func()) {
	return p.OnAuthStateChanged(f.SetOwner)
}

// Current returns the latest published state.
func (f *Feed) Current() State {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	return f.current
}

// Updates delivers published states. Only the newest undelivered state is
// kept; the channel is closed by Close.
func (f *Feed) Updates() <-chan State {
	return f.updates
}

// Close cancels the active subscription and closes Updates.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	if f.sub != nil {
		f.sub.Cancel()
		f.sub = nil
	}

	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	f.done = true
	close(f.updates)
}

// resubscribe must be called with f.mu held.
func (f *Feed) resubscribe() {
	if f.sub != nil {
		f.sub.Cancel()
	}
	f.gen++
	gen := f.gen
	f.sub = Open(f.w, f.owner, f.window, func(st State) {
		f.publish(gen, st, false)
	})
	f.publish(gen, f.sub.State(), true)
}

// publish records st as current unless a newer generation already
// published. The initial state of a generation never overwrites a push from
// the same generation.
func (f *Feed) publish(gen uint64, st State, initial bool) {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	if f.done || gen < f.sourceGen || (initial && gen == f.sourceGen) {
		return
	}
	f.sourceGen = gen
	f.current = st

	select {
	case <-f.updates:
	default:
	}
	f.updates <- st
}
