// Package month owns the month cursor: a single reference date from which the
// half-open month window and its label are derived.
package month

import (
	"sync"
	"time"

	"tracker/internal/core"
)

// Window returns [first instant of ref's month, first instant of the next
// month) in ref's location.
func Window(ref time.Time) core.Window {
	y, m, _ := ref.Date()
	loc := ref.Location()
	return core.Window{
		Start: time.Date(y, m, 1, 0, 0, 0, 0, loc),
		End:   time.Date(y, m+1, 1, 0, 0, 0, 0, loc),
	}
}

// Step moves ref by delta months. The day is pinned to 1 so that stepping
// from the 31st never skips a short month.
func Step(ref time.Time, delta int) time.Time {
	y, m, _ := ref.Date()
	return time.Date(y, m+time.Month(delta), 1, 0, 0, 0, 0, ref.Location())
}

// Label renders "March 2025".
func Label(ref time.Time) string {
	return ref.Format("January 2006")
}

// Parse reads a "YYYY-MM" key in loc.
func Parse(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation("2006-01", key, loc)
}

// Cursor holds the reference date for one view. It is the in-process driver
// of a feed.Feed: register the feed's SetWindow with OnChange and every step
// re-scopes the live subscription. Stateless callers such as the HTTP API
// use Step and Parse directly.
type Cursor struct {
	mu       sync.Mutex
	ref      time.Time
	onChange []func(core.Window)
}

// Clock lets tests pin "now".
var Clock = time.Now

// NewCursor starts at ref, or now when ref is zero.
func NewCursor(ref time.Time) *Cursor {
	if ref.IsZero() {
		ref = Clock()
	}
	return &Cursor{ref: ref}
}

func (c *Cursor) Ref() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ref
}

func (c *Cursor) Window() core.Window {
	return Window(c.Ref())
}

func (c *Cursor) Label() string {
	return Label(c.Ref())
}

// Prev steps one month back and returns the new window.
func (c *Cursor) Prev() core.Window {
	return c.step(-1)
}

// Next steps one month forward and returns the new window.
func (c *Cursor) Next() core.Window {
	return c.step(1)
}

// Set jumps to ref. Listeners fire only when the month actually changes.
func (c *Cursor) Set(ref time.Time) core.Window {
	c.mu.Lock()
	old := Window(c.ref)
	c.ref = ref
	w := Window(ref)
	listeners := c.listeners()
	c.mu.Unlock()

	if !old.Equal(w) {
		notify(listeners, w)
	}
	return w
}

// OnChange registers fn to receive every new window.
func (c *Cursor) OnChange(fn func(core.Window)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = append(c.onChange, fn)
}

func (c *Cursor) step(delta int) core.Window {
	c.mu.Lock()
	c.ref = Step(c.ref, delta)
	w := Window(c.ref)
	listeners := c.listeners()
	c.mu.Unlock()

	notify(listeners, w)
	return w
}

func (c *Cursor) listeners() []func(core.Window) {
	return append([]func(core.Window){}, c.onChange...)
}

func notify(fns []func(core.Window), w core.Window) {
	for _, fn := range fns {
		fn(w)
	}
}
