// Package identity supplies the current user to the rest of the tracker.
//
// A Provider pushes the signed-in user ID, or "" when signed out, to its
// listeners. Session is the in-process implementation; JWTManager maps
// bearer tokens to user IDs at the HTTP edge.
package identity

import (
	"context"
	"sync"
)

type Provider interface {
	// OnAuthStateChanged calls fn with the current user right away and
	// again on every change.
	OnAuthStateChanged(fn func(userID string)) (unsubscribe func())
}

type Session struct {
	mu        sync.Mutex
	userID    string
	nextID    int
	listeners map[int]func(string)
	order     []int
}

func NewSession() *Session {
	return &Session{listeners: make(map[int]func(string))}
}

func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *Session) SignIn(userID string) { s.set(userID) }

func (s *Session) SignOut() { s.set("") }

func (s *Session) set(userID string) {
	s.mu.Lock()
	if s.userID == userID {
		s.mu.Unlock()
		return
	}
	s.userID = userID
	fns := s.snapshot()
	s.mu.Unlock()

	for _, fn := range fns {
		fn(userID)
	}
}

func (s *Session) snapshot() []func(string) {
	fns := make([]func(string), 0, len(s.order))
	for _, id := range s.order {
		if fn, ok := s.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

func (s *Session) OnAuthStateChanged(fn func(userID string)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.order = append(s.order, id)
	current := s.userID
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

type ctxKey struct{}

// WithUser returns a context carrying userID.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserFrom returns the user ID stored by WithUser, or "".
func UserFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Static is a Provider with a fixed user, used for request-scoped feeds.
type Static string

func (s Static) OnAuthStateChanged(fn func(string)) func() {
	fn(string(s))
	return func() {}
}
