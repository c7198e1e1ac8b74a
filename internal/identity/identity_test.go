package identity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSessionNotifiesCurrentAndChanges(t *testing.T) {
	s := NewSession()
	var seen []string
	unsub := s.OnAuthStateChanged(func(id string) { seen = append(seen, id) })

	s.SignIn("u1")
	s.SignIn("u1")
	s.SignOut()
	unsub()
	unsub()
	s.SignIn("u2")

	want := []string{"", "u1", ""}
	if len(seen) != len(want) {
		t.Fatalf("seen = %q, want %q", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("seen = %q, want %q", seen, want)
		}
	}
	if s.UserID() != "u2" {
		t.Fatalf("UserID = %q, want u2", s.UserID())
	}
}

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	tok, err := m.Generate("user-42")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	id, err := m.Validate(tok)
	if err != nil || id != "user-42" {
		t.Fatalf("validate = %q, %v", id, err)
	}
}

func TestJWTRejects(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	tok, _ := m.Generate("u1")

	other := NewJWTManager("other", time.Hour)
	if _, err := other.Validate(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret: err = %v", err)
	}
	if _, err := m.Validate(""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("empty: err = %v", err)
	}
	if _, err := m.Validate("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage: err = %v", err)
	}

	expired := NewJWTManager("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _ := expired.Generate("u1")
	if _, err := m.Validate(old); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired: err = %v", err)
	}
	if _, err := m.Generate(" "); err == nil {
		t.Fatalf("expected error for blank user id")
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		err    error
	}{
		{"", "", ErrMissingToken},
		{"Bearer abc", "abc", nil},
		{"Basic abc", "", ErrInvalidToken},
		{"Bearer", "", ErrInvalidToken},
		{"Bearer a b", "", ErrInvalidToken},
	}
	for _, tc := range cases {
		got, err := BearerToken(tc.header)
		if got != tc.want || !errors.Is(err, tc.err) {
			t.Fatalf("BearerToken(%q) = %q, %v; want %q, %v", tc.header, got, err, tc.want, tc.err)
		}
	}
}

func TestContextUser(t *testing.T) {
	ctx := WithUser(context.Background(), "u1")
	if UserFrom(ctx) != "u1" || UserFrom(context.Background()) != "" {
		t.Fatalf("context round trip failed")
	}
}
