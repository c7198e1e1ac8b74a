package http

import (
	"errors"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"tracker/internal/core"
)

func TestParseMonth(t *testing.T) {
	now := time.Date(2025, 1, 31, 18, 0, 0, 0, time.UTC)
	tests := []struct {
		query string
		want  string
		err   bool
	}{
		{"", "2025-01", false},
		{"step=1", "2025-02", false},
		{"month=2024-12&step=2", "2025-02", false},
		{"month=2025-03&step=-3", "2024-12", false},
		{"month=2025-3", "", true},
		{"step=one", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := parseMonth(q, now)
			if tt.err {
				if !errors.Is(err, errBadRequest) {
					t.Fatalf("err = %v, want errBadRequest", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseMonth: %v", err)
			}
			if got.Format("2006-01") != tt.want {
				t.Fatalf("got %s, want %s", got.Format("2006-01"), tt.want)
			}
		})
	}
}

func TestParseNewTransactionSign(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		body string
		want float64
	}{
		{`{"title":"a","amount":"-5","category":"c"}`, -5},
		{`{"title":"a","amount":"5","category":"c"}`, 5},
		{`{"title":"a","amount":"5","category":"c","is_income":false}`, -5},
		{`{"title":"a","amount":"-5","category":"c","is_income":true}`, 5},
		{`{"title":"a","amount":12.25,"category":"c","is_income":"false"}`, -12.25},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
		nt, err := parseNewTransaction(NewRequestBodyParser(r), "u1", now)
		if err != nil {
			t.Fatalf("%s: %v", tt.body, err)
		}
		if nt.Amount != tt.want {
			t.Errorf("%s: amount = %v, want %v", tt.body, nt.Amount, tt.want)
		}
		if nt.OwnerID != "u1" || !nt.OccurredAt.Equal(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("%s: parsed = %+v", tt.body, nt)
		}
	}
}

func TestParseNewTransactionErrors(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`title=a&amount=1.2.3&category=c`))
	if _, err := parseNewTransaction(NewRequestBodyParser(r), "u1", time.Now()); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  caf\x00e\tbar \x07"); got != "cafe\tbar" {
		t.Fatalf("got %q", got)
	}
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.allow("a") || !rl.allow("a") || rl.allow("a") {
		t.Fatalf("limit not enforced")
	}
	now = now.Add(61 * time.Second)
	if !rl.allow("a") {
		t.Fatalf("window did not reset")
	}
	now = now.Add(3 * time.Minute)
	if n := rl.cleanupStaleEntries(); n != 1 {
		t.Fatalf("cleaned %d, want 1", n)
	}
}
