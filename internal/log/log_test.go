package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLevelFromString(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := LevelFromString(in); got != want {
			t.Fatalf("LevelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentFeed, Output: &buf})
	l.Info("hello", "k", 1)
	l.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry[FieldComponent] != ComponentFeed || entry["msg"] != "hello" {
		t.Fatalf("entry = %v", entry)
	}
}

func TestFieldsBuilder(t *testing.T) {
	f := NewFields().
		WithOperation(OpExport).
		WithOwner("u1", "2025-03").
		WithError(nil)
	if _, ok := f[FieldError]; ok {
		t.Fatalf("nil error must not add a field")
	}
	f.WithError(errors.New("boom"))
	s := f.ToSlice()
	if len(s) != 8 || s[0] != FieldError || s[1] != "boom" {
		t.Fatalf("ToSlice = %v", s)
	}
}

func TestMiddlewareSetsRequestIDAndLogs(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "json", Output: &buf})

	var seen *Logger
	h := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/summary?month=2025-03", nil))

	if rr.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("request id header missing")
	}
	if seen == nil || seen.Component() != ComponentHTTP {
		t.Fatalf("handler did not get the request logger")
	}
	if !strings.Contains(buf.String(), `"status_code":418`) {
		t.Fatalf("access log missing status: %s", buf.String())
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	h.ServeHTTP(rr, req)
	if rr.Header().Get(RequestIDHeader) != "abc" {
		t.Fatalf("incoming request id not echoed")
	}
}
