// Package http serves the tracker's JSON API, the breakdown chart and a
// live Server-Sent Events stream.
package http

import (
	"context"
	"html/template"
	"net/http"
	"sync"
	"time"

	"tracker/internal/dashboard"
	"tracker/internal/identity"
	"tracker/internal/log"
	"tracker/internal/metrics"
	"tracker/internal/services"
	"tracker/internal/store"
)

const (
	writeLimit      = 60
	writeWindow     = time.Minute
	readTimeout     = 10 * time.Second
	loadTimeout     = 7 * time.Second
	streamHeartbeat = 25 * time.Second
)

// Pinger is implemented by stores that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Store    store.Store
	Loader   *dashboard.Loader
	Tokens   *identity.JWTManager
	Logger   *log.Logger
	Location *time.Location
	// Transactions defaults to a service writing to Store with no broker.
	Transactions *services.TransactionService
}

type Server struct {
	http.Server
	store        store.Store
	transactions *services.TransactionService
	loader       *dashboard.Loader
	tokens       *identity.JWTManager
	logger       *log.Logger
	loc          *time.Location
	now          func() time.Time
	heartbeat    time.Duration
	limiter      *rateLimiter
	templates    *template.Template

	shutdownOnce sync.Once
}

// NewServer configures routes and returns a ready-to-run server. Local
// writes to the store invalidate the dashboard cache.
func NewServer(addr string, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Transactions == nil {
		opts.Transactions = services.NewTransactionService(opts.Store, nil, opts.Logger.Logger)
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: readTimeout,
		},
		store:        opts.Store,
		transactions: opts.Transactions,
		loader:       opts.Loader,
		tokens:       opts.Tokens,
		logger:       opts.Logger,
		loc:          opts.Location,
		now:          time.Now,
		heartbeat:    streamHeartbeat,
		limiter:      newRateLimiter(writeLimit, writeWindow),
	}
	go s.limiter.startCleanup(5 * time.Minute)

	t, err := parseTemplates()
	if err != nil {
		opts.Logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t
	if static, err := staticHandler(); err == nil {
		mux.Handle("GET /static/", static)
	} else {
		opts.Logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	s.store.OnChange(func(ownerID string) {
		s.loader.Invalidate(ownerID)
	})

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /{$}", s.requireUser(s.handlePage))
	mux.HandleFunc("GET /api/summary", s.requireUser(s.handleSummary))
	mux.HandleFunc("GET /api/breakdown", s.requireUser(s.handleBreakdown))
	mux.HandleFunc("GET /api/history", s.requireUser(s.handleHistory))
	mux.HandleFunc("GET /api/chart.svg", s.requireUser(s.handleChart))
	mux.HandleFunc("GET /api/stream", s.requireUser(s.handleStream))
	mux.HandleFunc("POST /api/transactions", s.requireUser(s.limitWrites(s.handleCreate)))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.requireUser(s.limitWrites(s.handleDelete)))

	s.Handler = log.Middleware(opts.Logger)(instrument(securityHeaders(mux)))
	return s
}

// Shutdown stops background work and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		ErrorResponse(http.StatusServiceUnavailable, "templates not loaded").Write(w)
		return
	}
	if p, ok := s.store.(Pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
			ErrorResponse(http.StatusServiceUnavailable, "store unavailable").Write(w)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
