package http

import (
	"net/http"
	"strconv"
	"time"

	"tracker/internal/identity"
	"tracker/internal/log"
	"tracker/internal/metrics"
)

// requireUser validates the bearer token and stores the user ID in the
// request context. EventSource cannot set headers, so ?access_token= is
// accepted as well.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := identity.BearerToken(r.Header.Get("Authorization"))
		if err != nil && r.URL.Query().Get("access_token") != "" {
			raw, err = r.URL.Query().Get("access_token"), nil
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		userID, err := s.tokens.Validate(raw)
		if err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Rejected token",
				log.FieldError, err.Error(),
				log.FieldClientIP, extractClientIP(r))
			writeError(w, r, err)
			return
		}
		ctx := identity.WithUser(r.Context(), userID)
		ctx = log.WithLogger(ctx, log.FromContext(ctx).With(log.FieldOwnerID, userID))
		next(w, r.WithContext(ctx))
	}
}

// limitWrites applies the per-client write budget.
func (s *Server) limitWrites(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := identity.UserFrom(r.Context())
		if key == "" {
			key = extractClientIP(r)
		}
		if !s.limiter.allow(key) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, extractClientIP(r),
				log.FieldMethod, r.Method)
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").
				Header("Retry-After", strconv.Itoa(int(s.limiter.window.Seconds()))).
				Write(w)
			return
		}
		next(w, r)
	}
}

// instrument records request counts and latency by route pattern.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &log.StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(path, strconv.Itoa(rec.Status)).Inc()
		metrics.HTTPDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	})
}
