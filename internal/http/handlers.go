package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"tracker/internal/dashboard"
	"tracker/internal/identity"
	"tracker/internal/log"
	"tracker/internal/month"
)

// loadSnapshot resolves the requested month and loads the caller's
// snapshot with a bounded deadline.
func (s *Server) loadSnapshot(r *http.Request) (dashboard.Snapshot, error) {
	ref, err := parseMonth(r.URL.Query(), s.now().In(s.loc))
	if err != nil {
		return dashboard.Snapshot{}, err
	}
	ctx, cancel := context.WithTimeout(r.Context(), loadTimeout)
	defer cancel()
	return s.loader.Load(ctx, identity.UserFrom(r.Context()), month.Window(ref))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loadSnapshot(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(dashboard.HomeView(snap)).Write(w)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loadSnapshot(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(dashboard.PieView(snap)).Write(w)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loadSnapshot(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(dashboard.HistoryView(snap)).Write(w)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loadSnapshot(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	size := 0.0
	if v := strings.TrimSpace(r.URL.Query().Get("size")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 64 || n > 2048 {
			BadRequestError("size must be between 64 and 2048").Write(w)
			return
		}
		size = float64(n)
	}
	NewResponse().SVG(dashboard.ChartSVG(snap, size)).Write(w)
}

type createdResponse struct {
	ID  string                   `json:"id"`
	Row dashboard.TransactionRow `json:"transaction"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ownerID := identity.UserFrom(r.Context())
	nt, err := parseNewTransaction(NewRequestBodyParser(r), ownerID, s.now().In(s.loc))
	if err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := s.transactions.Create(r.Context(), nt)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).Fields(r.Context(), slog.LevelInfo, "Transaction created", log.NewFields().
		WithOperation(log.OpCreate).
		WithTransaction(tx.ID, tx.Amount, tx.Category))

	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+tx.ID).
		JSON(createdResponse{ID: tx.ID, Row: dashboard.Row(tx)}).
		Write(w)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		BadRequestError("missing transaction id").Write(w)
		return
	}
	if err := s.transactions.Delete(r.Context(), identity.UserFrom(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldTxID, id)
	w.WriteHeader(http.StatusNoContent)
}
