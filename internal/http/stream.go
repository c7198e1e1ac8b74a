package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"tracker/internal/dashboard"
	"tracker/internal/feed"
	"tracker/internal/identity"
	"tracker/internal/log"
	"tracker/internal/month"
)

// streamEvent is the payload of every "snapshot" event.
type streamEvent struct {
	Loaded  bool              `json:"loaded"`
	Error   string            `json:"error,omitempty"`
	Home    dashboard.Home    `json:"home"`
	Pie     dashboard.Pie     `json:"pie"`
	History dashboard.History `json:"history"`
}

func eventFor(st feed.State) streamEvent {
	snap := dashboard.NewSnapshot(st.OwnerID, st.Window, st.Transactions)
	ev := streamEvent{
		Loaded:  st.Loaded,
		Home:    dashboard.HomeView(snap),
		Pie:     dashboard.PieView(snap),
		History: dashboard.HistoryView(snap),
	}
	if st.Err != nil {
		ev.Error = st.Err.Error()
	}
	return ev
}

// handleStream pushes the caller's month as Server-Sent Events. A live feed
// is opened for the request and closed when the client goes away; every
// store push becomes one event.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		InternalServerError("streaming unsupported").Write(w)
		return
	}
	ref, err := parseMonth(r.URL.Query(), s.now().In(s.loc))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx := r.Context()
	logger := log.FromContext(ctx)

	f := feed.New(s.store, month.Window(ref))
	defer f.Close()
	unbind := f.Bind(identity.Static(identity.UserFrom(ctx)))
	defer unbind()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logger.InfoContext(ctx, "Stream opened",
		log.FieldOperation, log.OpStream,
		log.FieldMonth, month.Window(ref).Key())

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "Stream closed", log.FieldOperation, log.OpStream)
			return
		case st, ok := <-f.Updates():
			if !ok {
				return
			}
			if !st.Loaded {
				continue
			}
			data, err := json.Marshal(eventFor(st))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to encode stream event", log.FieldError, err.Error())
				return
			}
			if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
