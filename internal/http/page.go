package http

import (
	"html/template"
	"io/fs"
	"math"
	"net/http"

	"tracker/internal/dashboard"
	"tracker/internal/log"
	appweb "tracker/web"
)

const pageChartSize = 280

type monthPage struct {
	Home       dashboard.Home
	Pie        dashboard.Pie
	History    dashboard.History
	Chart      template.HTML
	UsageWidth int
	Token      string
}

func parseTemplates() (*template.Template, error) {
	return template.ParseFS(appweb.TemplatesFS, "templates/*.html")
}

func staticHandler() (http.Handler, error) {
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, err
	}
	files := http.StripPrefix("/static/", http.FileServerFS(sub))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		files.ServeHTTP(w, r)
	}), nil
}

// handlePage renders the month dashboard as HTML.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		InternalServerError("templates not loaded").Write(w)
		return
	}
	snap, err := s.loadSnapshot(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	home := dashboard.HomeView(snap)
	data := monthPage{
		Home:    home,
		Pie:     dashboard.PieView(snap),
		History: dashboard.HistoryView(snap),
		// Generated from fixed palette colors and numbers only.
		Chart:      template.HTML(dashboard.ChartSVG(snap, pageChartSize)),
		UsageWidth: int(math.Min(100, math.Max(0, home.UsagePercent))),
		Token:      r.URL.Query().Get("access_token"),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.templates.ExecuteTemplate(w, "month.html", data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to render month page", log.FieldError, err)
	}
}
