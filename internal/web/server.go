package web

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jaminalder/blockblast/internal/app"
)

// NewServer wires routes and returns an http.Handler. It installs a board
// renderer on s so subscribers receive HTML fragments.
func NewServer(s *app.Service, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{svc: s, tpl: loadTemplates(), log: logger}
	s.SetRenderer(func(st app.SessionState) []byte {
		// SSE data lines cannot contain newlines
		return bytes.ReplaceAll(h.renderBoard(st, "", ""), []byte("\n"), nil)
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Get("/", h.index)
	r.Get("/records", h.records)
	r.Post("/game", h.create)
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", h.view)
		r.Get("/state", h.state)
		r.Post("/place", h.place)
		r.Post("/drop", h.drop)
		r.Post("/press", h.press)
		r.Post("/drag", h.drag)
		r.Post("/cancel", h.cancel)
		r.Post("/release", h.release)
		r.Post("/restart", h.restart)
		r.Get("/events", h.events)
	})
	return r
}

// requestLogger logs method, path, status, bytes, and duration.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			t0 := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"dur", time.Since(t0).Round(time.Millisecond),
				"req_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
