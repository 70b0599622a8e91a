// Package web serves the portfolio over HTTP using chi.
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starford/folio/internal/works"
)

// RouterOptions carries the optional parts of the router.
type RouterOptions struct {
	// StaticDir is served under /static/ when set.
	StaticDir string
	// Events is mounted at GET /api/events when non-nil.
	Events http.Handler
	// Metrics is mounted at GET /metrics when non-nil.
	Metrics http.Handler
	// Middleware wraps every route, outermost first.
	Middleware []func(http.Handler) http.Handler
	// Ready reports readiness for /health/ready; nil means always ready.
	Ready func() error
}

// NewRouter creates a chi router with all site routes mounted.
func NewRouter(h *Handler, opts RouterOptions) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	for _, mw := range opts.Middleware {
		r.Use(mw)
	}
	r.Use(works.ScopeMiddleware)

	r.NotFound(h.NotFound)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if opts.Ready != nil {
			if err := opts.Ready(); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, errorBody(err.Error()))
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	if opts.StaticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir)))
		r.Method(http.MethodGet, "/static/*", fs)
	}

	r.Get("/", h.Home)
	r.Get("/works/{name}", h.Work)
	r.Get("/keywords/{keyword}", h.Keyword)

	r.Route("/api", func(r chi.Router) {
		r.Get("/works", h.ListWorks)
		r.Get("/search", h.Search)
		r.Get("/keywords", h.Keywords)
		if opts.Events != nil {
			r.Method(http.MethodGet, "/events", opts.Events)
		}
	})

	r.Get("/{key}", h.Redirect)

	return r
}
