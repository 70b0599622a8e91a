package web

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/homepage"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/render"
	"github.com/starford/folio/internal/works"
)

// Page template names.
const (
	workTemplate    = "work"
	keywordTemplate = "keyword"
	errorTemplate   = "error"
)

// RenderObserver is told about failed page renders.
type RenderObserver interface {
	RenderFailed(template string)
}

// Handler holds the site's route handlers.
type Handler struct {
	works     *works.Repository
	index     index.WorkIndex
	home      *homepage.Assembler
	renderer  render.Renderer
	site      homepage.Site
	redirects map[string]string
	observer  RenderObserver
	logger    *slog.Logger
}

// HandlerConfig collects the Handler's collaborators.
type HandlerConfig struct {
	Works     *works.Repository
	Index     index.WorkIndex
	Home      *homepage.Assembler
	Renderer  render.Renderer
	Site      homepage.Site
	Redirects map[string]string
	// Observer may be nil.
	Observer RenderObserver
	Logger   *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	redirects := cfg.Redirects
	if redirects == nil {
		redirects = map[string]string{}
	}
	return &Handler{
		works:     cfg.Works,
		index:     cfg.Index,
		home:      cfg.Home,
		renderer:  cfg.Renderer,
		site:      cfg.Site,
		redirects: redirects,
		observer:  cfg.Observer,
		logger:    logger,
	}
}

// WorkPage is the data handed to the work template.
type WorkPage struct {
	Site homepage.Site
	Work *models.Work
}

// KeywordPage is the data handed to the keyword template.
type KeywordPage struct {
	Site    homepage.Site
	Keyword string
	Works   []index.WorkRow
}

// ErrorPage is the data handed to the error template.
type ErrorPage struct {
	Site    homepage.Site
	Status  int
	Message string
}

// Home handles GET /.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.home.Render(r.Context(), &buf); err != nil {
		h.renderFailed(homepage.Template, err)
		h.errorPage(w, http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
}

// Work handles GET /works/{name}. Unpublished works are not served.
func (h *Handler) Work(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	work, err := h.works.Get(r.Context(), name)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			h.errorPage(w, http.StatusNotFound)
			return
		}
		h.logger.Error("get work failed", slog.String("work", name), slog.String("error", err.Error()))
		h.errorPage(w, http.StatusInternalServerError)
		return
	}
	if !work.Published {
		h.errorPage(w, http.StatusNotFound)
		return
	}
	h.page(w, workTemplate, WorkPage{Site: h.site, Work: work})
}

// Keyword handles GET /keywords/{keyword}.
func (h *Handler) Keyword(w http.ResponseWriter, r *http.Request) {
	kw := chi.URLParam(r, "keyword")
	rows, err := h.index.ByKeyword(kw)
	if err != nil {
		h.logger.Error("works by keyword failed", slog.String("keyword", kw), slog.String("error", err.Error()))
		h.errorPage(w, http.StatusInternalServerError)
		return
	}
	if len(rows) == 0 {
		h.errorPage(w, http.StatusNotFound)
		return
	}
	h.page(w, keywordTemplate, KeywordPage{Site: h.site, Keyword: kw, Works: rows})
}

// Redirect handles GET /{key} from the redirect table.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	target, ok := h.redirects[chi.URLParam(r, "key")]
	if !ok {
		h.errorPage(w, http.StatusNotFound)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// NotFound answers unmatched routes.
func (h *Handler) NotFound(w http.ResponseWriter, _ *http.Request) {
	h.errorPage(w, http.StatusNotFound)
}

func (h *Handler) page(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, name, data); err != nil {
		h.renderFailed(name, err)
		h.errorPage(w, http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
}

// errorPage renders the error template, falling back to plain text when the
// template itself cannot be rendered.
func (h *Handler) errorPage(w http.ResponseWriter, status int) {
	var buf bytes.Buffer
	data := ErrorPage{Site: h.site, Status: status, Message: http.StatusText(status)}
	if err := h.renderer.Render(&buf, errorTemplate, data); err != nil {
		h.renderFailed(errorTemplate, err)
		http.Error(w, http.StatusText(status), status)
		return
	}
	writeHTML(w, status, buf.Bytes())
}

func (h *Handler) renderFailed(name string, err error) {
	h.logger.Error("render failed", slog.String("template", name), slog.String("error", err.Error()))
	if h.observer != nil {
		h.observer.RenderFailed(name)
	}
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
