package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starford/folio/internal/index"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// WorkSummary is one entry of GET /api/works.
type WorkSummary struct {
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	Date     string   `json:"date,omitempty"`
	Link     string   `json:"link,omitempty"`
	Keywords []string `json:"keywords"`
}

// ListWorks handles GET /api/works.
func (h *Handler) ListWorks(w http.ResponseWriter, r *http.Request) {
	ws, err := h.works.Sorted(r.Context())
	if err != nil {
		h.logger.Error("list works failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	items := make([]WorkSummary, 0, len(ws))
	for _, wk := range ws {
		item := WorkSummary{Name: wk.Name, Title: wk.Title, Link: wk.Link, Keywords: wk.Keywords}
		if wk.DateValid {
			item.Date = wk.Date.Format("2006-01-02")
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"works": items,
		"total": len(items),
	})
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)

	results, err := h.index.Search(q, limit)
	if err != nil {
		h.logger.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// Keywords handles GET /api/keywords.
func (h *Handler) Keywords(w http.ResponseWriter, _ *http.Request) {
	counts, err := h.index.Keywords()
	if err != nil {
		h.logger.Error("keywords failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"keywords": counts,
	})
}
