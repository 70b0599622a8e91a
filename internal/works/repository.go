// Package works loads work documents from storage and keeps per-request
// copies of the parsed records.
package works

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/parser"
	"github.com/starford/folio/internal/storage"
)

// Ext is the file extension of work documents.
const Ext = models.WorkExt

// Repository reads and parses work documents.
type Repository struct {
	store storage.Provider
	dir   string
}

// NewRepository creates a repository reading documents from dir (relative to
// the storage root).
func NewRepository(store storage.Provider, dir string) *Repository {
	return &Repository{store: store, dir: dir}
}

// Dir returns the works directory relative to the storage root.
func (r *Repository) Dir() string {
	return r.dir
}

// PathFor returns the storage path of the named work.
func (r *Repository) PathFor(name string) string {
	return path.Join(r.dir, name+Ext)
}

// Get returns the named work. When ctx carries a Scope the record is served
// from, or stored in, that scope.
func (r *Repository) Get(ctx context.Context, name string) (*models.Work, error) {
	scope := ScopeFrom(ctx)
	if w, ok := scope.lookup(name); ok {
		return w, nil
	}

	if !ValidName(name) {
		return nil, apperr.MissingWork(name, apperr.ErrInvalidName)
	}
	p := r.PathFor(name)
	data, err := r.store.Read(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.MissingWork(name, err)
		}
		return nil, fmt.Errorf("works: read %s: %w", name, err)
	}
	w, err := parser.ParseWork(data)
	if err != nil {
		return nil, fmt.Errorf("works: parse %s: %w", name, err)
	}
	w.Name = name
	w.Path = p

	scope.store(w)
	return w, nil
}

// List returns every work in the works directory, published or not, in name
// order.
func (r *Repository) List(ctx context.Context) ([]*models.Work, error) {
	metas, err := r.store.List(r.dir, Ext)
	if err != nil {
		return nil, fmt.Errorf("works: list: %w", err)
	}
	out := make([]*models.Work, 0, len(metas))
	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w, err := r.Get(ctx, m.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

// Sorted returns the published works, newest first. Works without a valid
// date sort last; ties are broken by name.
func (r *Repository) Sorted(ctx context.Context) ([]*models.Work, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Work, 0, len(all))
	for _, w := range all {
		if w.Published {
			out = append(out, w)
		}
	}
	SortByDate(out)
	return out, nil
}

// SortByDate orders works newest first, undated last, then by name.
func SortByDate(ws []*models.Work) {
	sort.SliceStable(ws, func(i, j int) bool {
		a, b := ws[i], ws[j]
		if a.DateValid != b.DateValid {
			return a.DateValid
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.Name < b.Name
	})
}

// ValidName reports whether name can identify a work document.
func ValidName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}
