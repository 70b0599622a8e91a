// Package homepage assembles the data behind the site's front page.
package homepage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/render"
)

// Template is the name of the homepage template.
const Template = "index"

// WorksSource yields the published works in display order.
type WorksSource interface {
	Sorted(ctx context.Context) ([]*models.Work, error)
}

// RecentSource yields the names of recently updated works.
type RecentSource interface {
	Read(ctx context.Context) ([]string, error)
}

// Site carries site-wide values shown by the layout.
type Site struct {
	Title       string
	Description string
	LiveReload  bool
}

// RenderContext is the data handed to the homepage template.
type RenderContext struct {
	Site            Site
	Works           []*models.Work
	RecentlyUpdated []string
}

// Assembler builds and renders the homepage.
type Assembler struct {
	works    WorksSource
	recent   RecentSource
	renderer render.Renderer
	site     Site
	logger   *slog.Logger
}

// NewAssembler creates an Assembler.
func NewAssembler(works WorksSource, recent RecentSource, renderer render.Renderer, site Site, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{works: works, recent: recent, renderer: renderer, site: site, logger: logger}
}

// Build fetches the sorted works and the recency log concurrently and waits
// for both. A failing recency log is logged and yields an empty list; a
// failing works fetch fails the build.
func (a *Assembler) Build(ctx context.Context) (*RenderContext, error) {
	rc := &RenderContext{Site: a.site, RecentlyUpdated: []string{}}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		names, err := a.recent.Read(gCtx)
		if err != nil {
			a.logger.Warn("homepage: recency log unavailable", slog.String("error", err.Error()))
			return nil
		}
		rc.RecentlyUpdated = names
		return nil
	})
	g.Go(func() error {
		ws, err := a.works.Sorted(gCtx)
		if err != nil {
			return fmt.Errorf("homepage: load works: %w", err)
		}
		rc.Works = ws
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rc, nil
}

// Render builds the context and renders the homepage template into w.
// Render errors are returned unchanged.
func (a *Assembler) Render(ctx context.Context, w io.Writer) error {
	rc, err := a.Build(ctx)
	if err != nil {
		return err
	}
	return a.renderer.Render(w, Template, rc)
}
