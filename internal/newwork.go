package internal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/folio/internal/recent"
	"github.com/starford/folio/internal/works"
)

// NewWork scaffolds works/<name>.markdown as an unpublished draft and moves
// name to the top of the recency log. It returns the document's path
// relative to the site root.
func NewWork(ctx context.Context, name, title string, opts ...Option) (string, error) {
	app, err := newApplication(opts)
	if err != nil {
		return "", err
	}
	cfg := app.config
	logger := app.logger()

	store, err := app.openSite()
	if err != nil {
		return "", err
	}
	defer store.Close()
	if title == "" {
		title = name
	}

	repo := works.NewRepository(store, cfg.Site.WorksDir)
	if err := repo.Create(ctx, name, works.Scaffold(title, time.Now())); err != nil {
		return "", err
	}
	if err := recent.NewReader(store, cfg.Site.RecentLog).Touch(ctx, name); err != nil {
		return "", fmt.Errorf("update recency log: %w", err)
	}

	p := repo.PathFor(name)
	logger.Info("Work created", slog.String("work", name), slog.String("path", p))
	return p, nil
}
