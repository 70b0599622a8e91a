// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/homepage"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/mcpserver"
	"github.com/starford/folio/internal/metrics"
	"github.com/starford/folio/internal/recent"
	"github.com/starford/folio/internal/render"
	"github.com/starford/folio/internal/sse"
	"github.com/starford/folio/internal/storage"
	"github.com/starford/folio/internal/web"
	"github.com/starford/folio/internal/works"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// logger builds the structured JSON logger and installs it as the default.
func (a *application) logger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// openSite ensures the works directory exists and opens storage on the site root.
func (a *application) openSite() (*storage.FS, error) {
	cfg := a.config.Site
	if err := os.MkdirAll(filepath.Join(cfg.Root, filepath.FromSlash(cfg.WorksDir)), 0o755); err != nil {
		return nil, fmt.Errorf("create works dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	return store, nil
}

// openIndex opens the SQLite index and syncs it with the works directory.
func (a *application) openIndex(store storage.Provider, logger *slog.Logger) (*index.DB, error) {
	db, err := index.Open(a.config.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	if err := index.Sync(db, store, a.config.Site.WorksDir, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	return db, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("site_root", cfg.Site.Root),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("dev", cfg.App.Dev),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := app.openSite()
	if err != nil {
		return err
	}
	defer store.Close()
	db, err := app.openIndex(store, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	m := metrics.NewHTTPMetrics()
	if checksums, err := db.AllChecksums(); err == nil {
		m.SetIndexedWorks(len(checksums))
	}

	broker := sse.NewBroker(sse.Config{ReloadThrottle: 2 * time.Second})
	defer broker.Close()

	repo := works.NewRepository(store, cfg.Site.WorksDir)
	renderer := render.NewTemplates(cfg.Site.Templates(), cfg.App.Dev)
	site := homepage.Site{
		Title:       cfg.Site.Title,
		Description: cfg.Site.Description,
		LiveReload:  cfg.App.Dev,
	}

	handler := web.NewHandler(web.HandlerConfig{
		Works:     repo,
		Index:     db,
		Home:      homepage.NewAssembler(repo, recent.NewReader(store, cfg.Site.RecentLog), renderer, site, logger),
		Renderer:  renderer,
		Site:      site,
		Redirects: cfg.Redirects,
		Observer:  m,
		Logger:    logger,
	})
	router := web.NewRouter(handler, web.RouterOptions{
		StaticDir:  cfg.Site.Static(),
		Events:     broker,
		Metrics:    m.Handler(),
		Middleware: []func(http.Handler) http.Handler{m.Middleware},
		Ready: func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return db.Ping(pingCtx)
		},
	})

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// File watcher keeps the index current and feeds live reload.
	g.Go(func() error {
		err := index.Watch(gCtx, db, store, cfg.Site.Root, cfg.Site.WorksDir, logger, func(kind, name string) {
			m.WorkEvent(kind)
			broker.PublishWorkEvent(kind, name)
		})
		if err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Open SSE streams would hold Shutdown until the timeout.
		broker.Close()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools over stdio. Logs go to stderr unless another
// output was given, since stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	store, err := app.openSite()
	if err != nil {
		return err
	}
	defer store.Close()
	db, err := app.openIndex(store, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	srv := mcpserver.New(
		works.NewRepository(store, cfg.Site.WorksDir),
		recent.NewReader(store, cfg.Site.RecentLog),
		db,
		app.version,
	)

	logger.Info("MCP server starting on stdio")
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}
