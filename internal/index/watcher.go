package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/storage"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted"; name is the work name.
type EventCallback func(kind string, name string)

const reconcileDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the works directory (dir, relative to
// siteRoot) and keeps the index current until ctx is cancelled. It calls cb
// (if non-nil) after each successful index mutation.
//
// Rename events trigger a debounced reconciliation pass that removes stale
// entries and indexes files the rename produced.
func Watch(ctx context.Context, db *DB, store storage.Provider, siteRoot, dir string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	worksDir := filepath.Join(siteRoot, filepath.FromSlash(dir))
	if err := w.Add(worksDir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("dir", worksDir))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	notify := func(kind, name string) {
		if cb != nil {
			cb(kind, name)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, store, dir, logger, notify)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			base := filepath.Base(ev.Name)
			if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, models.WorkExt) {
				continue
			}
			name := strings.TrimSuffix(base, models.WorkExt)
			p := workPath(dir, name)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := store.Read(p)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("work", name), slog.String("error", readErr.Error()))
					continue
				}
				if idxErr := indexFile(db, name, p, data, time.Now()); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("work", name), slog.String("error", idxErr.Error()))
					continue
				}
				kind := "updated"
				if ev.Op&fsnotify.Create != 0 {
					kind = "created"
				}
				logger.Debug("watcher: indexed", slog.String("work", name), slog.String("op", kind))
				notify(kind, name)

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteWork(name); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("work", name), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("work", name))
				notify("deleted", name)

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify reports Rename on the old name only; the new name
				// arrives as a Create if it stays in the directory.
				if delErr := db.DeleteWork(name); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("work", name), slog.String("error", delErr.Error()))
				} else {
					logger.Debug("watcher: rename old deleted", slog.String("work", name))
					notify("deleted", name)
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile removes index entries without a file on disk and indexes files
// whose checksum differs from the index.
func reconcile(db *DB, store storage.Provider, dir string, logger *slog.Logger, notify func(kind, name string)) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	metas, err := store.List(dir, models.WorkExt)
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]models.WorkMetadata, len(metas))
	for _, m := range metas {
		disk[m.Name] = m
	}

	for name := range checksums {
		if _, ok := disk[name]; !ok {
			if delErr := db.DeleteWork(name); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("work", name))
				notify("deleted", name)
			}
		}
	}

	for name, m := range disk {
		if checksums[name] == m.Checksum {
			continue
		}
		data, readErr := store.Read(m.Path)
		if readErr != nil {
			continue
		}
		if idxErr := indexFile(db, name, m.Path, data, m.UpdatedAt); idxErr == nil {
			logger.Debug("reconcile: indexed new", slog.String("work", name))
			notify("created", name)
		}
	}
}
