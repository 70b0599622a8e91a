package index

import (
	"log/slog"
	"path"
	"time"

	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/parser"
	"github.com/starford/folio/internal/storage"
)

// Sync reads the works directory and brings the index up to date:
//   - new/changed works are parsed and upserted
//   - works removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, dir string, logger *slog.Logger) error {
	metas, err := store.List(dir, models.WorkExt)
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Name] = struct{}{}

		if checksums[m.Name] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("work", m.Name), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Name, m.Path, data, m.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("work", m.Name), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("work", m.Name))
		}
	}

	for name := range checksums {
		if _, ok := disk[name]; !ok {
			if err := db.DeleteWork(name); err != nil {
				logger.Warn("sync: delete failed", slog.String("work", name), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("work", name))
			}
		}
	}

	return nil
}

// indexFile parses data and upserts it into the DB.
func indexFile(db *DB, name, p string, data []byte, updated time.Time) error {
	w, err := parser.ParseWork(data)
	if err != nil {
		return err
	}
	return db.UpsertWork(WorkRow{
		Name:      name,
		Path:      p,
		Title:     w.Title,
		Checksum:  storage.Checksum(data),
		Keywords:  w.Keywords,
		Published: w.Published,
		Date:      w.Date,
		DateValid: w.DateValid,
		UpdatedAt: updated,
	}, parser.Body(data))
}

// workPath returns the storage path of name inside dir.
func workPath(dir, name string) string {
	return path.Join(dir, name+models.WorkExt)
}
