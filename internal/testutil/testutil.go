// Package testutil provides shared test helpers for setting up sites and databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "folio-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestSite creates a temporary site directory with an empty works/ folder.
func TestSite(t *testing.T) (string, *storage.FS) {
	t.Helper()
	siteDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(siteDir, "works"), 0o755); err != nil {
		t.Fatal(err)
	}
	store, err := storage.NewFS(siteDir)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return siteDir, store
}

// WriteFile writes content to rel under the site directory.
func WriteFile(t *testing.T, siteDir, rel, content string) {
	t.Helper()
	p := filepath.Join(siteDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// WriteWork writes works/<name>.markdown under the site directory.
func WriteWork(t *testing.T, siteDir, name, content string) {
	t.Helper()
	WriteFile(t, siteDir, "works/"+name+".markdown", content)
}
