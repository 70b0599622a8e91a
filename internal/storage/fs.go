package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/starford/folio/internal/models"
)

// tmpPrefix marks in-flight writes. List skips dotfiles, so these never show
// up as works.
const tmpPrefix = ".folio-tmp-"

// FS implements Provider on a directory opened with os.OpenRoot. Every path
// is resolved inside that root; attempts to leave it, including through
// symlinks, fail.
type FS struct {
	root *os.Root
	abs  string
	seq  atomic.Uint64
}

// NewFS opens the site directory, which must already exist.
func NewFS(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: open root: %w", err)
	}
	return &FS{root: root, abs: abs}, nil
}

// Root returns the absolute site directory.
func (f *FS) Root() string {
	return f.abs
}

// Close releases the directory handle.
func (f *FS) Close() error {
	return f.root.Close()
}

// List returns metadata for the files in dir ending in ext, sorted by name.
// Subdirectories and dotfiles are skipped.
func (f *FS) List(dir, ext string) ([]models.WorkMetadata, error) {
	d, err := f.root.Open(cleanRel(dir))
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", dir, err)
	}
	defer d.Close()

	entries, err := d.ReadDir(-1)
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", dir, err)
	}

	out := make([]models.WorkMetadata, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
			continue
		}
		rel := path.Join(dir, name)
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("storage: stat %s: %w", rel, err)
		}
		data, err := f.root.ReadFile(cleanRel(rel))
		if err != nil {
			return nil, fmt.Errorf("storage: read %s: %w", rel, err)
		}
		out = append(out, models.WorkMetadata{
			Name:      strings.TrimSuffix(name, ext),
			Path:      rel,
			Checksum:  Checksum(data),
			UpdatedAt: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Read returns the raw bytes of a site file.
func (f *FS) Read(p string) ([]byte, error) {
	data, err := f.root.ReadFile(cleanRel(p))
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", p, err)
	}
	return data, nil
}

// Write replaces p atomically: the content goes to a temp file in the same
// directory, is synced, then renamed over p.
func (f *FS) Write(p string, content []byte) error {
	rel := cleanRel(p)
	if err := f.root.MkdirAll(filepath.Dir(rel), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir %s: %w", p, err)
	}

	tmpName := filepath.Join(filepath.Dir(rel), tmpPrefix+strconv.Itoa(os.Getpid())+"-"+strconv.FormatUint(f.seq.Add(1), 10))
	tmp, err := f.root.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = f.root.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write %s: %w", p, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close %s: %w", p, err)
	}
	if err := f.root.Rename(tmpName, rel); err != nil {
		_ = f.root.Remove(tmpName)
		committed = true
		return fmt.Errorf("storage: rename %s: %w", p, err)
	}
	committed = true
	return nil
}

// cleanRel turns a slash path into a root-relative OS path. os.Root rejects
// anything that would escape, so no further checks are needed here.
func cleanRel(p string) string {
	if p == "" {
		return "."
	}
	return filepath.FromSlash(p)
}

// Checksum returns the hex-encoded SHA-256 digest of data.
func Checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
