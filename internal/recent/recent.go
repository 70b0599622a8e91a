// Package recent reads the recency log: a flat text file listing the names
// of recently updated works, one per line, most recent first.
package recent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/starford/folio/internal/storage"
)

// Reader reads the recency log through a storage provider.
type Reader struct {
	store storage.Provider
	path  string
}

// NewReader creates a Reader for the log at path (relative to the storage root).
func NewReader(store storage.Provider, path string) *Reader {
	return &Reader{store: store, path: path}
}

// Read returns the names in the log. The log is re-read on every call.
func (r *Reader) Read(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := r.store.Read(r.path)
	if err != nil {
		return nil, fmt.Errorf("recent: %w", err)
	}
	return Parse(string(data)), nil
}

// Touch moves name to the top of the log, creating the log if needed.
func (r *Reader) Touch(ctx context.Context, name string) error {
	names, err := r.Read(ctx)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	out := []string{name}
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	if err := r.store.Write(r.path, []byte(strings.Join(out, "\n")+"\n")); err != nil {
		return fmt.Errorf("recent: %w", err)
	}
	return nil
}

// Parse splits log content into names. Surrounding whitespace is trimmed and
// blank lines, including the one after a final newline, are dropped.
func Parse(content string) []string {
	out := []string{}
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
