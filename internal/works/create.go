package works

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/starford/folio/internal/apperr"
)

// Create writes a new work document. It fails with apperr.ErrAlreadyExists
// when the name is taken.
func (r *Repository) Create(_ context.Context, name string, content []byte) error {
	if !ValidName(name) {
		return fmt.Errorf("works: create %q: %w", name, apperr.ErrInvalidName)
	}
	p := r.PathFor(name)
	if _, err := r.store.Read(p); err == nil {
		return fmt.Errorf("works: create %q: %w", name, apperr.ErrAlreadyExists)
	}
	if err := r.store.Write(p, content); err != nil {
		return fmt.Errorf("works: create %q: %w", name, err)
	}
	return nil
}

// Scaffold returns a draft document. The empty Published header keeps it off
// the site until filled in.
func Scaffold(title string, date time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", title)
	fmt.Fprintf(&b, "Date: %s\n", date.Format("2006-01-02"))
	b.WriteString("Keywords:\n")
	b.WriteString("Link:\n")
	b.WriteString("Published:\n")
	b.WriteString("\n")
	b.WriteString("Describe the work here.\n")
	return []byte(b.String())
}
