package works

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/parser"
	"github.com/starford/folio/internal/testutil"
)

func TestCreate(t *testing.T) {
	_, store := testutil.TestSite(t)
	repo := NewRepository(store, "works")
	ctx := context.Background()

	if err := repo.Create(ctx, "fresh", []byte("Title: Fresh\n\nbody")); err != nil {
		t.Fatalf("create: %v", err)
	}
	w, err := repo.Get(ctx, "fresh")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if w.Title != "Fresh" {
		t.Errorf("title = %q", w.Title)
	}

	err = repo.Create(ctx, "fresh", []byte("again"))
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate create err = %v, want ErrAlreadyExists", err)
	}
	if err := repo.Create(ctx, "../escape", nil); !errors.Is(err, apperr.ErrInvalidName) {
		t.Errorf("invalid name err = %v", err)
	}
}

func TestScaffoldIsUnpublishedDraft(t *testing.T) {
	data := Scaffold("New Thing", time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC))
	w, err := parser.ParseWork(data)
	if err != nil {
		t.Fatal(err)
	}
	if w.Title != "New Thing" {
		t.Errorf("title = %q", w.Title)
	}
	if w.Published {
		t.Error("scaffold should be unpublished")
	}
	if !w.DateValid || w.Date.Format("2006-01-02") != "2024-03-09" {
		t.Errorf("date = %v valid=%v", w.Date, w.DateValid)
	}
	if diff := cmp.Diff([]string{parser.NoKeywords}, w.Keywords); diff != "" {
		t.Errorf("keywords mismatch (-want +got):\n%s", diff)
	}
}
