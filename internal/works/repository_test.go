package works

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/testutil"
)

func names(ws []*models.Work) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Name
	}
	return out
}

func TestGet(t *testing.T) {
	dir, store := testutil.TestSite(t)
	testutil.WriteWork(t, dir, "demo", "Title: Demo\nDate: 2020-01-01\n\nHello **world**")
	repo := NewRepository(store, "works")

	w, err := repo.Get(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if w.Name != "demo" {
		t.Errorf("name = %q", w.Name)
	}
	if w.Path != "works/demo.markdown" {
		t.Errorf("path = %q", w.Path)
	}
	if w.Title != "Demo" {
		t.Errorf("title = %q", w.Title)
	}
	if !strings.Contains(string(w.HTML), "<strong>world</strong>") {
		t.Errorf("html = %q", w.HTML)
	}
}

func TestGet_MissingNamesIdentifier(t *testing.T) {
	_, store := testutil.TestSite(t)
	repo := NewRepository(store, "works")

	_, err := repo.Get(context.Background(), "ghost")
	if err == nil {
		t.Fatal("expected error for missing work")
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	var missing *apperr.MissingDocumentError
	if !errors.As(err, &missing) || missing.Name != "ghost" {
		t.Errorf("err = %#v, want MissingDocumentError for ghost", err)
	}
	if !strings.Contains(err.Error(), "ghost") {
		t.Errorf("message %q does not name the work", err.Error())
	}
}

func TestGet_InvalidNames(t *testing.T) {
	_, store := testutil.TestSite(t)
	repo := NewRepository(store, "works")
	for _, name := range []string{"", "../secret", "a/b", ".hidden", `a\b`} {
		if _, err := repo.Get(context.Background(), name); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("Get(%q) err = %v, want ErrNotFound", name, err)
		}
	}
}

func TestGet_ScopeCachesWithinRequest(t *testing.T) {
	dir, store := testutil.TestSite(t)
	testutil.WriteWork(t, dir, "a", "Title: First\n\nbody")
	repo := NewRepository(store, "works")

	ctx := WithScope(context.Background())
	first, err := repo.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ScopeFrom(ctx).Len() != 1 {
		t.Errorf("scope len = %d, want 1", ScopeFrom(ctx).Len())
	}

	testutil.WriteWork(t, dir, "a", "Title: Second\n\nbody")

	again, _ := repo.Get(ctx, "a")
	if again != first {
		t.Error("expected the scoped record to be reused")
	}

	fresh, _ := repo.Get(WithScope(context.Background()), "a")
	if fresh.Title != "Second" {
		t.Errorf("new scope title = %q, want Second", fresh.Title)
	}

	unscoped, _ := repo.Get(context.Background(), "a")
	if unscoped == first {
		t.Error("unscoped Get should not reuse a cached record")
	}
}

func TestSorted(t *testing.T) {
	dir, store := testutil.TestSite(t)
	testutil.WriteWork(t, dir, "old", "Title: Old\nDate: 2018-06-01\n\nx")
	testutil.WriteWork(t, dir, "new", "Title: New\nDate: 2022-02-02\n\nx")
	testutil.WriteWork(t, dir, "undated", "Title: Undated\n\nx")
	testutil.WriteWork(t, dir, "hidden", "Title: Hidden\nDate: 2023-01-01\nPublished:\n\nx")
	testutil.WriteWork(t, dir, "same-b", "Title: B\nDate: 2020-01-01\n\nx")
	testutil.WriteWork(t, dir, "same-a", "Title: A\nDate: 2020-01-01\n\nx")
	testutil.WriteFile(t, dir, "works/notes.txt", "ignored")
	repo := NewRepository(store, "works")

	got, err := repo.Sorted(context.Background())
	if err != nil {
		t.Fatalf("Sorted: %v", err)
	}
	want := []string{"new", "same-a", "same-b", "old", "undated"}
	if diff := cmp.Diff(want, names(got)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSorted_MissingDirectory(t *testing.T) {
	_, store := testutil.TestSite(t)
	repo := NewRepository(store, "missing-dir")
	if _, err := repo.Sorted(context.Background()); err == nil {
		t.Fatal("expected error when works directory is missing")
	}
}
