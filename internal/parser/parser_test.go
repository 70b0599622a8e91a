package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/folio/internal/models"
)

func mustParse(t *testing.T, input string) *models.Work {
	t.Helper()
	w, err := ParseWork([]byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return w
}

func TestParseWork_EndToEnd(t *testing.T) {
	w := mustParse(t, "Title: Demo\nDate: 2020-01-01\n\nHello **world**")
	if w.Title != "Demo" {
		t.Errorf("title = %q, want %q", w.Title, "Demo")
	}
	if v, _ := w.Field("title"); v != "Demo" {
		t.Errorf("field title = %q", v)
	}
	if !w.DateValid {
		t.Fatal("date should be valid")
	}
	if y, m, d := w.Date.Date(); y != 2020 || m != time.January || d != 1 {
		t.Errorf("date = %v, want 2020-01-01", w.Date)
	}
	if !strings.Contains(string(w.HTML), "<strong>world</strong>") {
		t.Errorf("html = %q", w.HTML)
	}
	if w.Desc != "<p>Hello <strong>world</strong>" {
		t.Errorf("desc = %q", w.Desc)
	}
}

func TestParseWork_FieldCountAndOrder(t *testing.T) {
	w := mustParse(t, "Title: A\nDATE: 2021-03-04\nLink: http://x\nGithub: me/a\n\nbody")
	if got := w.Fields.Len(); got != 4 {
		t.Fatalf("fields = %d, want 4", got)
	}
	var keys []string
	for pair := w.Fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	if diff := cmp.Diff([]string{"title", "date", "link", "github"}, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Title: A", "DATE: 2021-03-04", "Link: http://x", "Github: me/a"}, w.Headers); diff != "" {
		t.Errorf("headers mismatch (-want +got):\n%s", diff)
	}
	if w.Link != "http://x" || w.Github != "me/a" {
		t.Errorf("link = %q, github = %q", w.Link, w.Github)
	}
}

func TestParseWork_ValueSpaceStripping(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"Title: My Work", "My Work"},
		{"Title:My Work", "My Work"},
		{"Title:  Padded", " Padded"},
		{"Title: a: b", "a: b"},
	}
	for _, tt := range tests {
		w := mustParse(t, tt.line+"\n\nbody")
		if w.Title != tt.want {
			t.Errorf("%q: title = %q, want %q", tt.line, w.Title, tt.want)
		}
	}
}

func TestParseWork_LineWithoutColonTolerated(t *testing.T) {
	w := mustParse(t, "Title: X\njust some words\n\nbody")
	if w.Fields.Len() != 1 {
		t.Errorf("fields = %d, want 1", w.Fields.Len())
	}
	if len(w.Headers) != 2 {
		t.Errorf("headers = %v, want both raw lines", w.Headers)
	}
}

func TestParseWork_Keywords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"absent", "Title: X\n\nbody", []string{"none"}},
		{"trimmed", "Keywords: a, b ,c\n\nbody", []string{"a", "b", "c"}},
		{"empty", "Keywords:\n\nbody", []string{"none"}},
		{"empty entries dropped", "Keywords: a,, b,\n\nbody", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := mustParse(t, tt.input)
			if diff := cmp.Diff(tt.want, w.Keywords); diff != "" {
				t.Errorf("keywords mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseWork_Published(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"absent", "Title: X\n\nbody", true},
		{"true", "Published: true\n\nbody", true},
		{"false text is still published", "Published: false\n\nbody", true},
		{"empty", "Published:\n\nbody", false},
		{"single space", "Published: \n\nbody", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustParse(t, tt.input).Published; got != tt.want {
				t.Errorf("published = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseWork_InvalidDate(t *testing.T) {
	w := mustParse(t, "Date: not a date\n\nbody")
	if w.DateValid {
		t.Error("date should be invalid")
	}
	if !w.Date.IsZero() {
		t.Errorf("date = %v, want zero", w.Date)
	}

	w = mustParse(t, "Title: no date\n\nbody")
	if w.DateValid {
		t.Error("absent date should be invalid")
	}
}

func TestParseWork_DescIsPrefixOfHTML(t *testing.T) {
	inputs := []string{
		"Title: X\n\nfirst para\n\nsecond para",
		"Title: X\n\n# Heading only",
		"Title: X\n\n",
		"Title: X",
	}
	for _, in := range inputs {
		w := mustParse(t, in)
		if !strings.HasPrefix(string(w.HTML), string(w.Desc)) {
			t.Errorf("%q: desc %q is not a prefix of html %q", in, w.Desc, w.HTML)
		}
		if strings.Contains(string(w.Desc), "</p>") {
			t.Errorf("%q: desc contains closing paragraph: %q", in, w.Desc)
		}
	}
}

func TestParseWork_DescWithoutParagraphIsWholeHTML(t *testing.T) {
	w := mustParse(t, "Title: X\n\n# Heading")
	if w.Desc != w.HTML {
		t.Errorf("desc = %q, want whole html %q", w.Desc, w.HTML)
	}
}

func TestParseWork_NoDelimiter(t *testing.T) {
	w := mustParse(t, "Title: Only header")
	if w.Title != "Only header" {
		t.Errorf("title = %q", w.Title)
	}
	if w.HTML != "" {
		t.Errorf("html = %q, want empty", w.HTML)
	}
}

func TestParseWork_CRLF(t *testing.T) {
	w := mustParse(t, "Title: Windows\r\nDate: 2019-05-06\r\n\r\nBody")
	if w.Title != "Windows" {
		t.Errorf("title = %q", w.Title)
	}
	if !w.DateValid {
		t.Error("date should parse after CRLF normalisation")
	}
	if !strings.Contains(string(w.HTML), "Body") {
		t.Errorf("html = %q", w.HTML)
	}
}

func TestParseWork_EmptyInput(t *testing.T) {
	w := mustParse(t, "")
	if w.Headers == nil || len(w.Headers) != 0 {
		t.Errorf("headers = %#v, want empty non-nil", w.Headers)
	}
	if w.Fields.Len() != 0 {
		t.Errorf("fields = %d", w.Fields.Len())
	}
	if !w.Published {
		t.Error("published should default to true")
	}
}

func TestBody(t *testing.T) {
	if got := Body([]byte("Title: X\n\nline one\n\nline two")); got != "line one\n\nline two" {
		t.Errorf("body = %q", got)
	}
}
