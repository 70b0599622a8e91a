// Package render compiles and executes the site's HTML templates.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Renderer executes a named page template with data.
type Renderer interface {
	Render(w io.Writer, name string, data any) error
}

const layoutFile = "layout.html"

// Templates renders pages from a directory holding layout.html and one
// <name>.html per page. Each page defines the blocks used by the layout.
type Templates struct {
	dir    string
	reload bool

	mu    sync.Mutex
	cache map[string]*template.Template
}

// NewTemplates creates a renderer for dir. With reload set, templates are
// parsed on every render so edits show up without a restart.
func NewTemplates(dir string, reload bool) *Templates {
	return &Templates{dir: dir, reload: reload, cache: make(map[string]*template.Template)}
}

// Funcs are the helpers available in every template.
var Funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("January 2006")
	},
	"isodate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	},
	"join": strings.Join,
}

// Render executes the layout with the blocks of page name. Output is buffered
// so a failing template writes nothing to w.
func (t *Templates) Render(w io.Writer, name string, data any) error {
	tmpl, err := t.lookup(name)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render: execute %s: %w", name, err)
	}
	_, err = buf.WriteTo(w)
	return err
}

func (t *Templates) lookup(name string) (*template.Template, error) {
	if t.reload {
		return t.parse(name)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if tmpl, ok := t.cache[name]; ok {
		return tmpl, nil
	}
	tmpl, err := t.parse(name)
	if err != nil {
		return nil, err
	}
	t.cache[name] = tmpl
	return tmpl, nil
}

func (t *Templates) parse(name string) (*template.Template, error) {
	if name == "" || strings.ContainsAny(name, `/\.`) {
		return nil, fmt.Errorf("render: invalid template name %q", name)
	}
	tmpl, err := template.New(layoutFile).Funcs(Funcs).ParseFiles(
		filepath.Join(t.dir, layoutFile),
		filepath.Join(t.dir, name+".html"),
	)
	if err != nil {
		return nil, fmt.Errorf("render: parse %s: %w", name, err)
	}
	return tmpl, nil
}
