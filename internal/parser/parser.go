// Package parser turns a work document (header block + markdown body) into a
// models.Work.
//
// A document looks like:
//
//	Title: My Work
//	Date: 2020-01-01
//	Keywords: go, web
//
//	Markdown body...
//
// The header block ends at the first blank line. The parser never rejects
// input: malformed headers degrade to empty or default field values.
package parser

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/araddon/dateparse"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/starford/folio/internal/models"
)

// NoKeywords is the single keyword assigned to works without a keywords header.
const NoKeywords = "none"

const (
	headerDelim  = "\n\n"
	paragraphEnd = "</p>"
)

// Raw HTML in bodies is passed through; work documents are authored by the
// site owner.
var markdown = goldmark.New(goldmark.WithRendererOptions(html.WithUnsafe()))

// ParseWork parses raw document bytes. The returned work has no Name or Path;
// the caller supplies those.
func ParseWork(data []byte) (*models.Work, error) {
	header, body := splitHeader(string(data))
	lines, fields := parseHeader(header)

	w := &models.Work{
		Headers:  lines,
		Fields:   fields,
		Keywords: parseKeywords(fields),
	}
	w.Title, _ = fields.Get("title")
	w.Link, _ = fields.Get("link")
	w.Github, _ = fields.Get("github")
	w.Published = isPublished(fields)

	if raw, ok := fields.Get("date"); ok {
		if t, err := dateparse.ParseAny(strings.TrimSpace(raw)); err == nil {
			w.Date = t
			w.DateValid = true
		}
	}

	rendered, err := RenderMarkdown(body)
	if err != nil {
		return nil, err
	}
	w.HTML = template.HTML(rendered)
	w.Desc = template.HTML(excerpt(rendered))
	return w, nil
}

// Body returns the markdown body of a document, without its header block.
func Body(data []byte) string {
	_, body := splitHeader(string(data))
	return body
}

// RenderMarkdown converts a markdown body to HTML.
func RenderMarkdown(body string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// splitHeader separates the header block from the body at the first blank
// line. Without a blank line the whole text is treated as header.
func splitHeader(text string) (string, string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	idx := strings.Index(text, headerDelim)
	if idx < 0 {
		return text, ""
	}
	return text[:idx], text[idx+len(headerDelim):]
}

// parseHeader returns the raw header lines and the lower-cased fields. Lines
// without a colon are kept as raw lines but yield no field.
func parseHeader(header string) ([]string, *orderedmap.OrderedMap[string, string]) {
	fields := orderedmap.New[string, string]()
	lines := []string{}
	if header == "" {
		return lines, fields
	}
	for _, line := range strings.Split(header, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		fields.Set(key, strings.TrimPrefix(value, " "))
	}
	return lines, fields
}

// isPublished applies the published decision table:
//
//	header absent        -> true
//	header non-empty     -> true (even "false")
//	header empty string  -> false
func isPublished(fields *orderedmap.OrderedMap[string, string]) bool {
	v, ok := fields.Get("published")
	if !ok {
		return true
	}
	return v != ""
}

func parseKeywords(fields *orderedmap.OrderedMap[string, string]) []string {
	raw, ok := fields.Get("keywords")
	if !ok {
		return []string{NoKeywords}
	}
	var out []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	if len(out) == 0 {
		return []string{NoKeywords}
	}
	return out
}

// excerpt returns html up to the first closing paragraph tag, or all of it
// when there is none.
func excerpt(rendered string) string {
	if i := strings.Index(rendered, paragraphEnd); i >= 0 {
		return rendered[:i]
	}
	return rendered
}
