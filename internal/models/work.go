// Package models defines the domain types for the portfolio site.
package models

import (
	"html/template"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// WorkExt is the file extension of work documents.
const WorkExt = ".markdown"

// Work represents one parsed portfolio item from works/<name>.markdown.
type Work struct {
	Name    string   `json:"name"`
	Path    string   `json:"path"`
	Headers []string `json:"headers"`
	// Fields holds every "Key: Value" header line, keyed by the lower-cased
	// key, in the order the lines were written.
	Fields *orderedmap.OrderedMap[string, string] `json:"fields"`

	Title  string `json:"title,omitempty"`
	Link   string `json:"link,omitempty"`
	Github string `json:"github,omitempty"`

	// Date is the zero time when DateValid is false.
	Date      time.Time `json:"date"`
	DateValid bool      `json:"date_valid"`
	Published bool      `json:"published"`
	Keywords  []string  `json:"keywords"`

	HTML template.HTML `json:"html"`
	Desc template.HTML `json:"desc"`
}

// Field returns the raw value of a header field.
func (w *Work) Field(key string) (string, bool) {
	if w.Fields == nil {
		return "", false
	}
	return w.Fields.Get(key)
}

// HasKeyword reports whether kw is one of the work's keywords.
func (w *Work) HasKeyword(kw string) bool {
	for _, k := range w.Keywords {
		if k == kw {
			return true
		}
	}
	return false
}

// WorkMetadata is a lightweight representation returned by list operations.
type WorkMetadata struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
