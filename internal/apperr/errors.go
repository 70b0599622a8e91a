// Package apperr holds the error values shared across the site's layers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidName   = errors.New("invalid name")
	ErrAlreadyExists = errors.New("already exists")
)

// MissingDocumentError reports a requested document with no backing file.
type MissingDocumentError struct {
	Kind string
	Name string
	Err  error
}

func (e *MissingDocumentError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// Unwrap lets errors.Is match both ErrNotFound and the underlying cause.
func (e *MissingDocumentError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNotFound}
	}
	return []error{ErrNotFound, e.Err}
}

// MissingWork builds a MissingDocumentError for a work identifier.
func MissingWork(name string, cause error) error {
	return &MissingDocumentError{Kind: "work", Name: name, Err: cause}
}
