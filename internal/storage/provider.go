// Package storage defines the site's file-system abstraction.
package storage

import "github.com/starford/folio/internal/models"

// Provider is the interface for site file operations.
type Provider interface {
	// List returns metadata for every file with extension ext directly
	// under dir (relative to the site root).
	List(dir, ext string) ([]models.WorkMetadata, error)
	// Read returns the raw bytes of the file at path (relative to the site root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the site root).
	Write(path string, content []byte) error
}
