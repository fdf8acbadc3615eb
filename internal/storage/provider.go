// Package storage defines the content directory abstraction.
package storage

import "github.com/kbr/toolsite/internal/models"

// Provider is the interface for content file operations.
type Provider interface {
	// List returns metadata for every page file under dir (relative to the content root).
	List(dir string) ([]models.FileMeta, error)
	// Read returns the raw bytes of the file at path (relative to the content root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the content root).
	Write(path string, content []byte) error
	// Ignored reports whether path matches one of the ignore patterns.
	Ignored(path string) bool
}
