// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/linkfinder/internal/models"

// Provider is the interface for vault document access.
type Provider interface {
	// List returns metadata for every text document under dir (relative to vault root).
	List(dir string) ([]models.DocumentMeta, error)
	// Read returns the raw bytes of the document at path (relative to vault root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to vault root).
	Write(path string, content []byte) error
}
