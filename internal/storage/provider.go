// Package storage defines the document vault file-system abstraction.
package storage

import "time"

// DocumentInfo is lightweight metadata about a stored outline document.
type DocumentInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for vault file operations. Write must be
// atomic: a crash mid-write never corrupts the previous content.
type Provider interface {
	// List returns metadata for every .md document under dir (relative to
	// the vault root).
	List(dir string) ([]DocumentInfo, error)
	// Read returns the raw bytes of the document at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the document at path.
	Write(path string, content []byte) error
	// Delete removes the document at path.
	Delete(path string) error
	// Move renames oldPath to newPath within the vault.
	Move(oldPath, newPath string) error
}
