// Package storage reads and writes journal documents in a directory.
package storage

import "time"

// FileInfo describes one journal document on disk.
type FileInfo struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Provider is the interface for journal file operations. All paths are
// relative to the provider root.
type Provider interface {
	// List returns every journal document under dir.
	List(dir string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
}
