// Package storage abstracts where photo files live. The catalog only ever
// refers to photos by stored filename; the backend decides what that maps to.
package storage

import (
	"context"
	"io"
)

// Storage is the minimal interface the catalog needs from a file backend.
type Storage interface {
	// Save stores a file under key and returns the number of bytes written.
	Save(ctx context.Context, key string, r io.Reader, contentType string) (int64, error)

	// Open returns the file contents for key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the file for key. Missing files are not an error.
	Delete(ctx context.Context, key string) error

	// List returns all stored keys; used by the boot-time catalog scan.
	List(ctx context.Context) ([]string, error)
}
