// Package storage manages the per-request temporary files of the bot.
// Every name it hands out is unique, so concurrent requests never share a file.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for request-scoped temporary files.
type Storage interface {
	// SaveTemp writes data to a new uniquely named temporary file and returns its path.
	// The name parameter is used as a suffix hint for the filename.
	SaveTemp(ctx context.Context, name string, data io.Reader) (path string, err error)

	// TempPath reserves a unique path in the temporary directory without creating it.
	TempPath(name string) string

	// LoadTemp reads a temporary file and returns a reader.
	// The caller is responsible for closing the returned ReadCloser.
	LoadTemp(ctx context.Context, path string) (io.ReadCloser, error)

	// CleanupTemp removes the specified temporary files.
	// It continues cleanup even if some files fail to delete, and runs
	// even when ctx is already cancelled.
	CleanupTemp(ctx context.Context, paths []string) error
}
