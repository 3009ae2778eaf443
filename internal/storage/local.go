package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Compile-time check that LocalStorage implements Storage.
var _ Storage = (*LocalStorage)(nil)

// LocalStorage implements the Storage interface using local disk.
// Files are named "<uuid>_<name>" inside a configurable directory.
type LocalStorage struct {
	tempDir string
}

// NewLocalStorage creates a new LocalStorage instance.
// The tempDir parameter specifies where temporary files are stored.
// If tempDir is empty, os.TempDir() is used.
// The directory is created if it doesn't exist.
func NewLocalStorage(tempDir string) (*LocalStorage, error) {
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "videonote")
	}

	if err := os.MkdirAll(tempDir, 0750); err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}

	return &LocalStorage{tempDir: tempDir}, nil
}

// TempDir returns the temporary directory path.
func (s *LocalStorage) TempDir() string {
	return s.tempDir
}

// TempPath returns a fresh unique path for name. The file is not created.
func (s *LocalStorage) TempPath(name string) string {
	return filepath.Join(s.tempDir, uuid.NewString()+"_"+filepath.Base(name))
}

// SaveTemp saves data to a new temporary file and returns the file path.
// A partially written file is removed before returning an error.
func (s *LocalStorage) SaveTemp(ctx context.Context, name string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	fileName := s.TempPath(name)
	// O_EXCL guards against a name collision overwriting another request's file.
	f, err := os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600) // #nosec G304 - path built from uuid
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(fileName)
		return "", fmt.Errorf("write temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(fileName)
		return "", fmt.Errorf("close temp file: %w", err)
	}

	return fileName, nil
}

// LoadTemp reads a temporary file and returns a reader.
// The caller is responsible for closing the returned ReadCloser.
func (s *LocalStorage) LoadTemp(ctx context.Context, path string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	f, err := os.Open(path) // #nosec G304 - path is provided by trusted caller
	if err != nil {
		return nil, fmt.Errorf("open temp file: %w", err)
	}

	return f, nil
}

// CleanupTemp removes the specified temporary files.
// Missing files are not an error. It returns the first error encountered.
func (s *LocalStorage) CleanupTemp(_ context.Context, paths []string) error {
	var firstErr error
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = fmt.Errorf("remove temp file %s: %w", p, err)
			}
		}
	}
	return firstErr
}
