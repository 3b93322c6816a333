package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lmsplatform/backend/internal/models"
)

// localStorage implements FileStore on the local filesystem
type localStorage struct {
	basePath      string
	publicBaseURL string
}

// NewLocalStorage creates a new localStorage instance.
// Files are served back under publicBaseURL + "/uploads/".
func NewLocalStorage(basePath, publicBaseURL string) *localStorage {
	return &localStorage{
		basePath:      basePath,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// path resolves a stored name inside basePath, dropping any directory components
func (s *localStorage) path(name string) (string, error) {
	base := filepath.Base(name)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid file name %q: %w", name, models.ErrValidation)
	}
	return filepath.Join(s.basePath, base), nil
}

// Put writes the reader to basePath/name
func (s *localStorage) Put(ctx context.Context, name string, r io.Reader, contentType string) (*StoredFile, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	size, err := io.Copy(file, r)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	base := filepath.Base(path)
	return &StoredFile{
		Key:     base,
		URL:     s.publicBaseURL + "/uploads/" + base,
		Size:    size,
		Backend: BackendLocal,
	}, nil
}

// Open opens a stored file for reading
func (s *localStorage) Open(name string) (*os.File, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("file %w", models.ErrNotFound)
	}
	return file, err
}

// Delete removes a stored file
func (s *localStorage) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("file %w", models.ErrNotFound)
		}
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}
