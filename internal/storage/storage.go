// Package storage keeps uploaded course files in an object store with a local disk fallback
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

const (
	BackendOSS   = "oss"
	BackendLocal = "local"
)

// StoredFile describes where an uploaded file ended up
type StoredFile struct {
	Key     string
	URL     string
	Size    int64
	Backend string
}

// FileStore is a single storage backend
type FileStore interface {
	// Put stores the reader under a key derived from name and returns its location
	Put(ctx context.Context, name string, r io.Reader, contentType string) (*StoredFile, error)
	// Delete removes the object stored under key
	Delete(ctx context.Context, key string) error
}

// Manager writes to the primary object store and falls back to local disk.
// primary may be nil, in which case every file goes to local disk.
type Manager struct {
	primary FileStore
	local   FileStore
	logger  *zap.Logger
}

// NewManager creates a new storage manager
func NewManager(primary FileStore, local FileStore, logger *zap.Logger) *Manager {
	return &Manager{
		primary: primary,
		local:   local,
		logger:  logger,
	}
}

// Save stores a file under a unique name.
// The reader is rewound before the local attempt when the object store fails.
func (m *Manager) Save(ctx context.Context, r io.ReadSeeker, originalName, contentType string) (*StoredFile, error) {
	name := GenerateFileName(originalName)

	if m.primary != nil {
		stored, err := m.primary.Put(ctx, name, r, contentType)
		if err == nil {
			return stored, nil
		}
		m.logger.Warn("object store upload failed, falling back to local disk",
			zap.String("name", name), zap.Error(err))

		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to rewind upload: %w", err)
		}
	}

	stored, err := m.local.Put(ctx, name, r, contentType)
	if err != nil {
		m.logger.Error("local upload failed", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("failed to store file: %w", err)
	}
	return stored, nil
}

// Delete removes a stored file.
// Object keys (those containing '/') are deleted from the object store first, then from local disk on failure;
// plain names only ever lived on local disk.
func (m *Manager) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("empty storage key")
	}

	if m.primary != nil && strings.Contains(key, "/") {
		err := m.primary.Delete(ctx, key)
		if err == nil {
			return nil
		}
		m.logger.Warn("object store delete failed, trying local disk", zap.String("key", key), zap.Error(err))
	}

	if err := m.local.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", key, err)
	}
	return nil
}
