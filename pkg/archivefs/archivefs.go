// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

// Package archivefs provides archive filesystem implementations.
// All backends implement FileSystem and are write-once: an archived object
// is never replaced.
package archivefs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/LeeDigitalWorks/bucketvault/pkg/types"
)

var (
	// ErrFileNotFound is returned when the source of a put, or the archive
	// object being fetched, does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrFileOverwrite is returned when the destination already exists.
	// The existing destination is left untouched.
	ErrFileOverwrite = errors.New("destination already exists")

	// ErrUnsupportedURI is returned for URIs of another backend's scheme.
	ErrUnsupportedURI = errors.New("unsupported uri")
)

// FileSystem is the archive storage contract
type FileSystem interface {
	// Type returns the storage type
	Type() types.StorageType

	// PutFileAtomically copies the local file or directory src to dst.
	// Observers never see a partial object at dst, and no partial state is
	// left at dst on failure.
	PutFileAtomically(ctx context.Context, src, dst string) error

	// ListPath returns the URIs of the immediate children of uri.
	// A path that does not exist has no children.
	ListPath(ctx context.Context, uri string) ([]string, error)

	// GetFile materializes the archived object at uri into the local path
	// localDst, which must not exist yet.
	GetFile(ctx context.Context, uri, localDst string) error

	// Exists checks if an object exists at uri
	Exists(ctx context.Context, uri string) (bool, error)

	// Close releases any resources
	Close() error
}

// Registry holds registered filesystem factories
var (
	registryMu sync.RWMutex
	registry   = make(map[types.StorageType]Factory)
)

// Factory creates a FileSystem from config
type Factory func(cfg types.StorageConfig) (FileSystem, error)

// Register adds a factory for a storage type
func Register(t types.StorageType, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[t] = f
}

// New creates a FileSystem from config
func New(cfg types.StorageConfig) (FileSystem, error) {
	registryMu.RLock()
	f, ok := registry[cfg.Type]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
	return f(cfg)
}
