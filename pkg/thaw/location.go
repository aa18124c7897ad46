// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package thaw

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrNoThawLocation is returned for indexes without a thaw directory
var ErrNoThawLocation = errors.New("no thaw location for index")

// ThawLocations tells where the indexing service expects thawed buckets
type ThawLocations interface {
	ThawLocation(index string) (string, error)
}

// ConfigThawLocations maps index names to thaw directories from the
// thaw_locations configuration. The "*" entry, if present, is a parent
// directory receiving one subdirectory per index not listed explicitly.
type ConfigThawLocations map[string]string

func (c ConfigThawLocations) ThawLocation(index string) (string, error) {
	if dir, ok := c[index]; ok && dir != "" {
		return filepath.Abs(dir)
	}
	if parent, ok := c["*"]; ok && parent != "" {
		return filepath.Abs(filepath.Join(parent, index, "thaweddb"))
	}
	return "", fmt.Errorf("%w: %s", ErrNoThawLocation, index)
}
