// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

// Package export converts buckets into the configured archive format before
// they are transferred.
package export

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/LeeDigitalWorks/bucketvault/pkg/logger"
	"github.com/LeeDigitalWorks/bucketvault/pkg/types"
)

var (
	// ErrUnknownBucketFormat is returned when the configured target format is
	// UNKNOWN. Nothing can be exported to an unknown format.
	ErrUnknownBucketFormat = errors.New("cannot export to unknown bucket format")

	// ErrUnsupportedConversion is returned when the source bucket's format is
	// UNKNOWN, so there is nothing to convert from.
	ErrUnsupportedConversion = errors.New("unsupported bucket conversion")

	// ErrNoConverter is returned when no converter produces the target format
	ErrNoConverter = errors.New("no converter registered for format")
)

// Converter turns a bucket into another format
type Converter interface {
	// Format is the format Convert produces
	Format() types.BucketFormat

	// Convert writes a converted copy of bucket and returns it. The source
	// bucket is never modified.
	Convert(ctx context.Context, bucket types.Bucket) (types.Bucket, error)
}

// Exporter converts buckets into the archive format named by the
// configuration
type Exporter struct {
	cfg types.ArchiveConfiguration

	mu         sync.RWMutex
	converters map[types.BucketFormat]Converter
}

// NewExporter creates an exporter with the given converters registered
func NewExporter(cfg types.ArchiveConfiguration, converters ...Converter) *Exporter {
	e := &Exporter{
		cfg:        cfg,
		converters: make(map[types.BucketFormat]Converter),
	}
	for _, c := range converters {
		e.Register(c)
	}
	return e
}

// Register adds a converter, replacing any existing one for its format
func (e *Exporter) Register(c Converter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.converters[c.Format()] = c
}

// TargetFormat returns the format buckets are exported to
func (e *Exporter) TargetFormat() types.BucketFormat {
	return e.cfg.ArchiveFormat()
}

// ExportBucket returns bucket in the target format. An UNKNOWN target always
// fails; otherwise a bucket already in the target format is returned as is.
func (e *Exporter) ExportBucket(ctx context.Context, bucket types.Bucket) (types.Bucket, error) {
	target := e.cfg.ArchiveFormat()

	if target == types.FormatUnknown {
		return types.Bucket{}, fmt.Errorf("%w: bucket %s", ErrUnknownBucketFormat, bucket.Name())
	}
	if bucket.Format() == target {
		return bucket, nil
	}
	if bucket.Format() == types.FormatUnknown {
		return types.Bucket{}, fmt.Errorf("%w: bucket %s from %s to %s",
			ErrUnsupportedConversion, bucket.Name(), bucket.Format(), target)
	}

	e.mu.RLock()
	c, ok := e.converters[target]
	e.mu.RUnlock()
	if !ok {
		return types.Bucket{}, fmt.Errorf("%w: %s", ErrNoConverter, target)
	}

	logger.Ctx(ctx).Debug().
		Object("bucket", bucket).
		Str("target", string(target)).
		Msg("export: converting bucket")

	exported, err := c.Convert(ctx, bucket)
	if err != nil {
		conversionsTotal.WithLabelValues(string(target), "error").Inc()
		return types.Bucket{}, fmt.Errorf("convert bucket %s to %s: %w", bucket.Name(), target, err)
	}
	conversionsTotal.WithLabelValues(string(target), "ok").Inc()
	return exported, nil
}
