// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package thaw

import (
	"context"
	"fmt"

	"github.com/LeeDigitalWorks/bucketvault/pkg/logger"
	"github.com/LeeDigitalWorks/bucketvault/pkg/pathresolver"
	"github.com/LeeDigitalWorks/bucketvault/pkg/types"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Lister lists the children of an archive URI
type Lister interface {
	ListPath(ctx context.Context, uri string) ([]string, error)
}

// Paths is the part of the path resolver thawing needs
type Paths interface {
	IndexesHome() string
	BucketsHome(index string) string
	FormatsHome(index, bucketName string) string
	ArchivedBucketURI(index, bucketName string, format types.BucketFormat) string
}

// ResolverConfig configures a FormatResolver
type ResolverConfig struct {
	Paths   Paths
	FS      Lister
	Chooser *FormatChooser

	// Concurrency bounds buckets resolved in parallel. Defaults to 4.
	Concurrency int

	// Limiter throttles listing requests. Nil means unlimited.
	Limiter *rate.Limiter
}

// FormatResolver finds the archived format of buckets
type FormatResolver struct {
	paths       Paths
	fs          Lister
	chooser     *FormatChooser
	concurrency int
	limiter     *rate.Limiter
}

// NewFormatResolver creates a FormatResolver
func NewFormatResolver(cfg ResolverConfig) *FormatResolver {
	if cfg.Chooser == nil {
		cfg.Chooser = NewFormatChooser()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &FormatResolver{
		paths:       cfg.Paths,
		fs:          cfg.FS,
		chooser:     cfg.Chooser,
		concurrency: cfg.Concurrency,
		limiter:     cfg.Limiter,
	}
}

// ResolveBucketsFormats returns one archived bucket per input bucket, in the
// same order, each carrying its chosen format and archive URI. Discovery
// reads only, so no bucket lock is taken.
func (r *FormatResolver) ResolveBucketsFormats(ctx context.Context, buckets []types.Bucket) ([]types.Bucket, error) {
	out := make([]types.Bucket, len(buckets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, b := range buckets {
		g.Go(func() error {
			resolved, err := r.resolveBucket(ctx, b)
			if err != nil {
				return err
			}
			out[i] = resolved
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *FormatResolver) resolveBucket(ctx context.Context, b types.Bucket) (types.Bucket, error) {
	formats, err := r.archivedFormats(ctx, b.Index(), b.Name())
	if err != nil {
		return types.Bucket{}, err
	}

	format := r.chooser.ChooseBucketFormat(formats)
	var uri string
	if format == types.FormatUnknown {
		uri = r.paths.FormatsHome(b.Index(), b.Name())
		logger.Ctx(ctx).Warn().Object("bucket", b).Str("uri", uri).Msg("thaw: no archived format found")
	} else {
		uri = r.paths.ArchivedBucketURI(b.Index(), b.Name(), format)
	}
	resolvedTotal.WithLabelValues(string(format)).Inc()
	return types.NewRemoteBucket(b.Index(), b.Name(), uri, format)
}

// archivedFormats lists the formats home of a bucket. Children that are not
// a known format are skipped.
func (r *FormatResolver) archivedFormats(ctx context.Context, index, name string) ([]types.BucketFormat, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	home := r.paths.FormatsHome(index, name)
	children, err := r.fs.ListPath(ctx, home)
	if err != nil {
		return nil, fmt.Errorf("list formats of %s/%s: %w", index, name, err)
	}

	formats := make([]types.BucketFormat, 0, len(children))
	for _, child := range children {
		seg := pathresolver.LastSegment(child)
		f, ok := types.ParseBucketFormat(seg)
		if !ok {
			logger.Ctx(ctx).Debug().Str("uri", child).Msg("thaw: ignoring unknown format directory")
			continue
		}
		formats = append(formats, f)
	}
	return formats, nil
}
