// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package thaw

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/LeeDigitalWorks/bucketvault/pkg/archivefs"
	"github.com/LeeDigitalWorks/bucketvault/pkg/events"
	"github.com/LeeDigitalWorks/bucketvault/pkg/logger"
	"github.com/LeeDigitalWorks/bucketvault/pkg/types"
	"github.com/LeeDigitalWorks/bucketvault/pkg/utils"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ErrNotArchived is returned for buckets the resolver found no format for
var ErrNotArchived = errors.New("bucket has no archived format")

// Getter downloads archived objects
type Getter interface {
	GetFile(ctx context.Context, uri, localDst string) error
}

// Result is the outcome of thawing one bucket
type Result struct {
	Bucket types.Bucket

	// Directory is where the bucket was thawed to
	Directory string

	// Skipped is set when the thaw directory already held the bucket
	Skipped bool

	Err error
}

// ThawerConfig configures a Thawer
type ThawerConfig struct {
	FS          Getter
	Locations   ThawLocations
	Concurrency int
	Limiter     *rate.Limiter

	// Events receives a notification per thawed bucket. May be nil.
	Events *events.Emitter
}

// Thawer downloads resolved buckets into the index thaw directories
type Thawer struct {
	fs          Getter
	locations   ThawLocations
	concurrency int
	limiter     *rate.Limiter
	events      *events.Emitter
}

// NewThawer creates a Thawer
func NewThawer(cfg ThawerConfig) *Thawer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Thawer{
		fs:          cfg.FS,
		locations:   cfg.Locations,
		concurrency: cfg.Concurrency,
		limiter:     cfg.Limiter,
		events:      cfg.Events,
	}
}

// ThawBuckets thaws every resolved bucket. One failing bucket does not stop
// the others; the returned error joins all failures.
func (t *Thawer) ThawBuckets(ctx context.Context, buckets []types.Bucket) ([]Result, error) {
	results := make([]Result, len(buckets))

	var g errgroup.Group
	g.SetLimit(t.concurrency)
	for i, b := range buckets {
		g.Go(func() error {
			results[i] = t.thawBucket(ctx, b)
			return nil
		})
	}
	g.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s/%s: %w", r.Bucket.Index(), r.Bucket.Name(), r.Err))
		}
	}
	return results, errors.Join(errs...)
}

func (t *Thawer) thawBucket(ctx context.Context, b types.Bucket) Result {
	res := Result{Bucket: b}
	log := logger.Ctx(ctx).With().Object("bucket", b).Logger()

	if !b.IsRemote() || !b.Format().IsValid() {
		res.Err = ErrNotArchived
		thawedTotal.WithLabelValues("failed").Inc()
		return res
	}

	loc, err := t.locations.ThawLocation(b.Index())
	if err != nil {
		res.Err = err
		thawedTotal.WithLabelValues("failed").Inc()
		return res
	}
	res.Directory = filepath.Join(loc, b.Name())

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			res.Err = err
			return res
		}
	}

	if err := t.fs.GetFile(ctx, b.URI(), res.Directory); err != nil {
		if errors.Is(err, archivefs.ErrFileOverwrite) {
			res.Skipped = true
			thawedTotal.WithLabelValues("skipped").Inc()
			log.Info().Str("dir", res.Directory).Msg("thaw: bucket already thawed")
			return res
		}
		res.Err = err
		thawedTotal.WithLabelValues("failed").Inc()
		log.Error().Err(err).Msg("thaw: download failed")
		return res
	}

	size, _ := utils.DirSize(res.Directory)
	thawedBytes.Add(float64(size))
	thawedTotal.WithLabelValues("ok").Inc()

	ev := log.Info().Str("dir", res.Directory).Str("size", humanize.Bytes(uint64(size)))
	if b.Format() != types.FormatSplunkBucket {
		ev = ev.Str("note", "left in archived format, import with the indexer tooling")
	}
	ev.Msg("thaw: bucket thawed")
	t.events.EmitThawed(ctx, b, res.Directory, size)
	return res
}
