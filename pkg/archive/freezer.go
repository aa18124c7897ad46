// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/LeeDigitalWorks/bucketvault/pkg/bucketlock"
	"github.com/LeeDigitalWorks/bucketvault/pkg/logger"
	"github.com/LeeDigitalWorks/bucketvault/pkg/types"
	"github.com/LeeDigitalWorks/bucketvault/pkg/utils"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrNotDirectory is returned when the bucket to freeze is not a directory
	ErrNotDirectory = errors.New("not a directory")

	// ErrBucketLocked is returned when another archiver holds the bucket
	ErrBucketLocked = errors.New("bucket is locked by another archiver")

	// ErrAlreadyFrozen is returned when the safe location already holds a
	// bucket of the same index and name
	ErrAlreadyFrozen = errors.New("bucket already in safe location")
)

// Directories an indexer stores buckets in, below the index directory
var bucketParents = map[string]bool{
	"db":     true,
	"colddb": true,
}

// LockProvider hands out a lock per bucket
type LockProvider interface {
	ForBucket(bucket types.Bucket) bucketlock.Lock
}

// FreezerConfig configures a Freezer
type FreezerConfig struct {
	SafeLocation string
	Concurrency  int
	Archiver     Archiver
	Locks        LockProvider
}

// Freezer takes buckets handed over by the indexer, moves them to a safe
// location and archives them under a bucket lock.
type Freezer struct {
	safeLocation string
	concurrency  int
	archiver     Archiver
	locks        LockProvider
}

// NewFreezer creates a Freezer
func NewFreezer(cfg FreezerConfig) *Freezer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Freezer{
		safeLocation: cfg.SafeLocation,
		concurrency:  cfg.Concurrency,
		archiver:     cfg.Archiver,
		locks:        cfg.Locks,
	}
}

// IndexFromPath derives the index of a bucket directory laid out as
// .../<index>/<db|colddb>/<bucket>. Other layouts use the name of the
// parent directory.
func IndexFromPath(dir string) string {
	parent := filepath.Dir(filepath.Clean(dir))
	if bucketParents[filepath.Base(parent)] {
		return filepath.Base(filepath.Dir(parent))
	}
	return filepath.Base(parent)
}

// FreezeBucket archives the bucket directory dir. index may be empty, in
// which case it is derived from the path.
func (f *Freezer) FreezeBucket(ctx context.Context, dir, index string) error {
	if !utils.IsDirectory(dir) {
		return fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}
	if index == "" {
		index = IndexFromPath(dir)
	}

	safe, err := f.moveToSafeLocation(dir, index)
	if err != nil {
		return err
	}
	return f.archiveAt(ctx, index, safe)
}

// moveToSafeLocation moves dir to <safe>/<index>/<name> so the indexer may
// delete its own copy as soon as the freeze call returns.
func (f *Freezer) moveToSafeLocation(dir, index string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	safe := filepath.Join(f.safeLocation, index, filepath.Base(abs))
	if abs == safe {
		return safe, nil
	}
	if _, err := os.Lstat(safe); err == nil {
		return "", fmt.Errorf("%w: %s", ErrAlreadyFrozen, safe)
	}
	if err := os.MkdirAll(filepath.Dir(safe), 0755); err != nil {
		return "", fmt.Errorf("create safe location: %w", err)
	}

	if err := os.Rename(abs, safe); err != nil {
		// Safe location on another device
		if err := os.CopyFS(safe, os.DirFS(abs)); err != nil {
			os.RemoveAll(safe)
			return "", fmt.Errorf("copy bucket to safe location: %w", err)
		}
		if err := os.RemoveAll(abs); err != nil {
			return "", fmt.Errorf("remove moved bucket: %w", err)
		}
	}

	logger.Debug().Str("from", abs).Str("to", safe).Msg("archive: bucket moved to safe location")
	return safe, nil
}

func (f *Freezer) archiveAt(ctx context.Context, index, dir string) error {
	bucket, err := types.NewBucket(index, dir)
	if err != nil {
		return err
	}

	lock := f.locks.ForBucket(bucket)
	ok, err := lock.TryLock(ctx)
	if err != nil {
		lock.Close()
		return fmt.Errorf("acquire lock for %s: %w", bucket.Name(), err)
	}
	if !ok {
		lock.Close()
		return fmt.Errorf("%w: %s", ErrBucketLocked, bucket.Name())
	}

	runner, err := NewRunner(ctx, f.archiver, bucket, lock)
	if err != nil {
		lock.DeleteLockFile(ctx)
		lock.Close()
		return err
	}
	return runner.Run(ctx)
}

// FreezeAll freezes every directory in dirs with bounded concurrency and
// returns the joined per-bucket errors.
func (f *Freezer) FreezeAll(ctx context.Context, dirs []string, index string) error {
	return f.forEach(ctx, dirs, func(ctx context.Context, dir string) error {
		return f.FreezeBucket(ctx, dir, index)
	})
}

// RecoverSafeLocation archives buckets left in the safe location by an
// interrupted run. Buckets currently locked by another archiver are skipped.
func (f *Freezer) RecoverSafeLocation(ctx context.Context) error {
	indexes, err := os.ReadDir(f.safeLocation)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read safe location: %w", err)
	}

	var dirs []string
	for _, idx := range indexes {
		if !idx.IsDir() {
			continue
		}
		buckets, err := os.ReadDir(filepath.Join(f.safeLocation, idx.Name()))
		if err != nil {
			return fmt.Errorf("read safe location: %w", err)
		}
		for _, b := range buckets {
			if b.IsDir() && b.Name()[0] != '.' {
				dirs = append(dirs, filepath.Join(f.safeLocation, idx.Name(), b.Name()))
			}
		}
	}

	logger.Ctx(ctx).Info().Int("buckets", len(dirs)).Msg("archive: recovering safe location")
	return f.forEach(ctx, dirs, func(ctx context.Context, dir string) error {
		err := f.archiveAt(ctx, filepath.Base(filepath.Dir(dir)), dir)
		if errors.Is(err, ErrBucketLocked) {
			logger.Ctx(ctx).Debug().Str("dir", dir).Msg("archive: bucket busy, skipping")
			return nil
		}
		return err
	})
}

// forEach runs fn for every dir with at most f.concurrency in flight
func (f *Freezer) forEach(ctx context.Context, dirs []string, fn func(context.Context, string) error) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(f.concurrency)

	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			break
		}
		g.Go(func() error {
			if err := fn(ctx, dir); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", dir, err))
				mu.Unlock()
			}
			return nil
		})
	}

	g.Wait()
	return errors.Join(errs...)
}
