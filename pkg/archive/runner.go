// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/LeeDigitalWorks/bucketvault/pkg/bucketlock"
	"github.com/LeeDigitalWorks/bucketvault/pkg/logger"
	"github.com/LeeDigitalWorks/bucketvault/pkg/types"
)

var (
	// ErrLockLost is returned when the lock was held at construction but is
	// gone by the time the run starts.
	ErrLockLost = errors.New("bucket lock lost before archiving")

	// ErrAlreadyRun is returned by a second call to Run
	ErrAlreadyRun = errors.New("runner already ran")
)

// State of a Runner
type State int32

const (
	StateConstructed State = iota
	StateVerifying
	StateArchiving
	StateCleanup
	StateDone
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateVerifying:
		return "verifying"
	case StateArchiving:
		return "archiving"
	case StateCleanup:
		return "cleanup"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Runner archives one bucket under a lock the caller already acquired.
// Ownership of the lock passes to the Runner: whatever happens during Run,
// the lock file is deleted and the lock closed before Run returns.
type Runner struct {
	archiver Archiver
	bucket   types.Bucket
	lock     bucketlock.Lock
	state    atomic.Int32
}

// NewRunner creates a runner. The lock must be held, otherwise
// bucketlock.ErrNotLocked is returned and the lock stays with the caller.
func NewRunner(ctx context.Context, archiver Archiver, bucket types.Bucket, lock bucketlock.Lock) (*Runner, error) {
	if !lock.IsLocked(ctx) {
		return nil, fmt.Errorf("%w: bucket %s", bucketlock.ErrNotLocked, bucket.Name())
	}
	return &Runner{
		archiver: archiver,
		bucket:   bucket,
		lock:     lock,
	}, nil
}

// State returns the current state
func (r *Runner) State() State {
	return State(r.state.Load())
}

func (r *Runner) setState(s State) {
	r.state.Store(int32(s))
}

// Run archives the bucket and then unconditionally releases the lock.
// Cleanup errors are reported only when archiving itself succeeded.
func (r *Runner) Run(ctx context.Context) (err error) {
	if !r.state.CompareAndSwap(int32(StateConstructed), int32(StateVerifying)) {
		return ErrAlreadyRun
	}
	log := logger.Ctx(ctx).With().Object("bucket", r.bucket).Logger()

	defer func() {
		r.setState(StateCleanup)
		// Cleanup must happen even when the run was cancelled.
		cleanupErr := r.releaseLock(context.WithoutCancel(ctx))
		if cleanupErr != nil {
			LockCleanupFailures.Inc()
			log.Error().Err(cleanupErr).Msg("archive: lock cleanup failed")
			if err == nil {
				err = cleanupErr
			}
		}
		r.setState(StateDone)
	}()

	if !r.lock.IsLocked(ctx) {
		RunsTotal.WithLabelValues("lock_lost").Inc()
		log.Error().Msg("archive: lock lost before archiving")
		return fmt.Errorf("%w: bucket %s", ErrLockLost, r.bucket.Name())
	}

	r.setState(StateArchiving)
	if err := r.archiver.ArchiveBucket(ctx, r.bucket); err != nil {
		RunsTotal.WithLabelValues("failed").Inc()
		log.Error().Err(err).Msg("archive: archiving failed")
		return err
	}

	RunsTotal.WithLabelValues("ok").Inc()
	return nil
}

func (r *Runner) releaseLock(ctx context.Context) error {
	delErr := r.lock.DeleteLockFile(ctx)
	closeErr := r.lock.Close()
	return errors.Join(delErr, closeErr)
}
