// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

// Package bucketlock provides exclusive ownership of a single bucket for the
// duration of an archive operation.
//
// Locks are scoped to one bucket, so any number of buckets can be archived
// in parallel. Acquiring the lock is the caller's job; releasing it is the
// job of whoever the lock is handed to, and must happen on every exit path.
package bucketlock

import (
	"context"
	"errors"
)

var (
	// ErrNotLocked is returned when an operation requires a held lock and the
	// lock is not held. It indicates a broken locking contract, not a
	// retryable condition.
	ErrNotLocked = errors.New("bucket lock is not held")
)

// Lock is the capability to exclusively own one bucket.
type Lock interface {
	// TryLock attempts to acquire the lock without blocking.
	// Returns false, nil when another owner holds it.
	TryLock(ctx context.Context) (bool, error)

	// IsLocked reports whether this instance currently holds the lock.
	// Any error while checking counts as not held.
	IsLocked(ctx context.Context) bool

	// DeleteLockFile removes the persisted lock marker. Idempotent.
	DeleteLockFile(ctx context.Context) error

	// Close releases any in-process handle. Idempotent.
	Close() error
}
