// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package bucketlock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/LeeDigitalWorks/bucketvault/pkg/types"
)

// LockFileSuffix is appended to the bucket name to form the sentinel name.
const LockFileSuffix = ".lock"

// FileLock is a sentinel file next to the bucket directory. It lives on the
// same filesystem as the bucket, so after a crash both are left in a state
// that can be inspected together.
type FileLock struct {
	mu     sync.Mutex
	path   string
	f      *os.File
	locked bool
}

// NewFileLock creates an unlocked lock for bucket. An empty lockDir puts the
// sentinel in the bucket directory's parent.
func NewFileLock(lockDir string, bucket types.Bucket) *FileLock {
	if lockDir == "" {
		lockDir = filepath.Dir(bucket.Directory())
	}
	return NewFileLockAt(filepath.Join(lockDir, "."+bucket.Index()+"_"+bucket.Name()+LockFileSuffix))
}

// NewFileLockAt creates an unlocked lock backed by the sentinel at path.
func NewFileLockAt(path string) *FileLock {
	return &FileLock{path: path}
}

// Path returns the sentinel file path
func (l *FileLock) Path() string {
	return l.path
}

func (l *FileLock) TryLock(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.locked {
		return true, nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return false, fmt.Errorf("create lock dir: %w", err)
	}

	f, ok, err := acquireFile(l.path)
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.path, err)
	}
	if !ok {
		return false, nil
	}

	// Owner pid for whoever inspects a leftover sentinel.
	if err := f.Truncate(0); err == nil {
		_, _ = f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	}

	l.f = f
	l.locked = true
	return true, nil
}

// IsLocked also checks that the sentinel on disk is still the file this
// instance locked. A deleted or replaced sentinel means the lock was lost.
func (l *FileLock) IsLocked(ctx context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.locked || l.f == nil {
		return false
	}
	held, err := l.f.Stat()
	if err != nil {
		return false
	}
	onDisk, err := os.Stat(l.path)
	if err != nil {
		return false
	}
	return os.SameFile(held, onDisk)
}

func (l *FileLock) DeleteLockFile(ctx context.Context) error {
	err := os.Remove(l.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete lock file: %w", err)
	}
	return nil
}

func (l *FileLock) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		l.locked = false
		return nil
	}
	err := releaseFile(l.f)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	l.locked = false
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
