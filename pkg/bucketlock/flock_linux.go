// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package bucketlock

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// acquireFile opens the sentinel and takes a non-blocking exclusive flock.
// The kernel drops the flock when the process dies, so a crash never leaves
// the bucket unlockable; the sentinel itself stays behind for inspection.
func acquireFile(path string) (*os.File, bool, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, false, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, false, nil
		}
		return nil, false, err
	}

	// The previous owner may have unlinked the sentinel between our open and
	// flock, in which case we hold a lock on a file nobody else can see.
	held, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, false, err
	}
	onDisk, err := os.Stat(path)
	if err != nil || !os.SameFile(held, onDisk) {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
		return nil, false, nil
	}
	return f, true, nil
}

func releaseFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
