// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package archivefs

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// syncFile syncs file data to disk without flushing unnecessary metadata.
func syncFile(f *os.File) error {
	return unix.Fdatasync(int(f.Fd()))
}

// renameNoReplace renames oldpath to newpath, failing with EEXIST if newpath
// exists. When two archivers race for the same destination exactly one
// rename succeeds.
func renameNoReplace(oldpath, newpath string) error {
	err := unix.Renameat2(unix.AT_FDCWD, oldpath, unix.AT_FDCWD, newpath, unix.RENAME_NOREPLACE)
	if errors.Is(err, unix.EINVAL) || errors.Is(err, unix.ENOSYS) {
		// Filesystem without RENAME_NOREPLACE support
		return renameChecked(oldpath, newpath)
	}
	return err
}

func renameChecked(oldpath, newpath string) error {
	if _, err := os.Lstat(newpath); err == nil {
		return os.ErrExist
	}
	return os.Rename(oldpath, newpath)
}
