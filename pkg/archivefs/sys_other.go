// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package archivefs

import (
	"os"
)

func syncFile(f *os.File) error {
	return f.Sync()
}

// renameNoReplace checks for newpath before renaming. Renaming a directory
// onto a non-empty directory fails on every POSIX system, which covers the
// race for bucket directories.
func renameNoReplace(oldpath, newpath string) error {
	if _, err := os.Lstat(newpath); err == nil {
		return os.ErrExist
	}
	return os.Rename(oldpath, newpath)
}
