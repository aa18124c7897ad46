// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package bucketlock

import (
	"os"
)

// acquireFile creates the sentinel exclusively. Without flock a crashed
// owner leaves the sentinel in place and the bucket stays locked until the
// file is removed by hand.
func acquireFile(path string) (*os.File, bool, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return f, true, nil
}

func releaseFile(f *os.File) error {
	return nil
}
