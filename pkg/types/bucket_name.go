// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BucketName is the parsed form of a bucket directory name:
//
//	db_<latest>_<earliest>_<id>[_<guid>]
//	rb_<latest>_<earliest>_<id>[_<guid>]
//
// where latest and earliest are unix epoch seconds.
type BucketName struct {
	Latest     time.Time
	Earliest   time.Time
	ID         string
	Replicated bool
}

// ParseBucketName parses name. Any error means the name carries no usable
// time range.
func ParseBucketName(name string) (BucketName, error) {
	parts := strings.SplitN(name, "_", 5)
	if len(parts) < 4 {
		return BucketName{}, fmt.Errorf("bucket name %q: expected <db|rb>_<latest>_<earliest>_<id>", name)
	}

	var bn BucketName
	switch parts[0] {
	case "db":
	case "rb":
		bn.Replicated = true
	default:
		return BucketName{}, fmt.Errorf("bucket name %q: unknown prefix %q", name, parts[0])
	}

	latest, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return BucketName{}, fmt.Errorf("bucket name %q: latest time: %w", name, err)
	}
	earliest, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return BucketName{}, fmt.Errorf("bucket name %q: earliest time: %w", name, err)
	}
	if earliest > latest {
		return BucketName{}, fmt.Errorf("bucket name %q: earliest after latest", name)
	}

	bn.Latest = time.Unix(latest, 0).UTC()
	bn.Earliest = time.Unix(earliest, 0).UTC()
	bn.ID = strings.Join(parts[3:], "_")
	return bn, nil
}

// Overlaps reports whether the bucket holds any data in [from, to].
// A zero from or to leaves that side unbounded.
func (n BucketName) Overlaps(from, to time.Time) bool {
	if !from.IsZero() && n.Latest.Before(from) {
		return false
	}
	if !to.IsZero() && n.Earliest.After(to) {
		return false
	}
	return true
}
