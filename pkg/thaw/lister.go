// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package thaw

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/LeeDigitalWorks/bucketvault/pkg/pathresolver"
	"github.com/LeeDigitalWorks/bucketvault/pkg/types"
)

// BucketLister enumerates what the archive holds
type BucketLister struct {
	paths Paths
	fs    Lister
}

// NewBucketLister creates a BucketLister
func NewBucketLister(paths Paths, fs Lister) *BucketLister {
	return &BucketLister{paths: paths, fs: fs}
}

// ListIndexes returns the names of all archived indexes, sorted
func (l *BucketLister) ListIndexes(ctx context.Context) ([]string, error) {
	return l.names(ctx, l.paths.IndexesHome())
}

// ListBuckets returns the archived buckets of index whose name-encoded time
// range overlaps [from, to]. Zero bounds are open. With any bound set,
// buckets whose names carry no time range are left out. The returned
// buckets are not resolved yet: their format is UNKNOWN and their location
// is the formats home.
func (l *BucketLister) ListBuckets(ctx context.Context, index string, from, to time.Time) ([]types.Bucket, error) {
	names, err := l.names(ctx, l.paths.BucketsHome(index))
	if err != nil {
		return nil, err
	}
	filter := !from.IsZero() || !to.IsZero()

	buckets := make([]types.Bucket, 0, len(names))
	for _, name := range names {
		if filter {
			bn, err := types.ParseBucketName(name)
			if err != nil || !bn.Overlaps(from, to) {
				continue
			}
		}
		b, err := types.NewRemoteBucket(index, name, l.paths.FormatsHome(index, name), types.FormatUnknown)
		if err != nil {
			continue
		}
		buckets = append(buckets, b)
	}
	return buckets, nil
}

func (l *BucketLister) names(ctx context.Context, uri string) ([]string, error) {
	children, err := l.fs.ListPath(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", uri, err)
	}
	names := make([]string, 0, len(children))
	for _, c := range children {
		name := pathresolver.LastSegment(c)
		if name == "" || strings.HasPrefix(name, ".") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
