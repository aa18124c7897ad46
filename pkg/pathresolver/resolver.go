// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

// Package pathresolver is the single source of truth for the archive layout:
//
//	<root>/archive_data/<cluster>/<server>/<index>/<bucket>/<FORMAT>
//
// Every archived variant of a bucket is a child of the bucket's formats home,
// named after its format, so listing the formats home is enough to know which
// formats exist. Nothing here does I/O.
package pathresolver

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/LeeDigitalWorks/bucketvault/pkg/types"
)

// ArchiveDataDir is the first path element below the archive root
const ArchiveDataDir = "archive_data"

// PathResolver maps buckets to archive URIs
type PathResolver struct {
	root    url.URL
	cluster string
	server  string
}

// New creates a resolver rooted at archiveRoot, e.g. "file:///var/archive"
// or "s3://my-bucket/prefix".
func New(archiveRoot, cluster, server string) (*PathResolver, error) {
	u, err := url.Parse(archiveRoot)
	if err != nil {
		return nil, fmt.Errorf("parse archive root: %w", err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("archive root %q has no scheme", archiveRoot)
	}
	if cluster == "" || server == "" {
		return nil, fmt.Errorf("cluster and server names are required")
	}
	u.RawQuery = ""
	u.Fragment = ""
	return &PathResolver{root: *u, cluster: cluster, server: server}, nil
}

// NewFromConfig creates a resolver from the archive configuration
func NewFromConfig(cfg *types.ArchiveConfig) (*PathResolver, error) {
	return New(cfg.ArchiveRoot, cfg.ClusterName, cfg.ServerName)
}

// Root returns the archive root URI
func (r *PathResolver) Root() string {
	return r.root.String()
}

func (r *PathResolver) join(segments ...string) string {
	u := r.root
	elems := append([]string{"/", u.Path, ArchiveDataDir, r.cluster, r.server}, segments...)
	u.Path = path.Join(elems...)
	u.RawPath = ""
	return u.String()
}

// IndexesHome returns the directory holding one child per archived index
func (r *PathResolver) IndexesHome() string {
	return r.join()
}

// BucketsHome returns the directory holding one child per archived bucket
// of index
func (r *PathResolver) BucketsHome(index string) string {
	return r.join(index)
}

// FormatsHome returns the directory holding one child per archived format
// of the bucket
func (r *PathResolver) FormatsHome(index, bucketName string) string {
	return r.join(index, bucketName)
}

// ArchivedBucketURI returns the location of one format variant of a bucket
func (r *PathResolver) ArchivedBucketURI(index, bucketName string, format types.BucketFormat) string {
	return r.join(index, bucketName, string(format))
}

// ResolveArchivePath returns where bucket is archived in its current format
func (r *PathResolver) ResolveArchivePath(bucket types.Bucket) string {
	return r.ArchivedBucketURI(bucket.Index(), bucket.Name(), bucket.Format())
}

// LastSegment returns the final path element of uri, ignoring a trailing
// slash. Returns "" for URIs without a path.
func LastSegment(uri string) string {
	u, err := url.Parse(uri)
	p := uri
	if err == nil {
		p = u.Path
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}
