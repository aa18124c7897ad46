// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// ErrInvalidBucket is returned when a bucket's index or name cannot be used
// as a single archive path segment.
var ErrInvalidBucket = errors.New("invalid bucket")

// Bucket is an immutable, named unit of index data.
//
// While a bucket lives on local disk its location is a directory path. Once
// resolved against the archive the location is a URI. Buckets are values:
// WithFormat, WithDirectory and WithURI return modified copies and never touch the
// receiver, so concurrent holders of the same bucket never observe changes.
type Bucket struct {
	index    string
	name     string
	location string
	format   BucketFormat
	remote   bool
}

// NewBucket creates a bucket for a local directory. The name is the
// directory's base name and the format is derived from its contents.
func NewBucket(index, dir string) (Bucket, error) {
	return newLocalBucket(index, dir, FormatFromDirectory(dir))
}

// NewBucketWithFormat creates a local bucket with an explicit format.
func NewBucketWithFormat(index, dir string, format BucketFormat) (Bucket, error) {
	return newLocalBucket(index, dir, format)
}

func newLocalBucket(index, dir string, format BucketFormat) (Bucket, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Bucket{}, fmt.Errorf("resolve bucket directory: %w", err)
	}
	b := Bucket{
		index:    index,
		name:     filepath.Base(abs),
		location: abs,
		format:   format,
	}
	if err := b.validate(); err != nil {
		return Bucket{}, err
	}
	return b, nil
}

// NewRemoteBucket creates a bucket that lives in the archive at uri.
func NewRemoteBucket(index, name, uri string, format BucketFormat) (Bucket, error) {
	b := Bucket{
		index:    index,
		name:     name,
		location: uri,
		format:   format,
		remote:   true,
	}
	if err := b.validate(); err != nil {
		return Bucket{}, err
	}
	return b, nil
}

func (b Bucket) validate() error {
	if err := validSegment(b.index); err != nil {
		return fmt.Errorf("%w: index %q: %v", ErrInvalidBucket, b.index, err)
	}
	if err := validSegment(b.name); err != nil {
		return fmt.Errorf("%w: name %q: %v", ErrInvalidBucket, b.name, err)
	}
	return nil
}

func validSegment(s string) error {
	switch {
	case s == "":
		return errors.New("empty")
	case s == "." || s == "..":
		return errors.New("relative path element")
	case strings.ContainsAny(s, `/\`):
		return errors.New("contains path separator")
	}
	return nil
}

func (b Bucket) Index() string        { return b.index }
func (b Bucket) Name() string         { return b.name }
func (b Bucket) Format() BucketFormat { return b.format }
func (b Bucket) Location() string     { return b.location }
func (b Bucket) IsRemote() bool       { return b.remote }

// Directory returns the local directory, or "" for archived buckets.
func (b Bucket) Directory() string {
	if b.remote {
		return ""
	}
	return b.location
}

// URI returns the archive URI, or "" for local buckets.
func (b Bucket) URI() string {
	if !b.remote {
		return ""
	}
	return b.location
}

// WithFormat returns a copy of the bucket tagged with format.
func (b Bucket) WithFormat(format BucketFormat) Bucket {
	b.format = format
	return b
}

// WithDirectory returns a local copy of the bucket located at dir.
func (b Bucket) WithDirectory(dir string) Bucket {
	b.location = dir
	b.remote = false
	return b
}

// WithURI returns a remote copy of the bucket located at uri.
func (b Bucket) WithURI(uri string) Bucket {
	b.location = uri
	b.remote = true
	return b
}

// TimeRange parses the time range encoded in the bucket name.
func (b Bucket) TimeRange() (BucketName, error) {
	return ParseBucketName(b.name)
}

func (b Bucket) String() string {
	return fmt.Sprintf("%s/%s[%s]@%s", b.index, b.name, b.format, b.location)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler
func (b Bucket) MarshalZerologObject(e *zerolog.Event) {
	e.Str("index", b.index).
		Str("name", b.name).
		Str("format", string(b.format)).
		Str("location", b.location)
}
