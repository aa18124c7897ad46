// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive moves locked buckets into the archive.
//
// A Runner owns the bucket's lock for one run. The BucketArchiver it drives
// exports the bucket to the configured format, hands the result to the
// Transferer and removes the local copy only once the archive holds it.
package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LeeDigitalWorks/bucketvault/pkg/archivefs"
	"github.com/LeeDigitalWorks/bucketvault/pkg/events"
	"github.com/LeeDigitalWorks/bucketvault/pkg/logger"
	"github.com/LeeDigitalWorks/bucketvault/pkg/types"
	"github.com/LeeDigitalWorks/bucketvault/pkg/utils"
)

// ErrTransferFailed matches every *TransferError
var ErrTransferFailed = errors.New("bucket transfer failed")

// TransferError describes a failed transfer. The cause is available through
// errors.Unwrap, so errors.Is(err, archivefs.ErrFileOverwrite) works.
type TransferError struct {
	Bucket      types.Bucket
	Destination string
	Err         error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer bucket %s to %s: %v", e.Bucket.Name(), e.Destination, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// Is reports ErrTransferFailed as matching
func (e *TransferError) Is(target error) bool {
	return target == ErrTransferFailed
}

// Resolver maps a bucket to its archive destination
type Resolver interface {
	ResolveArchivePath(bucket types.Bucket) string
}

// Transferer puts buckets into the archive filesystem
type Transferer struct {
	fs       archivefs.FileSystem
	resolver Resolver
	events   *events.Emitter
}

// NewTransferer creates a transferer
func NewTransferer(fs archivefs.FileSystem, resolver Resolver) *Transferer {
	return &Transferer{fs: fs, resolver: resolver}
}

// WithEmitter makes t publish an event for every finished transfer
func (t *Transferer) WithEmitter(e *events.Emitter) *Transferer {
	t.events = e
	return t
}

// TransferBucketToArchive copies the bucket's directory to its resolved
// archive path. There are no retries, and the source is never modified.
func (t *Transferer) TransferBucketToArchive(ctx context.Context, bucket types.Bucket) error {
	dst := t.resolver.ResolveArchivePath(bucket)
	log := logger.Ctx(ctx).With().Object("bucket", bucket).Str("destination", dst).Logger()

	if bucket.IsRemote() {
		return &TransferError{Bucket: bucket, Destination: dst, Err: errors.New("bucket is not local")}
	}

	log.Info().Msg("archive: transferring bucket")
	start := time.Now()

	err := t.fs.PutFileAtomically(ctx, bucket.Directory(), dst)
	TransferDuration.WithLabelValues(string(bucket.Format())).Observe(time.Since(start).Seconds())

	if err != nil {
		status := "failed"
		switch {
		case errors.Is(err, archivefs.ErrFileOverwrite):
			status = "overwrite"
		case errors.Is(err, archivefs.ErrFileNotFound):
			status = "not_found"
		}
		TransfersTotal.WithLabelValues(string(bucket.Format()), status).Inc()
		log.Error().Err(err).Str("status", status).Msg("archive: transfer failed")
		t.events.EmitArchiveFailed(ctx, bucket, dst, err)
		return &TransferError{Bucket: bucket, Destination: dst, Err: err}
	}

	TransfersTotal.WithLabelValues(string(bucket.Format()), "ok").Inc()
	log.Info().Dur("took", time.Since(start)).Msg("archive: bucket transferred")
	if t.events.IsEnabled() {
		size, _ := utils.DirSize(bucket.Directory())
		t.events.EmitArchived(ctx, bucket, dst, size)
	}
	return nil
}
