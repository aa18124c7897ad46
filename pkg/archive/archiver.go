// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"fmt"
	"os"

	"github.com/LeeDigitalWorks/bucketvault/pkg/export"
	"github.com/LeeDigitalWorks/bucketvault/pkg/logger"
	"github.com/LeeDigitalWorks/bucketvault/pkg/types"
)

// Exporter converts a bucket into the archive format
type Exporter interface {
	ExportBucket(ctx context.Context, bucket types.Bucket) (types.Bucket, error)
}

// BucketTransferer puts a bucket into the archive
type BucketTransferer interface {
	TransferBucketToArchive(ctx context.Context, bucket types.Bucket) error
}

// Archiver archives one bucket. The caller holds the bucket's lock.
type Archiver interface {
	ArchiveBucket(ctx context.Context, bucket types.Bucket) error
}

// BucketArchiver exports, transfers and then removes a local bucket
type BucketArchiver struct {
	exporter   Exporter
	transferer BucketTransferer

	// cleanupExported removes a converter's output. Replaced in tests.
	cleanupExported func(types.Bucket) error
}

// NewBucketArchiver creates a BucketArchiver
func NewBucketArchiver(exporter Exporter, transferer BucketTransferer) *BucketArchiver {
	return &BucketArchiver{
		exporter:        exporter,
		transferer:      transferer,
		cleanupExported: export.CleanupExported,
	}
}

// ArchiveBucket exports bucket to the configured format, transfers it and
// deletes the local directory. The source is deleted only after a
// successful transfer. A converted copy is always removed.
func (a *BucketArchiver) ArchiveBucket(ctx context.Context, bucket types.Bucket) error {
	log := logger.Ctx(ctx).With().Object("bucket", bucket).Logger()

	exported, err := a.exporter.ExportBucket(ctx, bucket)
	if err != nil {
		return fmt.Errorf("export bucket: %w", err)
	}

	if exported.Location() != bucket.Location() {
		defer func() {
			if err := a.cleanupExported(exported); err != nil {
				log.Warn().Err(err).Str("exported", exported.Location()).Msg("archive: failed to remove exported copy")
			}
		}()
	}

	if err := a.transferer.TransferBucketToArchive(ctx, exported); err != nil {
		return err
	}

	if err := os.RemoveAll(bucket.Directory()); err != nil {
		return fmt.Errorf("remove archived bucket %s: %w", bucket.Directory(), err)
	}
	log.Info().Str("format", string(exported.Format())).Msg("archive: bucket archived")
	return nil
}
