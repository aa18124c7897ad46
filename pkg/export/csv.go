// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/LeeDigitalWorks/bucketvault/pkg/logger"
	"github.com/LeeDigitalWorks/bucketvault/pkg/types"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// CSVHeader is the first row of every exported CSV file
var CSVHeader = []string{"_serial", "index", "_bkt", "_raw"}

// CSVExporter writes the raw events of a native bucket to a CSV file
type CSVExporter struct {
	tmpDir string
}

// NewCSVExporter creates an exporter staging files under tmpDir
func NewCSVExporter(tmpDir string) *CSVExporter {
	return &CSVExporter{tmpDir: tmpDir}
}

// ExportToCSV writes bucket's events to a new CSV file and returns its path.
// The file is removed again if the export fails.
func (x *CSVExporter) ExportToCSV(ctx context.Context, bucket types.Bucket) (path string, err error) {
	if bucket.IsRemote() {
		return "", fmt.Errorf("bucket %s is not local", bucket.Name())
	}
	if err := os.MkdirAll(x.tmpDir, 0755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	path = filepath.Join(x.tmpDir, bucket.Name()+"-"+uuid.NewString()+".csv")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
			path = ""
		}
	}()

	bw := bufio.NewWriter(f)
	w := csv.NewWriter(bw)
	if err := w.Write(CSVHeader); err != nil {
		return path, err
	}

	bkt := bucket.Index() + "~" + bucket.Name()
	var serial int64
	err = readJournal(ctx, bucket.Directory(), func(event string) error {
		rec := []string{strconv.FormatInt(serial, 10), bucket.Index(), bkt, event}
		serial++
		return w.Write(rec)
	})
	if err != nil {
		return path, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return path, err
	}
	if err := bw.Flush(); err != nil {
		return path, err
	}
	if err := f.Sync(); err != nil {
		return path, err
	}

	eventsExported.WithLabelValues(string(types.FormatCSV)).Add(float64(serial))
	if fi, err := f.Stat(); err == nil {
		logger.Ctx(ctx).Debug().
			Str("bucket", bucket.Name()).
			Int64("events", serial).
			Str("size", humanize.Bytes(uint64(fi.Size()))).
			Msg("export: csv written")
	}
	return path, nil
}

// CSVBucketCreator turns an exported CSV file into a bucket directory
type CSVBucketCreator struct {
	tmpDir string
}

// NewCSVBucketCreator creates bucket directories under tmpDir
func NewCSVBucketCreator(tmpDir string) *CSVBucketCreator {
	return &CSVBucketCreator{tmpDir: tmpDir}
}

// CreateBucketWithCSV moves csvFile into a fresh directory named after the
// source bucket, as <tmpDir>/<uuid>/<name>/<name>.csv, and returns the new
// bucket tagged CSV.
func (c *CSVBucketCreator) CreateBucketWithCSV(source types.Bucket, csvFile string) (types.Bucket, error) {
	dir := filepath.Join(c.tmpDir, uuid.NewString(), source.Name())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return types.Bucket{}, fmt.Errorf("create csv bucket dir: %w", err)
	}
	if err := os.Rename(csvFile, filepath.Join(dir, CSVFileName(source.Name()))); err != nil {
		os.RemoveAll(filepath.Dir(dir))
		return types.Bucket{}, fmt.Errorf("place csv file: %w", err)
	}
	return types.NewBucketWithFormat(source.Index(), dir, types.FormatCSV)
}

// CSVFileName is the name of the CSV file inside a CSV bucket
func CSVFileName(bucketName string) string {
	return bucketName + ".csv"
}

// CSVConverter converts native buckets to CSV
type CSVConverter struct {
	exporter *CSVExporter
	creator  *CSVBucketCreator
}

// NewCSVConverter creates a CSV converter staging under tmpDir
func NewCSVConverter(tmpDir string) *CSVConverter {
	return &CSVConverter{
		exporter: NewCSVExporter(tmpDir),
		creator:  NewCSVBucketCreator(tmpDir),
	}
}

func (c *CSVConverter) Format() types.BucketFormat {
	return types.FormatCSV
}

func (c *CSVConverter) Convert(ctx context.Context, bucket types.Bucket) (types.Bucket, error) {
	if bucket.Format() != types.FormatSplunkBucket {
		return types.Bucket{}, fmt.Errorf("%w: %s to CSV", ErrUnsupportedConversion, bucket.Format())
	}
	csvFile, err := c.exporter.ExportToCSV(ctx, bucket)
	if err != nil {
		return types.Bucket{}, err
	}
	exported, err := c.creator.CreateBucketWithCSV(bucket, csvFile)
	if err != nil {
		os.Remove(csvFile)
		return types.Bucket{}, err
	}
	return exported, nil
}

// CleanupExported removes a bucket directory created by a converter along
// with its unique parent directory.
func CleanupExported(exported types.Bucket) error {
	dir := exported.Directory()
	if dir == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	// The parent is the per-export uuid directory. It is empty now unless
	// something else put files there, in which case it stays.
	if err := os.Remove(filepath.Dir(dir)); err != nil && !os.IsNotExist(err) {
		logger.Debug().Err(err).Str("dir", filepath.Dir(dir)).Msg("export: parent dir kept")
	}
	return nil
}
