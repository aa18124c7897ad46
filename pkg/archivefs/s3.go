// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package archivefs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/LeeDigitalWorks/bucketvault/pkg/compression"
	"github.com/LeeDigitalWorks/bucketvault/pkg/logger"
	"github.com/LeeDigitalWorks/bucketvault/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/dustin/go-humanize"
)

func init() {
	Register(types.StorageTypeS3, NewS3)
}

// compressionMetaKey is the object metadata entry naming the codec of a
// packed bucket
const compressionMetaKey = "compression"

// S3 implements FileSystem for S3-compatible storage addressed by
// s3://<bucket>/<key> URIs. A put packs the source tree into a single
// compressed tar object at <key>/bucket.tar, written with a create-only
// precondition. The codec is recorded in the object metadata.
type S3 struct {
	client *s3.Client
	algo   compression.Algorithm
	tmpDir string
}

// NewS3 creates an S3 archive filesystem
func NewS3(cfg types.StorageConfig) (FileSystem, error) {
	opts := []func(*config.LoadOptions) error{}

	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	s3Opts := []func(*s3.Options){}
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return newS3FromClient(s3.NewFromConfig(awsCfg, s3Opts...), compression.ParseAlgorithm(cfg.Compression), cfg.TmpDir), nil
}

func newS3FromClient(client *s3.Client, algo compression.Algorithm, tmpDir string) *S3 {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &S3{client: client, algo: algo, tmpDir: tmpDir}
}

func (s *S3) Type() types.StorageType {
	return types.StorageTypeS3
}

// parseS3URI splits s3://bucket/key into its bucket and key, with the key
// stripped of leading and trailing slashes.
func parseS3URI(uri string) (bucket, key string, err error) {
	u, err := schemePath(uri, "s3")
	if err != nil {
		return "", "", err
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("%w: %s: missing bucket", ErrUnsupportedURI, uri)
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}

// dirPrefix turns a key into a listing prefix
func dirPrefix(key string) string {
	if key == "" {
		return ""
	}
	return key + "/"
}

func (s *S3) PutFileAtomically(ctx context.Context, src, dst string) error {
	bucket, key, err := parseS3URI(dst)
	if err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("%w: %s: empty key", ErrUnsupportedURI, dst)
	}
	if _, err := os.Stat(src); err != nil {
		return notFound(err, src)
	}

	exists, err := s.Exists(ctx, dst)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrFileOverwrite, dst)
	}

	staged, err := os.CreateTemp(s.tmpDir, tmpPrefix+"*")
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}
	defer func() {
		staged.Close()
		os.Remove(staged.Name())
	}()

	raw, err := packTree(ctx, s.algo, src, staged)
	if err != nil {
		return notFound(err, src)
	}
	size, err := staged.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := staged.Seek(0, io.SeekStart); err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(path.Join(key, packedName)),
		Body:          staged,
		ContentLength: aws.Int64(size),
		IfNoneMatch:   aws.String("*"),
		Metadata:      map[string]string{compressionMetaKey: string(s.algo)},
	})
	if err != nil {
		if isPreconditionFailed(err) {
			return fmt.Errorf("%w: %s", ErrFileOverwrite, dst)
		}
		return fmt.Errorf("put object: %w", err)
	}

	logger.Debug().
		Str("src", src).
		Str("dst", dst).
		Str("size", humanize.Bytes(uint64(raw))).
		Str("packed", humanize.Bytes(uint64(size))).
		Str("compression", string(s.algo)).
		Msg("archivefs: s3 put complete")
	return nil
}

func (s *S3) ListPath(ctx context.Context, uri string) ([]string, error) {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return nil, err
	}

	var children []string
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(dirPrefix(key)),
		Delimiter: aws.String("/"),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", uri, err)
		}
		for _, cp := range page.CommonPrefixes {
			children = append(children, s3ChildURI(bucket, aws.ToString(cp.Prefix)))
		}
		for _, obj := range page.Contents {
			k := aws.ToString(obj.Key)
			if k == dirPrefix(key) {
				continue
			}
			children = append(children, s3ChildURI(bucket, k))
		}
	}
	return children, nil
}

func s3ChildURI(bucket, key string) string {
	return "s3://" + bucket + "/" + strings.TrimSuffix(key, "/")
}

func (s *S3) GetFile(ctx context.Context, uri, localDst string) error {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("%w: %s: empty key", ErrUnsupportedURI, uri)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path.Join(key, packedName)),
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, uri)
		}
		return fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	algo := compression.ParseAlgorithm(out.Metadata[compressionMetaKey])
	return commitAtomically(ctx, localDst, func(tmp string) error {
		return unpackTree(ctx, algo, out.Body, tmp)
	})
}

func (s *S3) Exists(ctx context.Context, uri string) (bool, error) {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return false, err
	}
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(dirPrefix(key)),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("list %s: %w", uri, err)
	}
	return len(out.Contents) > 0, nil
}

func (s *S3) Close() error {
	return nil
}

// isPreconditionFailed reports whether err is S3 rejecting a create-only
// write because the object exists or a concurrent write won.
func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NotFound", "NoSuchBucket":
		return true
	}
	return false
}
