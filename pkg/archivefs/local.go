// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package archivefs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/LeeDigitalWorks/bucketvault/pkg/logger"
	"github.com/LeeDigitalWorks/bucketvault/pkg/types"

	"github.com/dustin/go-humanize"
)

func init() {
	Register(types.StorageTypeLocal, NewLocal)
}

// Local implements FileSystem for a local or mounted filesystem addressed
// by file:// URIs
type Local struct{}

// NewLocal creates a local filesystem archive
func NewLocal(cfg types.StorageConfig) (FileSystem, error) {
	return &Local{}, nil
}

// LocalURI returns the file:// URI for a local path
func LocalURI(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = p
	}
	return "file://" + filepath.ToSlash(abs)
}

func (l *Local) Type() types.StorageType {
	return types.StorageTypeLocal
}

func (l *Local) localPath(uri string) (string, error) {
	u, err := schemePath(uri, "file")
	if err != nil {
		return "", err
	}
	if u.Path == "" {
		return "", fmt.Errorf("%w: %s: empty path", ErrUnsupportedURI, uri)
	}
	return filepath.FromSlash(u.Path), nil
}

func (l *Local) PutFileAtomically(ctx context.Context, src, dst string) error {
	dstPath, err := l.localPath(dst)
	if err != nil {
		return err
	}
	if _, err := os.Stat(src); err != nil {
		return notFound(err, src)
	}

	var copied int64
	err = commitAtomically(ctx, dstPath, func(tmp string) error {
		n, err := copyTree(ctx, src, tmp)
		copied = n
		if err != nil {
			return notFound(err, src)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Debug().
		Str("src", src).
		Str("dst", dst).
		Str("size", humanize.Bytes(uint64(copied))).
		Msg("archivefs: local put complete")
	return nil
}

func (l *Local) ListPath(ctx context.Context, uri string) ([]string, error) {
	p, err := l.localPath(uri)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", uri, err)
	}

	u, _ := schemePath(uri, "file")
	children := make([]string, 0, len(entries))
	for _, e := range entries {
		if isStaging(e.Name()) {
			continue
		}
		children = append(children, childURI(u, e.Name()))
	}
	sort.Strings(children)
	return children, nil
}

func (l *Local) GetFile(ctx context.Context, uri, localDst string) error {
	p, err := l.localPath(uri)
	if err != nil {
		return err
	}
	if _, err := os.Stat(p); err != nil {
		return notFound(err, uri)
	}
	return commitAtomically(ctx, localDst, func(tmp string) error {
		_, err := copyTree(ctx, p, tmp)
		return notFound(err, uri)
	})
}

func (l *Local) Exists(ctx context.Context, uri string) (bool, error) {
	p, err := l.localPath(uri)
	if err != nil {
		return false, err
	}
	_, err = os.Lstat(p)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (l *Local) Close() error {
	return nil
}
