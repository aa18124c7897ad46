// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package archivefs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// tmpPrefix marks staging entries. Listings skip them.
const tmpPrefix = ".tmp-"

func isStaging(name string) bool {
	return strings.HasPrefix(name, tmpPrefix)
}

// commitAtomically stages content via fill into a hidden sibling of dst and
// renames it into place without replacing anything. On any failure the
// staging copy is removed and dst is untouched.
func commitAtomically(ctx context.Context, dst string, fill func(tmp string) error) (err error) {
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("%w: %s", ErrFileOverwrite, dst)
	}

	parent := filepath.Dir(dst)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	tmp := filepath.Join(parent, tmpPrefix+uuid.NewString())
	defer func() {
		if err != nil {
			os.RemoveAll(tmp)
		}
	}()

	if err := fill(tmp); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := renameNoReplace(tmp, dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrFileOverwrite, dst)
		}
		return fmt.Errorf("rename into place: %w", err)
	}
	return syncDir(parent)
}

// copyTree copies the file or directory src to dst, syncing file data.
// Returns the number of bytes copied.
func copyTree(ctx context.Context, src, dst string) (int64, error) {
	var total int64
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm()|0700)
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(p)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case d.Type().IsRegular():
			n, err := copyFile(p, target, info.Mode().Perm())
			total += n
			return err
		default:
			// Sockets, devices and pipes have no place in an archive.
			return nil
		}
	})
	return total, err
}

func copyFile(src, dst string, perm fs.FileMode) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if err == nil {
		err = syncFile(out)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	// Some filesystems refuse to fsync directories; the rename already
	// happened, so that is not a failure of the put.
	_ = d.Sync()
	return nil
}

// notFound maps a missing source to ErrFileNotFound, keeping other errors.
func notFound(err error, what string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrFileNotFound, what)
	}
	return err
}

// schemePath returns the path of uri after checking its scheme.
func schemePath(uri, scheme string) (*url.URL, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedURI, uri, err)
	}
	if u.Scheme != scheme {
		return nil, fmt.Errorf("%w: %s: expected %s:// scheme", ErrUnsupportedURI, uri, scheme)
	}
	return u, nil
}

// childURI appends one path element to parent
func childURI(parent *url.URL, name string) string {
	u := *parent
	u.Path = path.Join("/", u.Path, name)
	u.RawPath = ""
	return u.String()
}
