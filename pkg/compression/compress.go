// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"fmt"
	"io"
)

// NewReader wraps r to decompress data as it's read.
// The returned ReadCloser must be closed when done; closing does not close r.
func NewReader(algo Algorithm, r io.Reader) (io.ReadCloser, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	switch algo {
	case None, "":
		rc = io.NopCloser(r)
	case Gzip:
		rc, err = newGzipReader(r)
	case ZSTD:
		rc, err = newZSTDReader(r)
	case LZ4:
		rc = newLZ4Reader(r)
	case S2:
		rc = newS2Reader(r)
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %q", algo)
	}
	if err != nil {
		return nil, err
	}
	recordStream(algo, "decompress")
	return rc, nil
}

// NewWriter wraps w to compress data as it's written.
// The returned WriteCloser must be closed to flush remaining data; closing
// does not close w.
func NewWriter(algo Algorithm, w io.Writer) (io.WriteCloser, error) {
	var wc io.WriteCloser
	switch algo {
	case None, "":
		wc = &nopWriteCloser{w}
	case Gzip:
		wc = newGzipWriter(w)
	case ZSTD:
		wc = newZSTDWriter(w)
	case LZ4:
		wc = newLZ4Writer(w)
	case S2:
		wc = newS2Writer(w)
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %q", algo)
	}
	recordStream(algo, "compress")
	return wc, nil
}

// nopWriteCloser wraps a Writer to add a no-op Close method
type nopWriteCloser struct {
	io.Writer
}

func (w *nopWriteCloser) Close() error {
	return nil
}
