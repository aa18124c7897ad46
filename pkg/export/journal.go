// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LeeDigitalWorks/bucketvault/pkg/compression"
	"github.com/LeeDigitalWorks/bucketvault/pkg/types"
)

// journalName is the raw event journal inside a bucket's rawdata directory
const journalName = "journal"

// maxEventSize bounds a single raw event
const maxEventSize = 16 << 20

// journalCandidates in lookup order
var journalCandidates = []compression.Algorithm{
	compression.None,
	compression.Gzip,
	compression.ZSTD,
	compression.LZ4,
	compression.S2,
}

// findJournal locates the journal of a native bucket and the codec it was
// written with
func findJournal(bucketDir string) (string, compression.Algorithm, error) {
	rawdata := filepath.Join(bucketDir, types.RawdataDir)
	for _, algo := range journalCandidates {
		p := filepath.Join(rawdata, journalName+algo.Extension())
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			return p, algo, nil
		}
	}
	return "", compression.None, fmt.Errorf("no journal in %s", rawdata)
}

// readJournal calls fn for every newline-delimited raw event in the journal
// of bucketDir, stopping at the first error.
func readJournal(ctx context.Context, bucketDir string, fn func(event string) error) error {
	p, algo, err := findJournal(bucketDir)
	if err != nil {
		return err
	}
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := compression.NewReader(algo, f)
	if err != nil {
		return fmt.Errorf("open journal %s: %w", p, err)
	}
	defer r.Close()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxEventSize)
	for n := 0; sc.Scan(); n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := fn(sc.Text()); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read journal %s: %w", p, err)
	}
	return nil
}
