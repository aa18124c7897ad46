// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/LeeDigitalWorks/bucketvault/pkg/logger"
	"github.com/LeeDigitalWorks/bucketvault/pkg/thaw"
	"github.com/LeeDigitalWorks/bucketvault/pkg/types"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newThawCmd(v *viper.Viper) *cobra.Command {
	thawCmd := &cobra.Command{
		Use:   "thaw",
		Short: "Restore archived buckets into an index's thaw location",
		Long: `Restore archived buckets of an index.

Buckets are listed from the archive, optionally filtered by the time range
encoded in their names, and resolved to the best archived format. Each one is
then downloaded into the thaw location configured for the index. Buckets
already present in the thaw location are skipped.

Example:
  bucketvault thaw --index main --from 2024-01-01T00:00:00Z --to 2024-02-01T00:00:00Z
  bucketvault thaw --index main --dry_run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runThaw(cmd, v)
		},
	}

	thawCmd.Flags().String("index", "", "Index to thaw buckets of (required)")
	thawCmd.Flags().String("from", "", "Only buckets with data at or after this time (RFC 3339 or unix seconds)")
	thawCmd.Flags().String("to", "", "Only buckets with data at or before this time (RFC 3339 or unix seconds)")
	thawCmd.Flags().Bool("dry_run", false, "Print what would be thawed without downloading")
	return thawCmd
}

func runThaw(cmd *cobra.Command, v *viper.Viper) error {
	fl := NewFlagLoader(cmd, v)
	index := fl.String("index")
	if index == "" {
		return exitErr(ExitMissingArg, "--index is required")
	}
	from, err := fl.Time("from")
	if err != nil {
		return exitErr(ExitMissingArg, "%v", err)
	}
	to, err := fl.Time("to")
	if err != nil {
		return exitErr(ExitMissingArg, "%v", err)
	}

	p, err := newPipeline(v)
	if err != nil {
		return exitErr(ExitArchiveFailed, "%v", err)
	}
	defer p.Close()
	defer writeMetrics(v)

	ctx := cmd.Context()
	return withDebugServer(ctx, fl.String("debug_addr"), func() error {
		listed, err := p.lister().ListBuckets(ctx, index, from, to)
		if err != nil {
			return exitErr(ExitArchiveFailed, "%v", err)
		}
		resolved, err := p.resolver().ResolveBucketsFormats(ctx, listed)
		if err != nil {
			return exitErr(ExitArchiveFailed, "%v", err)
		}
		logger.Info().Str("index", index).Int("buckets", len(resolved)).Msg("thaw: buckets resolved")

		if fl.Bool("dry_run") {
			printBuckets(cmd.OutOrStdout(), resolved)
			return nil
		}

		results, err := p.thawer().ThawBuckets(ctx, resolved)
		printResults(cmd.OutOrStdout(), results)
		if err != nil {
			return exitErr(ExitArchiveFailed, "thaw failed: %v", err)
		}
		return nil
	})
}

func printBuckets(out io.Writer, buckets []types.Bucket) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BUCKET\tFORMAT\tURI")
	for _, b := range buckets {
		fmt.Fprintf(w, "%s\t%s\t%s\n", b.Name(), b.Format(), b.URI())
	}
	w.Flush()
}

func printResults(out io.Writer, results []thaw.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BUCKET\tFORMAT\tSTATUS\tDIRECTORY")
	for _, r := range results {
		status := "thawed"
		switch {
		case r.Err != nil:
			status = "failed: " + r.Err.Error()
		case r.Skipped:
			status = "skipped"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Bucket.Name(), r.Bucket.Format(), status, r.Directory)
	}
	w.Flush()
}
