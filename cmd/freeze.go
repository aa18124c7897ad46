// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/LeeDigitalWorks/bucketvault/pkg/archive"
	"github.com/LeeDigitalWorks/bucketvault/pkg/logger"
	"github.com/LeeDigitalWorks/bucketvault/pkg/utils"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newFreezeCmd(v *viper.Viper) *cobra.Command {
	freezeCmd := &cobra.Command{
		Use:   "freeze <bucket-dir>",
		Short: "Archive a frozen bucket",
		Long: `Archive a bucket directory handed over by the indexer.

The bucket is moved to the safe location first, so the indexer may drop its
own copy as soon as this command returns. It is then locked, exported to the
configured archive format and transferred into the archive. An archived
bucket is never overwritten.

Exit codes:
  0  bucket archived
  1  no bucket directory given
  2  more than one argument given
  3  the argument is not a directory
  4  archiving failed

Example:
  bucketvault freeze /opt/splunk/var/lib/splunk/main/colddb/db_1700003600_1700000000_7
  bucketvault freeze --recover`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFreeze(cmd, v, args)
		},
	}

	freezeCmd.Flags().String("index", "", "Index of the bucket (default: derived from the path)")
	freezeCmd.Flags().Bool("recover", false, "Archive buckets left in the safe location by an interrupted run")
	freezeCmd.Flags().Int("concurrency", 0, "Buckets archived in parallel when recovering")
	return freezeCmd
}

func runFreeze(cmd *cobra.Command, v *viper.Viper, args []string) error {
	fl := NewFlagLoader(cmd, v)
	recoverSafe := fl.Bool("recover")

	switch {
	case len(args) == 0 && !recoverSafe:
		return exitErr(ExitMissingArg, "missing bucket directory argument")
	case len(args) > 1:
		return exitErr(ExitTooManyArgs, "expected one bucket directory, got %d arguments", len(args))
	case len(args) == 1 && !utils.IsDirectory(args[0]):
		return exitErr(ExitNotDirectory, "%s is not a directory", args[0])
	}

	if cmd.Flags().Changed("concurrency") {
		v.Set("concurrency", fl.Int("concurrency"))
	}

	p, err := newPipeline(v)
	if err != nil {
		return exitErr(ExitArchiveFailed, "%v", err)
	}
	defer p.Close()
	defer writeMetrics(v)

	ctx := cmd.Context()
	freezer := p.freezer()
	start := time.Now()

	err = withDebugServer(ctx, fl.String("debug_addr"), func() error {
		if recoverSafe {
			if err := freezer.RecoverSafeLocation(ctx); err != nil {
				return err
			}
		}
		if len(args) == 1 {
			return freezer.FreezeBucket(ctx, args[0], fl.String("index"))
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, archive.ErrNotDirectory) {
			return &ExitError{Code: ExitNotDirectory, Err: err}
		}
		sentry.CaptureException(err)
		return &ExitError{Code: ExitArchiveFailed, Err: fmt.Errorf("freeze failed: %w", err)}
	}

	logger.Info().
		Dur("elapsed", time.Since(start)).
		Msg("freeze complete")
	return nil
}
