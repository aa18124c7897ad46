// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newListCmd(v *viper.Viper) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List archived indexes or the buckets of one index",
		Long: `List the contents of the archive of this cluster and server.

Without --index, the archived indexes are printed. With --index, every
archived bucket of that index is printed with the format a thaw would use.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, v)
		},
	}

	listCmd.Flags().String("index", "", "Index to list buckets of")
	return listCmd
}

func runList(cmd *cobra.Command, v *viper.Viper) error {
	fl := NewFlagLoader(cmd, v)

	p, err := newPipeline(v)
	if err != nil {
		return exitErr(ExitArchiveFailed, "%v", err)
	}
	defer p.Close()

	ctx := cmd.Context()
	lister := p.lister()

	index := fl.String("index")
	if index == "" {
		indexes, err := lister.ListIndexes(ctx)
		if err != nil {
			return exitErr(ExitArchiveFailed, "%v", err)
		}
		for _, idx := range indexes {
			fmt.Fprintln(cmd.OutOrStdout(), idx)
		}
		return nil
	}

	listed, err := lister.ListBuckets(ctx, index, time.Time{}, time.Time{})
	if err != nil {
		return exitErr(ExitArchiveFailed, "%v", err)
	}
	resolved, err := p.resolver().ResolveBucketsFormats(ctx, listed)
	if err != nil {
		return exitErr(ExitArchiveFailed, "%v", err)
	}
	printBuckets(cmd.OutOrStdout(), resolved)
	return nil
}
