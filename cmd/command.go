// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	rctx "github.com/LeeDigitalWorks/bucketvault/pkg/context"
	"github.com/LeeDigitalWorks/bucketvault/pkg/debug"
	"github.com/LeeDigitalWorks/bucketvault/pkg/logger"
	"github.com/LeeDigitalWorks/bucketvault/pkg/types"
	"github.com/LeeDigitalWorks/bucketvault/pkg/utils"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Process exit codes
const (
	ExitOK            = 0
	ExitMissingArg    = 1
	ExitTooManyArgs   = 2
	ExitNotDirectory  = 3
	ExitArchiveFailed = 4
)

// ExitError carries the process exit code for a failed command
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func exitErr(code int, format string, args ...any) *ExitError {
	return &ExitError{Code: code, Err: fmt.Errorf(format, args...)}
}

// configOverrides are config keys that may also be given as root flags
var configOverrides = []string{
	"archive_root",
	"archive_format",
	"cluster_name",
	"server_name",
	"safe_location",
	"tmp_dir",
	"metrics_file",
}

// NewRootCmd builds the bucketvault command tree. Every command gets its own
// viper instance so that runs never share configuration state.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "bucketvault",
		Short: "bucketvault - archive and thaw index buckets",
		Long: `bucketvault moves frozen index buckets into long-term archive storage
and brings them back into an index's thaw location on request.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, v)
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&utils.ConfigurationFileDirectory, "config_dir", ".", "Directory for configuration files")
	pf.String("log_level", "", "Log level (trace, debug, info, warn, error). Env: LOG_LEVEL")
	pf.String("debug_addr", "", "Serve /metrics, /health and pprof on this address while running")
	pf.String("archive_root", "", "Archive root URI (file://, s3:// or mem://)")
	pf.String("archive_format", "", "Format buckets are archived in (SPLUNK_BUCKET or CSV)")
	pf.String("cluster_name", "", "Cluster name used in archive paths")
	pf.String("server_name", "", "Server name used in archive paths")
	pf.String("safe_location", "", "Directory buckets are moved to before archiving")
	pf.String("tmp_dir", "", "Directory for exported bucket copies")
	pf.String("metrics_file", "", "Write metrics in textfile format here when the command ends")

	root.AddCommand(
		newFreezeCmd(v),
		newThawCmd(v),
		newListCmd(v),
		newVersionCmd(),
	)
	root.Version = Version
	root.SetVersionTemplate("bucketvault {{.Version}}\n")
	return root
}

func loadConfig(cmd *cobra.Command, v *viper.Viper) error {
	fl := NewFlagLoader(cmd, v)
	if level := fl.String("log_level"); level != "" {
		if err := logger.SetLevelString(level); err != nil {
			return err
		}
	}

	types.SetArchiveDefaults(v)
	utils.LoadConfigurationInto(v, "bucketvault", false)
	fl.Override(configOverrides...)
	return nil
}

// withDebugServer serves the debug mux on addr for the duration of fn
func withDebugServer(ctx context.Context, addr string, fn func() error) error {
	if addr == "" {
		return fn()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("debug listener: %w", err)
	}
	srv := &http.Server{Handler: debug.GetMux(), ReadHeaderTimeout: 5 * time.Second}
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn().Err(err).Msg("debug server stopped")
		}
	}()
	logger.Info().Str("addr", ln.Addr().String()).Msg("debug server listening")

	debug.SetReady()
	err = fn()
	debug.SetNotReady()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
	<-done
	return err
}

// writeMetrics writes the metrics textfile if one is configured
func writeMetrics(v *viper.Viper) {
	path := v.GetString("metrics_file")
	if path == "" {
		return
	}
	if err := debug.WriteMetricsFile(path); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("failed to write metrics file")
	}
}

// Run executes the CLI with args and returns the process exit code
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	ctx, _ = rctx.WithRunLogger(ctx)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	fmt.Fprintln(stderr, "Error:", err)

	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return 1
}

// Execute runs the CLI on the process arguments and returns the exit code
func Execute() int {
	return Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}
