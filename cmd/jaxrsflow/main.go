// Package main implements the jaxrsflow command line tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/speakeasy-api/jaxrsflow/internal/config"
)

const (
	exitWarnings = 1
	exitError    = 2
)

var (
	// Set via ldflags during build.
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliOptions holds the flags shared by every subcommand.
type cliOptions struct {
	ConfigPath  string
	LogLevel    string
	Format      string
	Concurrency int
	NoColor     bool
	Strict      bool
	Verbose     bool
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		if err.Error() != "" {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		var cErr *codedError
		if errors.As(err, &cErr) {
			os.Exit(cErr.code)
		}
		os.Exit(exitError)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	root := &cobra.Command{
		Use:   "jaxrsflow",
		Short: "Infer the HTTP contract of JAX-RS resources",
		Long: `jaxrsflow simulates the bytecode of JAX-RS resource methods and reports
the responses each endpoint can produce: status codes, headers, media types
and entity types.

Inputs are YAML fixtures describing classes and resources.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(cmd.ErrOrStderr(), opts)
			return nil
		},
	}
	root.SetVersionTemplate(versionString())

	flags := root.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "Path to a YAML configuration file")
	flags.StringVar(&opts.LogLevel, "log-level", "", "Engine log level: error, warn, info, debug")
	flags.StringVar(&opts.Format, "format", "", "Output format: table, yaml, openapi")
	flags.IntVar(&opts.Concurrency, "concurrency", 0, "Number of methods submitted concurrently")
	flags.BoolVar(&opts.NoColor, "no-color", false, "Disable colored log output")
	flags.BoolVar(&opts.Strict, "strict", false, "Exit with status 1 when the analysis produced warnings")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Print progress information")

	root.AddCommand(newAnalyzeCmd(opts), newDumpCmd(), newVersionCmd())
	return root
}

// config loads the configuration file, if any, and applies the flags the
// user set explicitly.
func (o *cliOptions) config(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if o.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(o.ConfigPath); err != nil {
			return cfg, fmt.Errorf("loading config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = o.LogLevel
	}
	if flags.Changed("format") {
		cfg.Output.Format = strings.ToLower(o.Format)
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = o.Concurrency
	}
	if o.NoColor {
		cfg.Logging.Color = config.ColorNever
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func setupLogging(w io.Writer, opts *cliOptions) {
	slog.SetDefault(slog.New(slog.DiscardHandler))
	if opts.Verbose {
		handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
		slog.SetDefault(slog.New(handler))
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprint(cmd.OutOrStdout(), versionString())
		},
	}
}

func versionString() string {
	return fmt.Sprintf("jaxrsflow version %s\n  commit: %s\n  built:  %s\n", version, gitCommit, buildTime)
}

func errWithCode(err error, code int) error {
	return &codedError{err: err, code: code}
}

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return ""
}

func (e *codedError) Unwrap() error { return e.err }
