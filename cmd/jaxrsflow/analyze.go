package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/speakeasy-api/jaxrsflow/analysis"
	"github.com/speakeasy-api/jaxrsflow/internal/fixture"
)

func newAnalyzeCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <fixture>...",
		Short: "Infer the responses of every resource method in the fixtures",
		Long: `Analyze loads the given fixture files and directories, simulates every
resource method and prints the inferred endpoints.

Exit codes: 0 on success, 1 when --strict is set and warnings were produced,
2 on invalid input.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts, args)
		},
	}
}

func runAnalyze(cmd *cobra.Command, opts *cliOptions, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := opts.config(cmd)
	if err != nil {
		return errWithCode(err, exitError)
	}
	fx, err := loadFixtures(ctx, args)
	if err != nil {
		return errWithCode(err, exitError)
	}
	if len(fx.Resources) == 0 {
		return errWithCode(errors.New("no resources found in the given fixtures"), exitError)
	}

	run := analysis.NewContext(fx.Catalog, cfg.Options(cmd.ErrOrStderr()))
	analyzer := analysis.NewResourceMethodAnalyzer(run)
	methods := analysis.Methods(fx.Resources...)

	slog.Info("Analyzing resource methods", "classes", len(fx.Catalog), "methods", len(methods), "concurrency", cfg.Concurrency)
	start := time.Now()
	if err := analysis.AnalyzeAll(ctx, analyzer, methods, cfg.Concurrency); err != nil {
		if ctx.Err() != nil {
			return errWithCode(err, exitError)
		}
		slog.Warn("Some methods could not be analyzed", "err", err)
	}
	res := analysis.Interpret(run.Types, fx.Resources...)
	slog.Info("Analysis completed", "paths", res.Paths.Len(), "types", run.Registry.Len(), "dur", time.Since(start))

	if err := writeResources(cmd.OutOrStdout(), res, run.Registry, cfg.Output); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if opts.Strict {
		if warnings := collectWarnings(res); len(warnings) > 0 {
			fmt.Fprint(cmd.ErrOrStderr(), formatWarnings(warnings))
			return errWithCode(nil, exitWarnings)
		}
	}
	return nil
}

// loadFixtures reads every argument, file or directory, into one fixture.
func loadFixtures(ctx context.Context, paths []string) (*fixture.Fixture, error) {
	var files []string
	var loaded []*fixture.Fixture
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		fx, err := fixture.LoadDir(ctx, p)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, fx)
	}
	if len(files) > 0 {
		fx, err := fixture.LoadFiles(ctx, files...)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, fx)
	}
	return fixture.Merge(loaded...), nil
}
