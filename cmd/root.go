// Package cmd contains the CLI for the gts-validator application.
package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/eykd/gts-validator/internal/config"
	"github.com/eykd/gts-validator/internal/domain"
	"github.com/eykd/gts-validator/internal/fs"
	"github.com/eykd/gts-validator/internal/lock"
	"github.com/eykd/gts-validator/internal/logging"
	"github.com/eykd/gts-validator/internal/metrics"
	"github.com/eykd/gts-validator/internal/watch"
)

// ValidateRunner runs one validation pass over the configured roots.
type ValidateRunner interface {
	Validate(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*domain.Report, error)
}

// rootOptions holds the parsed command-line flags.
type rootOptions struct {
	vendor      string
	exclude     []string
	json        bool
	strict      bool
	verbose     bool
	maxFileSize int64
	scanKeys    bool
	skipTokens  []string
	workers     int
	configPath  string
	output      string
	metricsFile string
	watch       bool
	noColor     bool
}

// NewRootCmd creates the gts-validator command. A nil runner uses the
// filesystem pipeline.
func NewRootCmd(runner ValidateRunner) *cobra.Command {
	if runner == nil {
		runner = &pipelineRunner{}
	}
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "gts-validator [PATH...]",
		Short: "Validate GTS identifiers in documentation and schema files",
		Long: `gts-validator scans markdown, JSON and YAML files for GTS identifiers
and reports every identifier that is malformed or carries the wrong vendor.

Without PATH arguments the existing directories among docs, modules, libs
and examples are scanned.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.New(cmd.ErrOrStderr(), opts.verbose)
			cfg, err := resolveConfig(cmd, opts, args, logger)
			if err != nil {
				return err
			}

			run := &validationRun{
				runner:   runner,
				cfg:      cfg,
				opts:     opts,
				logger:   logger,
				out:      cmd.OutOrStdout(),
				colour:   useColor(cmd.OutOrStdout(), opts.noColor),
				recorder: metrics.NewRecorder(),
			}
			err = run.once(cmd.Context())
			if !opts.watch || (err != nil && !isFindings(err)) {
				return err
			}
			return run.watch(cmd.Context(), cmd.ErrOrStderr(), err)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.vendor, "vendor", "", "Require every identifier to use this vendor")
	flags.StringArrayVarP(&opts.exclude, "exclude", "e", nil, "Exclude paths matching a glob (repeatable)")
	flags.BoolVar(&opts.json, "json", false, "Output the report as JSON")
	flags.BoolVar(&opts.strict, "strict", false, "Only recognize identifiers in code and whole values")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging to stderr")
	flags.Int64Var(&opts.maxFileSize, "max-file-size", config.DefaultMaxFileSize, "Skip files larger than this many bytes")
	flags.BoolVar(&opts.scanKeys, "scan-keys", false, "Also scan JSON and YAML mapping keys")
	flags.StringArrayVar(&opts.skipTokens, "skip-token", nil, "Ignore markdown identifiers preceded by this marker (repeatable)")
	flags.IntVar(&opts.workers, "workers", 1, "Number of files validated concurrently")
	flags.StringVar(&opts.configPath, "config", "", "Path to a config file (default: .gts-validator.yaml in a parent directory)")
	flags.StringVar(&opts.output, "output", "", "Also write the report to this file")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics in textfile format")
	flags.BoolVar(&opts.watch, "watch", false, "Re-run validation when files change")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable coloured output")

	return cmd
}

// resolveConfig layers command-line flags over the loaded configuration and
// fills in the default roots.
func resolveConfig(cmd *cobra.Command, opts *rootOptions, args []string, logger *slog.Logger) (*config.Config, error) {
	cfg, err := config.NewLoader(logger).Load(opts.configPath)
	if err != nil {
		return nil, &ContextError{Op: "load config", Path: opts.configPath, Err: err}
	}

	flags := cmd.Flags()
	if flags.Changed("vendor") {
		cfg.Vendor = opts.vendor
	}
	cfg.Exclude = append(cfg.Exclude, opts.exclude...)
	if flags.Changed("strict") {
		cfg.Strict = opts.strict
	}
	if flags.Changed("max-file-size") {
		cfg.MaxFileSize = opts.maxFileSize
	}
	if flags.Changed("scan-keys") {
		cfg.ScanKeys = opts.scanKeys
	}
	cfg.SkipTokens = append(cfg.SkipTokens, opts.skipTokens...)
	if flags.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if len(args) > 0 {
		cfg.Paths = args
	}
	for _, out := range []string{opts.output, opts.metricsFile} {
		if out != "" {
			cfg.Outputs = append(cfg.Outputs, out)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if len(cfg.Paths) == 0 {
		cfg.Paths = fs.ExistingRoots("", fs.DefaultRoots)
		if len(cfg.Paths) == 0 {
			return nil, fmt.Errorf("%w: none of the default roots %v exist", fs.ErrNoPaths, fs.DefaultRoots)
		}
		logger.Debug("using default roots", slog.Any("paths", cfg.Paths))
	}
	return cfg, nil
}

// validationRun renders and records the passes of one command invocation.
type validationRun struct {
	runner   ValidateRunner
	cfg      *config.Config
	opts     *rootOptions
	logger   *slog.Logger
	out      io.Writer
	colour   bool
	recorder *metrics.Recorder
}

// once runs a single validation pass. Error findings are reported as a
// FindingsDetectedError after the report has been written.
func (r *validationRun) once(ctx context.Context) error {
	start := time.Now()
	report, err := r.runner.Validate(ctx, r.cfg, r.logger)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	r.render(r.out, report, r.colour)

	if r.opts.output != "" {
		var buf bytes.Buffer
		r.render(&buf, report, false)
		if err := lock.WriteFile(ctx, r.opts.output, buf.Bytes()); err != nil {
			return &ContextError{Op: "write report", Path: r.opts.output, Err: err}
		}
	}

	if r.opts.metricsFile != "" {
		r.recorder.Observe(report, elapsed)
		if err := r.recorder.WriteTextfile(r.opts.metricsFile); err != nil {
			return &ContextError{Op: "write metrics", Path: r.opts.metricsFile, Err: err}
		}
	}

	r.logger.Debug("validation finished",
		slog.Int("files", report.ScannedFiles()),
		slog.Int("errors", report.ErrorsCount()),
		slog.Duration("elapsed", elapsed))

	if !report.OK() {
		return &FindingsDetectedError{Errors: report.ErrorsCount(), Warnings: report.WarningsCount()}
	}
	return nil
}

func (r *validationRun) render(w io.Writer, report *domain.Report, colour bool) {
	if r.opts.json {
		formatReportJSON(w, report)
		return
	}
	formatReportHuman(w, report, newPalette(colour))
}

// watch re-runs validation on every batch of changes until ctx is done.
// It returns the outcome of the last completed pass.
func (r *validationRun) watch(ctx context.Context, status io.Writer, last error) error {
	w, err := watch.New(watch.Config{
		Roots:    r.cfg.Paths,
		SkipDir:  fs.SkipDir,
		Relevant: fs.Relevant(r.cfg.Outputs),
	}, r.logger)
	if err != nil {
		return &ContextError{Op: "watch", Err: err}
	}
	defer w.Close()

	fmt.Fprintln(status, "Watching for changes (press Ctrl+C to stop)")
	err = w.Run(ctx, func(ctx context.Context, changed []string) error {
		r.logger.Debug("re-running validation", slog.Int("changed", len(changed)))
		fmt.Fprintln(r.out)
		err := r.once(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		last = err
		if err != nil && !isFindings(err) {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	return last
}

func isFindings(err error) bool {
	var findings *FindingsDetectedError
	return errors.As(err, &findings)
}
