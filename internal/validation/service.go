package validation

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/eykd/gts-validator/internal/domain"
	"github.com/eykd/gts-validator/internal/extract"
)

// Item is one document handed to the engine.
type Item struct {
	Path    string
	Content string
}

// Source yields the documents of one run in a stable order. A non-nil error
// aborts the run.
type Source interface {
	Items(ctx context.Context) iter.Seq2[Item, error]
}

// SliceSource is an in-memory Source.
type SliceSource []Item

// Items implements Source.
func (s SliceSource) Items(ctx context.Context) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		for _, it := range s {
			if !yield(it, nil) {
				return
			}
		}
	}
}

// InputError reports a source failure. It aborts the run before a report
// is produced.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("input: %v", e.Err)
	}
	return fmt.Sprintf("input %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

func asInputError(path string, err error) error {
	var ie *InputError
	if errors.As(err, &ie) {
		return err
	}
	return &InputError{Path: path, Err: err}
}

// Option configures a Service.
type Option func(*Service)

// WithWorkers validates up to n files concurrently. Values below 2 keep the
// run sequential.
func WithWorkers(n int) Option {
	return func(s *Service) {
		s.workers = n
	}
}

// WithLogger sets the logger for per-file diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGrammar replaces the built-in grammar.
func WithGrammar(g Grammar) Option {
	return func(s *Service) {
		if g != nil {
			s.grammar = g
		}
	}
}

// Service runs the extract, validate and report pipeline over a Source.
type Service struct {
	cfg     domain.ValidationConfig
	grammar Grammar
	logger  *slog.Logger
	workers int
}

// NewService creates a Service for cfg.
func NewService(cfg domain.ValidationConfig, opts ...Option) *Service {
	cfg.VendorPolicy = normalizePolicy(cfg.VendorPolicy)
	s := &Service{
		cfg:     cfg,
		grammar: DefaultGrammar(),
		logger:  slog.New(slog.DiscardHandler),
		workers: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// fileResult is the outcome of processing one item.
type fileResult struct {
	path       string
	candidates int
	findings   []domain.Finding
	extractErr error
}

// Run validates every item of src and returns the frozen report. The first
// source error aborts the run with an *InputError.
func (s *Service) Run(ctx context.Context, src Source) (*domain.Report, error) {
	s.logger.Debug("validation started",
		"grammar", s.grammar.Version(),
		"vendor_policy", s.cfg.VendorPolicy.String(),
		"discovery", s.cfg.Discovery.String(),
		"workers", s.workers,
	)

	var (
		results []*fileResult
		err     error
	)
	if s.workers > 1 {
		results, err = s.collectConcurrent(ctx, src)
	} else {
		results, err = s.collect(ctx, src)
	}
	if err != nil {
		return nil, err
	}

	b := domain.NewReportBuilder()
	for _, r := range results {
		s.record(b, r)
	}
	report := b.Finish()

	s.logger.Debug("validation finished",
		"scanned_files", report.ScannedFiles(),
		"errors", report.ErrorsCount(),
		"warnings", report.WarningsCount(),
	)
	return report, nil
}

func (s *Service) collect(ctx context.Context, src Source) ([]*fileResult, error) {
	validator := NewValidator(s.cfg, s.grammar)

	var results []*fileResult
	for item, err := range src.Items(ctx) {
		if err != nil {
			return nil, asInputError(item.Path, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, s.process(validator, item))
	}
	return results, nil
}

// collectConcurrent fans items out to a bounded pool. Results keep their
// source position, so the fold sees the sequential order.
func (s *Service) collectConcurrent(ctx context.Context, src Source) ([]*fileResult, error) {
	validator := NewValidator(s.cfg, s.grammar)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	var (
		results []*fileResult
		srcErr  error
	)
	for item, err := range src.Items(gctx) {
		if err != nil {
			srcErr = asInputError(item.Path, err)
			break
		}
		if err := gctx.Err(); err != nil {
			break
		}
		slot := &fileResult{}
		results = append(results, slot)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			*slot = *s.process(validator, item)
			return nil
		})
	}

	werr := g.Wait()
	if srcErr != nil {
		return nil, srcErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if werr != nil {
		return nil, werr
	}
	return results, nil
}

func (s *Service) process(v *Validator, item Item) *fileResult {
	ext := extract.Extract(item.Path, item.Content, s.cfg)
	return &fileResult{
		path:       item.Path,
		candidates: len(ext.Candidates),
		findings:   v.Check(item.Path, ext.Candidates),
		extractErr: ext.Err,
	}
}

func (s *Service) record(b *domain.ReportBuilder, r *fileResult) {
	if r.extractErr != nil {
		s.logger.Warn("could not parse structured document",
			"file", r.path,
			"format", string(extract.FormatFor(r.path)),
			"error", r.extractErr,
		)
	}
	s.logger.Debug("scanned file",
		"file", r.path,
		"identifiers", r.candidates,
		"findings", len(r.findings),
	)
	b.RecordFile(r.path, r.candidates, r.findings)
}
