package cmd

import (
	"context"
	"log/slog"

	"github.com/eykd/gts-validator/internal/config"
	"github.com/eykd/gts-validator/internal/domain"
	"github.com/eykd/gts-validator/internal/fs"
	"github.com/eykd/gts-validator/internal/validation"
)

// pipelineRunner validates the files under the configured roots.
type pipelineRunner struct{}

func (pipelineRunner) Validate(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*domain.Report, error) {
	src := fs.NewSource(sourceConfig(cfg), logger)
	svc := validation.NewService(validationConfig(cfg),
		validation.WithWorkers(cfg.Workers),
		validation.WithLogger(logger),
	)
	return svc.Run(ctx, src)
}

func sourceConfig(cfg *config.Config) fs.Config {
	sc := fs.DefaultConfig()
	sc.Paths = cfg.Paths
	sc.Exclude = cfg.Exclude
	sc.Ignore = cfg.Outputs
	sc.FollowLinks = cfg.Follow()
	if cfg.MaxFileSize > 0 {
		sc.MaxFileSize = cfg.MaxFileSize
	}
	return sc
}

func validationConfig(cfg *config.Config) domain.ValidationConfig {
	vc := domain.ValidationConfig{
		VendorPolicy: domain.Unconstrained(),
		ScanKeys:     cfg.ScanKeys,
		SkipTokens:   cfg.SkipTokens,
	}
	if cfg.Vendor != "" {
		vc.VendorPolicy = domain.MustMatch(cfg.Vendor)
	}
	if cfg.Strict {
		vc.Discovery = domain.DiscoveryStrict
	}
	return vc
}
