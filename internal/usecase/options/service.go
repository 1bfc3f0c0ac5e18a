// Package options loads and saves the search options used by new runs.
package options

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kwharvest/internal/db"
	domopts "github.com/kailas-cloud/kwharvest/internal/domain/options"
)

// Service reads and writes the saved options.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// New creates an options service.
func New(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// Load returns the saved options. Missing or malformed data falls back to defaults.
func (s *Service) Load(ctx context.Context) domopts.SearchOptions {
	o, err := s.repo.Load(ctx)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			s.logger.Warn("saved options unreadable, using defaults", zap.Error(err))
		}
		return domopts.Default()
	}
	if err := o.Validate(); err != nil {
		s.logger.Warn("saved options invalid, using defaults", zap.Error(err))
		return domopts.Default()
	}
	return o.WithDefaults()
}

// Save validates and persists options.
func (s *Service) Save(ctx context.Context, o domopts.SearchOptions) (domopts.SearchOptions, error) {
	if err := o.Validate(); err != nil {
		return domopts.SearchOptions{}, err
	}
	o = o.WithDefaults()
	if err := s.repo.Save(ctx, o); err != nil {
		return domopts.SearchOptions{}, fmt.Errorf("save options: %w", err)
	}
	return o, nil
}
