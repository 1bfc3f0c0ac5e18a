package options

import (
	"context"

	domopts "github.com/kailas-cloud/kwharvest/internal/domain/options"
)

// Repository persists the saved search options.
type Repository interface {
	Load(ctx context.Context) (domopts.SearchOptions, error)
	Save(ctx context.Context, o domopts.SearchOptions) error
}
