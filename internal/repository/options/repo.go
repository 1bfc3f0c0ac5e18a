// Package options persists the saved search options.
package options

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/kwharvest/internal/domain"
	domopts "github.com/kailas-cloud/kwharvest/internal/domain/options"
)

const optionsKey = "options"

// store is the consumer interface for options (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Repo implements usecase/options.Repository.
type Repo struct {
	store  store
	prefix string
}

// New creates an options repository.
func New(s store) *Repo {
	return &Repo{store: s, prefix: domain.KeyPrefix}
}

// WithKeyPrefix configures the storage key prefix.
func (r *Repo) WithKeyPrefix(prefix string) *Repo {
	if prefix != "" {
		r.prefix = prefix
	}
	return r
}

// Load reads the saved options. Missing keys surface as db.ErrKeyNotFound.
func (r *Repo) Load(ctx context.Context) (domopts.SearchOptions, error) {
	data, err := r.store.Get(ctx, r.prefix+optionsKey)
	if err != nil {
		return domopts.SearchOptions{}, fmt.Errorf("get options: %w", err)
	}
	var o domopts.SearchOptions
	if err := json.Unmarshal(data, &o); err != nil {
		return domopts.SearchOptions{}, fmt.Errorf("unmarshal options: %w", err)
	}
	return o, nil
}

// Save writes the options.
func (r *Repo) Save(ctx context.Context, o domopts.SearchOptions) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	if err := r.store.Set(ctx, r.prefix+optionsKey, data); err != nil {
		return fmt.Errorf("set options: %w", err)
	}
	return nil
}
