// Package options holds the caller-owned search options.
package options

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/kwharvest/internal/domain"
	"github.com/kailas-cloud/kwharvest/internal/domain/provider"
)

// DefaultLocale is the region passed to providers when none is set.
const DefaultLocale = "IR"

// Strategies toggles the query generation strategies.
type Strategies struct {
	PersianAZ     bool `json:"fa_az" yaml:"fa_az"`
	PersianDouble bool `json:"fa_double" yaml:"fa_double"`
	EnglishPrefix bool `json:"en_az_prefix" yaml:"en_az_prefix"`
	EnglishSuffix bool `json:"en_az_suffix" yaml:"en_az_suffix"`
	Questions     bool `json:"questions" yaml:"questions"`
	Deep          bool `json:"deep" yaml:"deep"`
	MiddleGap     bool `json:"middle_gap" yaml:"middle_gap"`
}

// SearchOptions describes one harvest request.
type SearchOptions struct {
	Seed       string        `json:"seed" yaml:"seed"`
	Locale     string        `json:"gl" yaml:"gl"`
	Providers  []provider.ID `json:"providers" yaml:"providers"`
	Strategies Strategies    `json:"strategies" yaml:"strategies"`
}

// Default returns the options used when nothing has been saved yet.
func Default() SearchOptions {
	return SearchOptions{
		Locale:     DefaultLocale,
		Providers:  []provider.ID{provider.Google},
		Strategies: Strategies{PersianAZ: true},
	}
}

// Validate checks the structure of the options. An empty seed is allowed:
// options are saved while the seed is still being typed.
func (o SearchOptions) Validate() error {
	seen := make(map[provider.ID]struct{}, len(o.Providers))
	for _, p := range o.Providers {
		if !p.IsValid() {
			return domain.NewUnknownProvider(string(p))
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("duplicate provider %q: %w", p, domain.ErrInvalidOptions)
		}
		seen[p] = struct{}{}
	}
	return nil
}

// ValidateForRun checks the preconditions of starting a harvest.
func (o SearchOptions) ValidateForRun() error {
	if strings.TrimSpace(o.Seed) == "" {
		return domain.ErrEmptySeed
	}
	if len(o.Providers) == 0 {
		return domain.ErrNoProviders
	}
	return o.Validate()
}

// WithDefaults fills an empty locale.
func (o SearchOptions) WithDefaults() SearchOptions {
	if strings.TrimSpace(o.Locale) == "" {
		o.Locale = DefaultLocale
	}
	return o
}
