package options

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/kwharvest/internal/domain"
	"github.com/kailas-cloud/kwharvest/internal/domain/provider"
)

func TestDefault(t *testing.T) {
	o := Default()
	if o.Locale != DefaultLocale {
		t.Errorf("locale = %q", o.Locale)
	}
	if len(o.Providers) != 1 || o.Providers[0] != provider.Google {
		t.Errorf("providers = %v", o.Providers)
	}
	if !o.Strategies.PersianAZ {
		t.Error("fa_az should be on by default")
	}
	if err := o.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestValidateForRun(t *testing.T) {
	tests := []struct {
		name string
		opts SearchOptions
		want error
	}{
		{"empty seed", SearchOptions{Seed: "   ", Providers: []provider.ID{provider.Google}}, domain.ErrEmptySeed},
		{"no providers", SearchOptions{Seed: "gift"}, domain.ErrNoProviders},
		{"unknown provider", SearchOptions{Seed: "gift", Providers: []provider.ID{"altavista"}}, domain.ErrInvalidOptions},
		{"duplicate provider", SearchOptions{
			Seed: "gift", Providers: []provider.ID{provider.Bing, provider.Bing},
		}, domain.ErrInvalidOptions},
		{"ok", SearchOptions{Seed: "gift", Providers: []provider.ID{provider.Bing}}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.opts.ValidateForRun()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestWithDefaults(t *testing.T) {
	if got := (SearchOptions{}).WithDefaults().Locale; got != DefaultLocale {
		t.Errorf("locale = %q", got)
	}
	if got := (SearchOptions{Locale: "US"}).WithDefaults().Locale; got != "US" {
		t.Errorf("locale = %q", got)
	}
}
