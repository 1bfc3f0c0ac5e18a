// Package provider implements the suggestion provider registry: one fetch
// function per upstream autocomplete source, each flattening its upstream's
// response envelope into plain-text candidates.
package provider

import (
	"context"
	"html"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	domprov "github.com/kailas-cloud/kwharvest/internal/domain/provider"
	"github.com/kailas-cloud/kwharvest/internal/metrics"
)

// FetchFunc fetches raw suggestions from one upstream. Errors never leave the registry.
type FetchFunc func(ctx context.Context, req domprov.Request) ([]string, error)

// Config holds the registry transport settings.
type Config struct {
	HTTPClient        *http.Client
	CompletionTimeout time.Duration
	RelayURL          string
	UserAgent         string
	Endpoints         map[domprov.ID]string // base URL overrides
	Logger            *zap.Logger
}

// Registry dispatches fetches to per-provider functions.
type Registry struct {
	mu       sync.RWMutex
	fetchers map[domprov.ID]FetchFunc
	policy   *bluemonday.Policy
	logger   *zap.Logger
}

// New creates an empty registry. Use Register to plug providers in.
func New(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		fetchers: make(map[domprov.ID]FetchFunc),
		policy:   bluemonday.StrictPolicy(),
		logger:   logger,
	}
}

// NewDefault creates a registry with every built-in provider registered.
func NewDefault(cfg Config) *Registry {
	r := New(cfg.Logger)
	completion := NewCompletionTransport(cfg.HTTPClient, cfg.CompletionTimeout, cfg.UserAgent)
	relay := NewRelayTransport(cfg.HTTPClient, cfg.RelayURL, cfg.UserAgent)

	for id, s := range defaultSpecs() {
		if base, ok := cfg.Endpoints[id]; ok && base != "" {
			s.base = base
		}
		var t Transport = completion
		if s.kind == kindRelay {
			t = relay
		}
		r.Register(id, upstreamFetcher(s, t))
	}
	return r
}

func upstreamFetcher(s spec, t Transport) FetchFunc {
	return func(ctx context.Context, req domprov.Request) ([]string, error) {
		v, err := t.Get(ctx, s.build(s.base, req))
		if err != nil {
			return nil, err
		}
		return s.decode(v), nil
	}
}

// Register plugs a fetch function in, replacing any previous one for the id.
func (r *Registry) Register(id domprov.ID, fn FetchFunc) {
	r.mu.Lock()
	r.fetchers[id] = fn
	r.mu.Unlock()
}

// Providers returns the registered provider ids.
func (r *Registry) Providers() []domprov.ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domprov.ID, 0, len(r.fetchers))
	for _, id := range domprov.All() {
		if _, ok := r.fetchers[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Fetch returns plain-text suggestions for one provider. It never fails: any
// transport, decode or panic failure is logged and yields an empty list.
func (r *Registry) Fetch(ctx context.Context, id domprov.ID, req domprov.Request) (out []string) {
	r.mu.RLock()
	fn, ok := r.fetchers[id]
	r.mu.RUnlock()
	if !ok {
		r.logger.Debug("Unknown provider", zap.String("provider", string(id)))
		return nil
	}

	start := time.Now()
	defer func() {
		if rvr := recover(); rvr != nil {
			r.logger.Error("Provider panicked",
				zap.String("provider", string(id)),
				zap.Any("panic", rvr),
			)
			metrics.ProviderRequestsTotal.WithLabelValues(string(id), "error").Inc()
			out = nil
		}
	}()

	raw, err := fn(ctx, req)
	metrics.ProviderRequestDuration.WithLabelValues(string(id)).Observe(time.Since(start).Seconds())
	if err != nil {
		r.logger.Warn("Provider failed",
			zap.String("provider", string(id)),
			zap.String("query", req.Query),
			zap.Error(err),
		)
		metrics.ProviderRequestsTotal.WithLabelValues(string(id), "error").Inc()
		return nil
	}

	out = r.clean(raw)
	status := "ok"
	if len(out) == 0 {
		status = "empty"
	}
	metrics.ProviderRequestsTotal.WithLabelValues(string(id), status).Inc()
	return out
}

// clean strips markup and drops blank candidates. No deduplication happens here.
// Only closed tags count as markup, so a bare "<" survives.
func (r *Registry) clean(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if strings.Contains(s, ">") {
			s = r.policy.Sanitize(s)
		}
		s = html.UnescapeString(s)
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
