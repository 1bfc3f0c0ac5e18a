package kwharvest

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	password string

	batchSize int
	pacing    time.Duration
	hasPacing bool
	deepLimit int
	cacheTTL  time.Duration

	endpoints         map[string]string
	relayURL          string
	userAgent         string
	httpClient        *http.Client
	completionTimeout time.Duration

	logger *zap.Logger
}

// WithRedis stores suggestion caches and run snapshots in Redis or Valkey.
// Without it everything stays in process memory.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithLogger enables structured logging. Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithBatchSize sets how many queries are sent concurrently. Default: 3.
func WithBatchSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.batchSize = n
	})
}

// WithPacing sets the delay between batches. Default: 200ms.
func WithPacing(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.pacing = d
		c.hasPacing = true
	})
}

// WithDeepLimit sets how many discovered keywords are queried again when the
// deep strategy is enabled. Default: 20.
func WithDeepLimit(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.deepLimit = n
	})
}

// WithCacheTTL sets how long cached suggestions live. Only used with WithRedis.
func WithCacheTTL(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = d
	})
}

// WithEndpoints overrides provider base URLs, keyed by provider id.
func WithEndpoints(endpoints map[string]string) Option {
	return optionFunc(func(c *clientConfig) {
		c.endpoints = endpoints
	})
}

// WithRelayURL sets the text relay used for providers without a JSON endpoint.
func WithRelayURL(u string) Option {
	return optionFunc(func(c *clientConfig) {
		c.relayURL = u
	})
}

// WithUserAgent sets the User-Agent sent to providers.
func WithUserAgent(ua string) Option {
	return optionFunc(func(c *clientConfig) {
		c.userAgent = ua
	})
}

// WithHTTPClient sets the HTTP client used for provider requests.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithCompletionTimeout bounds each callback-style provider request. Default: 5s.
func WithCompletionTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.completionTimeout = d
	})
}
