package kwharvest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kwharvest/internal/db"
	"github.com/kailas-cloud/kwharvest/internal/db/memory"
	dbRedis "github.com/kailas-cloud/kwharvest/internal/db/redis"
	"github.com/kailas-cloud/kwharvest/internal/domain"
	"github.com/kailas-cloud/kwharvest/internal/domain/keyword"
	domprov "github.com/kailas-cloud/kwharvest/internal/domain/provider"
	"github.com/kailas-cloud/kwharvest/internal/metrics"
	"github.com/kailas-cloud/kwharvest/internal/repository/runs"
	"github.com/kailas-cloud/kwharvest/internal/repository/suggestcache"
	"github.com/kailas-cloud/kwharvest/internal/transport/provider"
	"github.com/kailas-cloud/kwharvest/internal/usecase/expand"
	"github.com/kailas-cloud/kwharvest/internal/usecase/export"
	"github.com/kailas-cloud/kwharvest/internal/usecase/harvest"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	shutdownTimeout         = 10 * time.Second
)

// Client is the kwharvest SDK entry point.
type Client struct {
	store   db.Store
	harvest *harvest.Service
	logger  *zap.Logger
}

// New creates a Client. With WithRedis it connects to the database first.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	for id := range cfg.endpoints {
		if !domprov.ID(id).IsValid() {
			return nil, fmt.Errorf("kwharvest: endpoint override: %w", domain.NewUnknownProvider(id))
		}
	}

	if len(cfg.addrs) == 0 {
		return wireClient(cfg, memory.NewStore(), newRegistry(cfg), false), nil
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("kwharvest: create redis store: %w", err)
	}
	if err := store.WaitForReady(context.Background(), defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("kwharvest: database not ready: %w", err)
	}
	return wireClient(cfg, store, newRegistry(cfg), true), nil
}

func newRegistry(cfg *clientConfig) *provider.Registry {
	endpoints := make(map[domprov.ID]string, len(cfg.endpoints))
	for id, base := range cfg.endpoints {
		endpoints[domprov.ID(id)] = base
	}
	return provider.NewDefault(provider.Config{
		HTTPClient:        cfg.httpClient,
		CompletionTimeout: cfg.completionTimeout,
		RelayURL:          cfg.relayURL,
		UserAgent:         cfg.userAgent,
		Endpoints:         endpoints,
		Logger:            cfg.logger,
	})
}

// wireClient assembles the services. persistent enables the suggestion
// cache and run snapshots on store.
func wireClient(cfg *clientConfig, store db.Store, fetcher harvest.Fetcher, persistent bool) *Client {
	if persistent {
		fetcher = suggestcache.New(fetcher, store, cfg.cacheTTL, metrics.SuggestionCacheTotal, cfg.logger)
	}

	sched := harvest.NewScheduler(fetcher, cfg.logger).WithBatchSize(cfg.batchSize)
	if cfg.hasPacing {
		sched = sched.WithPacing(cfg.pacing)
	}
	svc := harvest.New(sched, cfg.logger).WithDeepLimit(cfg.deepLimit)
	if persistent {
		svc = svc.WithSnapshots(runs.New(store, 0))
	}

	return &Client{store: store, harvest: svc, logger: cfg.logger}
}

// Close cancels active runs and releases all resources.
func (c *Client) Close() {
	if c.harvest != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := c.harvest.Shutdown(ctx); err != nil {
			c.logger.Warn("runs still active at close", zap.Error(err))
		}
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Expand returns the queue a harvest of req would send, without fetching.
func (c *Client) Expand(req Request) ([]QueueItem, error) {
	opts, err := toInternalOptions(req)
	if err != nil {
		return nil, err
	}
	items, err := expand.Expand(opts.Seed, opts.Strategies)
	if err != nil {
		return nil, fmt.Errorf("expand: %w", err)
	}
	return fromQueueItems(items), nil
}

// Start launches a harvest in the background. Cancelling ctx does not stop
// the run; use Cancel.
func (c *Client) Start(ctx context.Context, req Request) (*Run, error) {
	opts, err := toInternalOptions(req)
	if err != nil {
		return nil, err
	}
	r, err := c.harvest.Start(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	return &Run{r: r}, nil
}

// Get returns a run by id.
func (c *Client) Get(ctx context.Context, runID string) (*Run, error) {
	r, err := c.harvest.Get(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &Run{r: r}, nil
}

// Runs lists the runs this client knows about, newest first. With Redis
// this includes finished runs of earlier processes still within their TTL.
func (c *Client) Runs(ctx context.Context) []*Run {
	runs := c.harvest.List(ctx)
	out := make([]*Run, len(runs))
	for i, r := range runs {
		out[i] = &Run{r: r}
	}
	return out
}

// Delete forgets a finished run. A run still executing returns ErrRunActive.
func (c *Client) Delete(ctx context.Context, runID string) error {
	if err := c.harvest.Delete(ctx, runID); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

// Cancel requests cancellation of a running harvest.
func (c *Client) Cancel(ctx context.Context, runID string) error {
	if _, err := c.harvest.Cancel(ctx, runID); err != nil {
		return fmt.Errorf("cancel: %w", err)
	}
	return nil
}

// Harvest runs a harvest to completion. When ctx is cancelled the run is
// cancelled and the keywords gathered so far are returned with StatusCancelled.
func (c *Client) Harvest(ctx context.Context, req Request) (Result, error) {
	r, err := c.Start(ctx, req)
	if err != nil {
		return Result{}, err
	}

	select {
	case <-r.Done():
	case <-ctx.Done():
		err := c.Cancel(context.WithoutCancel(ctx), r.ID())
		if err != nil && !errors.Is(err, domain.ErrRunNotActive) {
			return Result{}, err
		}
		<-r.Done()
	}

	return Result{RunID: r.ID(), Status: r.Outcome(), Keywords: r.Keywords()}, nil
}

// WriteCSV writes keywords as CSV with the header Keyword,Tag,Source,Parent.
func (c *Client) WriteCSV(w io.Writer, keywords []Keyword) error {
	return export.WriteCSV(w, toRecords(keywords))
}

// WriteText writes one keyword per line.
func (c *Client) WriteText(w io.Writer, keywords []Keyword) error {
	return export.WriteText(w, toRecords(keywords))
}

// Run is a harvest started by Client.Start.
type Run struct {
	r *harvest.Run
}

// ID returns the run id.
func (r *Run) ID() string { return r.r.ID() }

// Status returns the current lifecycle status.
func (r *Run) Status() Status { return Status(r.r.State().Status) }

// Outcome returns the terminal status, or "" while running.
func (r *Run) Outcome() Status { return Status(r.r.Outcome()) }

// Progress returns the completion percentage.
func (r *Run) Progress() float64 { return r.r.State().Progress }

// Done is closed when the run reaches a terminal status.
func (r *Run) Done() <-chan struct{} { return r.r.Done() }

// Keywords returns the keywords gathered so far, in acceptance order.
func (r *Run) Keywords() []Keyword {
	return fromRecords(r.r.Store().List(keyword.Filter{}))
}
