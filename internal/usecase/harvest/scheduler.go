package harvest

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/kwharvest/internal/domain/provider"
	"github.com/kailas-cloud/kwharvest/internal/domain/query"
	"github.com/kailas-cloud/kwharvest/internal/domain/run"
	"github.com/kailas-cloud/kwharvest/internal/metrics"
)

// Scheduler defaults.
const (
	DefaultBatchSize = 3
	DefaultPacing    = 200 * time.Millisecond
)

// Plan is one pass over a query queue.
type Plan struct {
	Queue     []query.Item
	Providers []provider.ID
	Locale    string
}

// Batch reports one settled batch.
type Batch struct {
	Accepted  int // records appended by this batch
	Completed int // queue items settled so far in this pass
}

// Scheduler walks a queue in fixed-size batches. Items of a batch and their
// providers are fetched concurrently; batches run strictly one after another
// with a pacing delay between them.
type Scheduler struct {
	fetcher   Fetcher
	batchSize int
	pacing    time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
	logger    *zap.Logger
}

// NewScheduler creates a scheduler with default batch size and pacing.
func NewScheduler(fetcher Fetcher, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		fetcher:   fetcher,
		batchSize: DefaultBatchSize,
		pacing:    DefaultPacing,
		sleep:     sleepCtx,
		logger:    logger,
	}
}

// WithBatchSize configures the number of queue items dispatched together.
func (s *Scheduler) WithBatchSize(n int) *Scheduler {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// WithPacing configures the delay between batches.
func (s *Scheduler) WithPacing(d time.Duration) *Scheduler {
	if d >= 0 {
		s.pacing = d
	}
	return s
}

// Run processes the plan until the queue is exhausted or ctx is cancelled.
// Cancellation is observed before every batch and every item dispatch; a batch
// that settles after cancellation is discarded whole. In-flight provider calls
// are not aborted, they are left to their own timeouts.
func (s *Scheduler) Run(ctx context.Context, plan Plan, agg *Aggregator, onBatch func(Batch)) run.Status {
	completed := 0
	for start := 0; start < len(plan.Queue); start += s.batchSize {
		if start > 0 {
			if err := s.sleep(ctx, s.pacing); err != nil {
				return run.StatusCancelled
			}
		}
		if ctx.Err() != nil {
			return run.StatusCancelled
		}

		end := min(start+s.batchSize, len(plan.Queue))
		batch := plan.Queue[start:end]

		results, dispatched := s.dispatch(ctx, batch, plan)
		if ctx.Err() != nil {
			s.logger.Debug("batch discarded after cancellation",
				zap.Int("offset", start), zap.Int("dispatched", dispatched))
			return run.StatusCancelled
		}

		accepted := 0
		for i, item := range batch {
			accepted += len(agg.Ingest(results[i], item))
		}
		completed += len(batch)

		if onBatch != nil {
			onBatch(Batch{Accepted: accepted, Completed: completed})
		}
	}
	return run.StatusCompleted
}

// dispatch fans out every (item, provider) pair of a batch and waits for all
// of them. Results are indexed by item then by provider, so ingestion order
// follows the queue, not completion order.
func (s *Scheduler) dispatch(ctx context.Context, batch []query.Item, plan Plan) ([][]ProviderResult, int) {
	detached := context.WithoutCancel(ctx)
	results := make([][]ProviderResult, len(batch))

	var g errgroup.Group
	dispatched := 0
	for i, item := range batch {
		if ctx.Err() != nil {
			break
		}
		dispatched++
		metrics.QueueItemsTotal.Inc()

		req := provider.Request{Query: item.Query(), Locale: plan.Locale}
		if cur, ok := item.Cursor(); ok {
			req.Cursor = &cur
		}

		results[i] = make([]ProviderResult, len(plan.Providers))
		for j, p := range plan.Providers {
			g.Go(func() error {
				results[i][j] = ProviderResult{
					Provider:    p,
					Suggestions: s.fetcher.Fetch(detached, p, req),
				}
				return nil
			})
		}
	}
	_ = g.Wait() // fetches never fail
	return results, dispatched
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
