package harvest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kwharvest/internal/domain"
	"github.com/kailas-cloud/kwharvest/internal/domain/options"
	"github.com/kailas-cloud/kwharvest/internal/domain/query"
	"github.com/kailas-cloud/kwharvest/internal/domain/run"
	"github.com/kailas-cloud/kwharvest/internal/metrics"
	"github.com/kailas-cloud/kwharvest/internal/usecase/expand"
)

// Service defaults.
const (
	DefaultSettle    = time.Second
	DefaultDeepLimit = 20
	DefaultMaxRuns   = 32
)

const snapshotTimeout = 5 * time.Second

// Service starts, tracks and cancels harvest runs.
type Service struct {
	scheduler *Scheduler
	snapshots SnapshotStore
	logger    *zap.Logger
	settle    time.Duration
	deepLimit int
	maxRuns   int
	now       func() time.Time

	mu    sync.Mutex
	runs  map[string]*Run
	order []string // oldest first
	wg    sync.WaitGroup
}

// New creates a harvest service.
func New(scheduler *Scheduler, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		scheduler: scheduler,
		logger:    logger,
		settle:    DefaultSettle,
		deepLimit: DefaultDeepLimit,
		maxRuns:   DefaultMaxRuns,
		now:       time.Now,
		runs:      make(map[string]*Run),
	}
}

// WithSettle configures how long a finished run shows its terminal status before going idle.
func (s *Service) WithSettle(d time.Duration) *Service {
	if d >= 0 {
		s.settle = d
	}
	return s
}

// WithDeepLimit configures how many discovered keywords seed the follow-up phase.
func (s *Service) WithDeepLimit(n int) *Service {
	if n > 0 {
		s.deepLimit = n
	}
	return s
}

// WithMaxRuns configures how many runs are kept in memory.
func (s *Service) WithMaxRuns(n int) *Service {
	if n > 0 {
		s.maxRuns = n
	}
	return s
}

// WithSnapshots enables persistence of finished runs.
func (s *Service) WithSnapshots(store SnapshotStore) *Service {
	s.snapshots = store
	return s
}

// Start validates options, expands the seed and launches the run in the background.
// The run is not tied to ctx cancellation; use Cancel.
func (s *Service) Start(ctx context.Context, opts options.SearchOptions) (*Run, error) {
	opts = opts.WithDefaults()
	if err := opts.ValidateForRun(); err != nil {
		return nil, err
	}
	queue, err := expand.Expand(opts.Seed, opts.Strategies)
	if err != nil {
		return nil, fmt.Errorf("expand seed: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r := newRun(uuid.NewString(), opts, s.now(), cancel)

	total := len(queue)
	if opts.Strategies.Deep {
		total += s.deepLimit
	}
	r.start(total)
	s.track(r)

	s.logger.Info("run started",
		zap.String("run_id", r.id),
		zap.String("seed", opts.Seed),
		zap.Int("queue", len(queue)),
		zap.Int("providers", len(opts.Providers)),
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(runCtx, r, queue)
	}()
	return r, nil
}

func (s *Service) execute(ctx context.Context, r *Run, queue []query.Item) {
	defer r.cancel()
	metrics.RunsActive.Inc()
	defer metrics.RunsActive.Dec()

	agg := NewAggregator(r.opts.Seed, r.store)
	plan := Plan{Queue: queue, Providers: r.opts.Providers, Locale: r.opts.Locale}
	status := s.scheduler.Run(ctx, plan, agg, func(b Batch) { r.advance(b.Completed) })

	if status == run.StatusCompleted && r.opts.Strategies.Deep {
		followUp := expand.FollowUp(r.store.Discovered(s.deepLimit, agg.SeedKeyword()))
		r.resize(len(queue) + len(followUp))
		if len(followUp) > 0 {
			base := len(queue)
			plan.Queue = followUp
			status = s.scheduler.Run(ctx, plan, agg, func(b Batch) { r.advance(base + b.Completed) })
		}
	}

	r.finish(status, s.now())
	metrics.RunsTotal.WithLabelValues(string(status)).Inc()
	s.logger.Info("run finished",
		zap.String("run_id", r.id),
		zap.String("status", string(status)),
		zap.Int("keywords", r.store.Len()),
	)

	s.persist(r)
	close(r.done)

	if s.settle == 0 {
		r.settle()
		return
	}
	time.AfterFunc(s.settle, r.settle)
}

func (s *Service) persist(r *Run) {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()
	if err := s.Persist(ctx, r); err != nil {
		s.logger.Warn("save run snapshot", zap.String("run_id", r.id), zap.Error(err))
	}
}

// Persist saves a finished run's snapshot, for example after metadata was attached.
// Without a snapshot store it is a no-op.
func (s *Service) Persist(ctx context.Context, r *Run) error {
	if s.snapshots == nil || !r.Outcome().IsTerminal() {
		return nil
	}
	if err := s.snapshots.Save(ctx, r.Snapshot()); err != nil {
		return fmt.Errorf("save run snapshot: %w", err)
	}
	return nil
}

// track registers a run and evicts the oldest finished runs beyond the retention limit.
func (s *Service) track(r *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[r.id] = r
	s.order = append(s.order, r.id)

	for i := 0; len(s.runs) > s.maxRuns && i < len(s.order); {
		old := s.runs[s.order[i]]
		if old.Active() {
			i++
			continue
		}
		delete(s.runs, old.id)
		s.order = append(s.order[:i], s.order[i+1:]...)
	}
}

// Get returns a run by id. Runs evicted from memory are restored from snapshots when available.
func (s *Service) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.Lock()
	r, ok := s.runs[id]
	s.mu.Unlock()
	if ok {
		return r, nil
	}

	if s.snapshots == nil {
		return nil, fmt.Errorf("run %q: %w", id, domain.ErrRunNotFound)
	}
	snap, err := s.snapshots.Load(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			return nil, fmt.Errorf("run %q: %w", id, domain.ErrRunNotFound)
		}
		return nil, fmt.Errorf("load run snapshot: %w", err)
	}
	return restore(snap), nil
}

// List returns the runs held in memory plus persisted runs evicted from it, newest first.
// A snapshot store that cannot be listed degrades to the in-memory runs.
func (s *Service) List(ctx context.Context) []*Run {
	s.mu.Lock()
	out := make([]*Run, 0, len(s.runs))
	for _, id := range s.order {
		out = append(out, s.runs[id])
	}
	s.mu.Unlock()

	out = append(out, s.persistedOnly(ctx, out)...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].createdAt.After(out[j].createdAt)
	})
	return out
}

func (s *Service) persistedOnly(ctx context.Context, inMemory []*Run) []*Run {
	if s.snapshots == nil {
		return nil
	}
	ids, err := s.snapshots.IDs(ctx)
	if err != nil {
		s.logger.Warn("list run snapshots", zap.Error(err))
		return nil
	}

	known := make(map[string]struct{}, len(inMemory))
	for _, r := range inMemory {
		known[r.id] = struct{}{}
	}
	var out []*Run
	for _, id := range ids {
		if _, ok := known[id]; ok {
			continue
		}
		snap, err := s.snapshots.Load(ctx, id)
		if err != nil {
			// Expired between listing and loading.
			if !errors.Is(err, domain.ErrRunNotFound) {
				s.logger.Warn("load run snapshot", zap.String("run_id", id), zap.Error(err))
			}
			continue
		}
		out = append(out, restore(snap))
	}
	return out
}

// Delete forgets a finished run and its snapshot. Runs still executing return domain.ErrRunActive.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	r, inMemory := s.runs[id]
	if inMemory {
		select {
		case <-r.done:
		default:
			s.mu.Unlock()
			return fmt.Errorf("run %q: %w", id, domain.ErrRunActive)
		}
		delete(s.runs, id)
		s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	}
	s.mu.Unlock()

	if s.snapshots == nil {
		if !inMemory {
			return fmt.Errorf("run %q: %w", id, domain.ErrRunNotFound)
		}
		return nil
	}
	if err := s.snapshots.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			if inMemory {
				return nil
			}
			return fmt.Errorf("run %q: %w", id, domain.ErrRunNotFound)
		}
		return fmt.Errorf("delete run snapshot: %w", err)
	}
	s.logger.Info("run deleted", zap.String("run_id", id))
	return nil
}

// Cancel requests cancellation of a running run. No further batch or item
// starts; the batch in flight is discarded.
func (s *Service) Cancel(ctx context.Context, id string) (*Run, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.Active() {
		return r, fmt.Errorf("run %q: %w", id, domain.ErrRunNotActive)
	}
	r.cancel()
	s.logger.Info("run cancellation requested", zap.String("run_id", id))
	return r, nil
}

// Shutdown cancels every active run and waits for them to finish or ctx to expire.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for _, r := range s.runs {
		if r.Active() {
			r.cancel()
		}
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
