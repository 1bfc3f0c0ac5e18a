package harvest

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/kwharvest/internal/domain/keyword"
	"github.com/kailas-cloud/kwharvest/internal/domain/options"
	"github.com/kailas-cloud/kwharvest/internal/domain/run"
)

// Run is one harvest execution with its own store and lifecycle.
type Run struct {
	id        string
	opts      options.SearchOptions
	store     *Store
	createdAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}

	mu         sync.RWMutex
	status     run.Status
	outcome    run.Status
	completed  int
	total      int
	progress   float64
	finishedAt time.Time
}

func newRun(id string, opts options.SearchOptions, now time.Time, cancel context.CancelFunc) *Run {
	return &Run{
		id:        id,
		opts:      opts,
		store:     NewStore(),
		createdAt: now,
		cancel:    cancel,
		done:      make(chan struct{}),
		status:    run.StatusIdle,
	}
}

// ID returns the run id.
func (r *Run) ID() string { return r.id }

// Options returns the options the run was started with.
func (r *Run) Options() options.SearchOptions { return r.opts }

// Store returns the run's result store.
func (r *Run) Store() *Store { return r.store }

// CreatedAt returns the start time.
func (r *Run) CreatedAt() time.Time { return r.createdAt }

// Done is closed when the run reaches a terminal status.
func (r *Run) Done() <-chan struct{} { return r.done }

// State returns the current status and progress.
func (r *Run) State() run.State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return run.State{Status: r.status, Progress: r.progress}
}

// Outcome returns the terminal status, or the empty status while running.
func (r *Run) Outcome() run.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.outcome
}

// FinishedAt returns when the run reached its terminal status.
func (r *Run) FinishedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.finishedAt
}

// Counts returns completed and estimated total queue items.
func (r *Run) Counts() (completed, total int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.completed, r.total
}

// Active reports whether the run is still executing.
func (r *Run) Active() bool {
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

func (r *Run) start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = run.StatusRunning
	r.total = total
}

// advance records progress. Progress only moves forward.
func (r *Run) advance(completed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if completed > r.completed {
		r.completed = completed
	}
	if p := run.Progress(r.completed, r.total); p > r.progress {
		r.progress = p
	}
}

// resize replaces the estimated total. Progress is recomputed but never decreases.
func (r *Run) resize(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total = total
	if p := run.Progress(r.completed, r.total); p > r.progress {
		r.progress = p
	}
}

func (r *Run) finish(status run.Status, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
	r.outcome = status
	r.finishedAt = at
	if status == run.StatusCompleted {
		r.progress = 100
	}
}

// settle returns a finished run to Idle. The outcome stays readable.
func (r *Run) settle() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status.IsTerminal() {
		r.status = run.StatusIdle
		r.progress = 0
	}
}

// Snapshot is the persisted form of a finished run.
type Snapshot struct {
	ID         string
	Options    options.SearchOptions
	Outcome    run.Status
	CreatedAt  time.Time
	FinishedAt time.Time
	Records    []keyword.Record
}

// Snapshot captures the run and its records.
func (r *Run) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{
		ID:         r.id,
		Options:    r.opts,
		Outcome:    r.outcome,
		CreatedAt:  r.createdAt,
		FinishedAt: r.finishedAt,
		Records:    r.store.List(keyword.Filter{}),
	}
}

// restore rebuilds a finished, idle run from a snapshot.
func restore(s Snapshot) *Run {
	r := &Run{
		id:         s.ID,
		opts:       s.Options,
		store:      NewStore(),
		createdAt:  s.CreatedAt,
		cancel:     func() {},
		done:       make(chan struct{}),
		status:     run.StatusIdle,
		outcome:    s.Outcome,
		finishedAt: s.FinishedAt,
	}
	r.store.Append(s.Records)
	close(r.done)
	return r
}
