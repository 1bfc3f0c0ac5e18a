// Package runs persists finished run snapshots.
package runs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/kwharvest/internal/db"
	"github.com/kailas-cloud/kwharvest/internal/domain"
	"github.com/kailas-cloud/kwharvest/internal/usecase/harvest"
)

// DefaultTTL is how long a finished run stays retrievable.
const DefaultTTL = 7 * 24 * time.Hour

// store is the consumer interface for run snapshots (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Compile-time check: Repo implements harvest.SnapshotStore.
var _ harvest.SnapshotStore = (*Repo)(nil)

// Repo implements harvest.SnapshotStore.
type Repo struct {
	store  store
	ttl    time.Duration
	prefix string
}

// New creates a snapshot repository. A non-positive ttl uses DefaultTTL.
func New(s store, ttl time.Duration) *Repo {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Repo{store: s, ttl: ttl, prefix: domain.KeyPrefix}
}

// WithKeyPrefix configures the storage key prefix.
func (r *Repo) WithKeyPrefix(prefix string) *Repo {
	if prefix != "" {
		r.prefix = prefix
	}
	return r
}

func (r *Repo) runPrefix() string {
	return r.prefix + "run:"
}

func (r *Repo) runKey(id string) string {
	return r.runPrefix() + id
}

// Save stores the snapshot with the configured TTL.
func (r *Repo) Save(ctx context.Context, snap harvest.Snapshot) error {
	data, err := json.Marshal(snapshotToRow(snap))
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := r.store.SetWithTTL(ctx, r.runKey(snap.ID), data, r.ttl); err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot. Unknown ids return domain.ErrRunNotFound.
func (r *Repo) Load(ctx context.Context, id string) (harvest.Snapshot, error) {
	data, err := r.store.Get(ctx, r.runKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return harvest.Snapshot{}, domain.ErrRunNotFound
		}
		return harvest.Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	var row snapshotRow
	if err := json.Unmarshal(data, &row); err != nil {
		return harvest.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snapshotFromRow(row), nil
}

// Delete removes a snapshot. Unknown ids return domain.ErrRunNotFound.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.runKey(id)
	if _, err := r.store.Get(ctx, key); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.ErrRunNotFound
		}
		return fmt.Errorf("get snapshot: %w", err)
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// IDs lists the ids of the stored snapshots, sorted.
func (r *Repo) IDs(ctx context.Context) ([]string, error) {
	keys, err := r.store.Keys(ctx, r.runPrefix())
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, r.runPrefix()))
	}
	sort.Strings(ids)
	return ids, nil
}
