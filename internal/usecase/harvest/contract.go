package harvest

import (
	"context"

	"github.com/kailas-cloud/kwharvest/internal/domain/provider"
)

// Fetcher returns suggestions from one provider. It never fails: a provider
// that errors, times out or returns garbage yields an empty list.
type Fetcher interface {
	Fetch(ctx context.Context, id provider.ID, req provider.Request) []string
}

// SnapshotStore persists finished runs so they outlive process memory.
// Load and Delete return domain.ErrRunNotFound for unknown ids.
type SnapshotStore interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context, id string) (Snapshot, error)
	Delete(ctx context.Context, id string) error
	IDs(ctx context.Context) ([]string, error)
}
