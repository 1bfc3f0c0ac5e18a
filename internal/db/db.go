// Package db defines the key-value store behind options, run snapshots and the suggestion cache.
package db

import (
	"context"
	"time"
)

// Store is what the server needs from its backing store: health checks plus keys.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore holds opaque values under string keys.
// Keys may expire; an expired key behaves as missing everywhere, Keys included.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	// Keys returns the live keys starting with prefix, in no particular order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
