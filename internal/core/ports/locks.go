package ports

import (
	"context"
	"time"
)

// SweepLock guards the bulk reconciliation sweep across replicas.
type SweepLock interface {
	// Acquire returns false when another holder owns the lock.
	Acquire(ctx context.Context, ttl time.Duration) (bool, error)
	Release(ctx context.Context) error
}

// Deduplicator remembers keys for a TTL.
type Deduplicator interface {
	Exists(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key string, ttl time.Duration) error
}
