package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/giftkart/shipping-admin/internal/core/ports"
)

// SweepLockKey is the key held while a reconciliation sweep runs.
const SweepLockKey = "lock:shipment-sync"

// releaseScript deletes the key only if this holder still owns it, so a sweep
// that outlived its TTL cannot free a newer sweep's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a single-holder lock built on SET NX with a TTL.
type Lock struct {
	client *redis.Client
	key    string
	token  string
}

// NewLock creates a lock on key with a per-process owner token.
func NewLock(client *redis.Client, key string) *Lock {
	return &Lock{client: client, key: key, token: uuid.NewString()}
}

// Acquire returns false when another holder owns the lock.
func (l *Lock) Acquire(ctx context.Context, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	return ok, nil
}

// Release frees the lock if this process still holds it.
func (l *Lock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}

var _ ports.SweepLock = (*Lock)(nil)
