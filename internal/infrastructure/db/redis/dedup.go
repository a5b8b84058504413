package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/giftkart/shipping-admin/internal/core/ports"
)

const dedupPrefix = "dedup:"

// DedupChecker remembers processed webhook scans in Redis.
// Key format: dedup:<awb>|<courier_status>|<scan_unix_nano>
type DedupChecker struct {
	client *redis.Client
}

// NewDedupChecker creates a DedupChecker wrapping the given Redis client.
func NewDedupChecker(client *redis.Client) *DedupChecker {
	return &DedupChecker{client: client}
}

// Exists reports whether key was seen within its TTL.
func (d *DedupChecker) Exists(ctx context.Context, key string) (bool, error) {
	n, err := d.client.Exists(ctx, dedupPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Set records key for ttl.
func (d *DedupChecker) Set(ctx context.Context, key string, ttl time.Duration) error {
	if err := d.client.Set(ctx, dedupPrefix+key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("dedup mark: %w", err)
	}
	return nil
}

var _ ports.Deduplicator = (*DedupChecker)(nil)
