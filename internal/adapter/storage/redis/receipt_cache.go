package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ReceiptCache implements ports.ReceiptCache using Redis. It fronts the
// store's (reference id, type) uniqueness constraint with a fast existence
// check; the constraint stays authoritative, the cache only short-circuits
// obvious resubmissions.
type ReceiptCache struct {
	client *goredis.Client
	prefix string
}

// NewReceiptCache creates a new Redis-backed receipt cache.
func NewReceiptCache(client *goredis.Client) *ReceiptCache {
	return &ReceiptCache{
		client: client,
		prefix: "receipt:",
	}
}

// Seen reports whether a receipt exists for the key.
func (c *ReceiptCache) Seen(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis receipt check: %w", err)
	}
	return n > 0, nil
}

// Mark records a receipt for a committed mutation with a TTL.
func (c *ReceiptCache) Mark(ctx context.Context, key string, ttl time.Duration) error {
	committedAt := time.Now().UTC().Format(time.RFC3339Nano)
	if err := c.client.Set(ctx, c.prefix+key, committedAt, ttl).Err(); err != nil {
		return fmt.Errorf("redis receipt mark: %w", err)
	}
	return nil
}
