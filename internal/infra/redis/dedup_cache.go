package redis

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// KnownIDCache remembers vulnerability ids that are already stored, so
// reconciliation passes can skip the database existence probe for ids
// they have seen recently. It is a best-effort layer: a miss or a Redis
// outage only costs the round trip, the storage-layer uniqueness
// constraint stays the source of truth.
type KnownIDCache struct {
	client    *Client
	keyPrefix string
	ttl       time.Duration
}

// NewKnownIDCache creates a known-id cache.
func NewKnownIDCache(client *Client, ttl time.Duration) (*KnownIDCache, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if ttl <= 0 {
		return nil, errors.New("TTL must be positive")
	}

	return &KnownIDCache{
		client:    client,
		keyPrefix: "vuln:known",
		ttl:       ttl,
	}, nil
}

func (c *KnownIDCache) buildKey(vulnerabilityID string) string {
	return fmt.Sprintf("%s:%s", c.keyPrefix, vulnerabilityID)
}

// Seen reports whether the id was marked recently. Errors are reported
// so callers can log them, but callers should treat any error as "not
// seen" and fall through to storage.
func (c *KnownIDCache) Seen(ctx context.Context, vulnerabilityID string) (bool, error) {
	if vulnerabilityID == "" {
		return false, errors.New("vulnerability id is required")
	}

	_, err := c.client.Get(ctx, c.buildKey(vulnerabilityID))
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkSeen records the id for the cache TTL.
func (c *KnownIDCache) MarkSeen(ctx context.Context, vulnerabilityID string) error {
	if vulnerabilityID == "" {
		return errors.New("vulnerability id is required")
	}
	return c.client.Set(ctx, c.buildKey(vulnerabilityID), "1", c.ttl)
}
