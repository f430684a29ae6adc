// Package cache provides the Redis-backed slot-query cache. Entries are
// short-lived and invalidated on every write to the owning resource, so
// a cached offer can only be briefly stale; the reservation store's
// atomic check is what actually guards correctness.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"reservio/internal/timerange"
)

// SlotCache caches availability slot queries in Redis.
type SlotCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewSlotCache creates a Redis-backed slot cache.
func NewSlotCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *SlotCache {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SlotCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// GetSlots returns the cached slots for key, if present.
func (c *SlotCache) GetSlots(ctx context.Context, key string) ([]timerange.Range, bool) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("slot cache read failed", slog.String("key", key), slog.Any("error", err))
		}
		return nil, false
	}

	var slots []timerange.Range
	if err := json.Unmarshal(payload, &slots); err != nil {
		c.logger.Warn("slot cache entry corrupt", slog.String("key", key), slog.Any("error", err))
		return nil, false
	}
	return slots, true
}

// SetSlots stores slots under key with the configured TTL. Failures are
// swallowed: the cache is an optimization, never a dependency.
func (c *SlotCache) SetSlots(ctx context.Context, key string, slots []timerange.Range) {
	payload, err := json.Marshal(slots)
	if err != nil {
		c.logger.Warn("failed to encode slot cache entry", slog.Any("error", err))
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("slot cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}

// InvalidateResource drops every cached slot query for a resource. Slot
// keys are prefixed with the resource id, so a SCAN over that prefix
// finds them all.
func (c *SlotCache) InvalidateResource(ctx context.Context, resourceID uuid.UUID) {
	pattern := fmt.Sprintf("slots:%s:*", resourceID)

	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("slot cache scan failed", slog.String("pattern", pattern), slog.Any("error", err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("slot cache invalidation failed", slog.Any("error", err))
	}
}
