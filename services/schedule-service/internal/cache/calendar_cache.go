// Package cache holds the rendered-calendar cache. The calendar for a
// (provider, month) pair is expensive to rebuild and cheap to store, so
// responses are kept in redis until a write or a consumed booking event
// invalidates them.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 10 * time.Minute

// CalendarCache caches serialized calendar responses. A nil client disables
// the cache; every method degrades to a miss or a no-op.
type CalendarCache struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

func NewCalendarCache(client *redis.Client, logger *slog.Logger) *CalendarCache {
	return &CalendarCache{client: client, logger: logger, ttl: defaultTTL}
}

func key(providerID string, year int, month int) string {
	return fmt.Sprintf("cal:%s:%d-%02d", providerID, year, month)
}

// Get returns the cached payload and whether it was present. Redis errors
// count as misses so the calendar endpoint never fails on cache trouble.
func (c *CalendarCache) Get(ctx context.Context, providerID string, year, month int) ([]byte, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, key(providerID, year, month)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("calendar cache read failed", "error", err)
		}
		return nil, false
	}
	return payload, true
}

func (c *CalendarCache) Set(ctx context.Context, providerID string, year, month int, payload []byte) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Set(ctx, key(providerID, year, month), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("calendar cache write failed", "error", err)
	}
}

// Invalidate drops every cached month for the provider. Writes touch a
// handful of dates at most, but which months they land in is not worth
// tracking, so the whole provider is flushed.
func (c *CalendarCache) Invalidate(ctx context.Context, providerID string) {
	if c == nil || c.client == nil {
		return
	}
	pattern := fmt.Sprintf("cal:%s:*", providerID)
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("calendar cache scan failed", "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("calendar cache invalidation failed", "error", err)
	}
}
