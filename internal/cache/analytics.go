// Package cache holds a small cache-aside layer for per-owner analytics
// snapshots. The snapshot is defined as best-effort consistent, so serving a
// briefly stale copy is within contract; every successful write by an owner
// invalidates that owner's entry.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/edubrovskiy/task-tracker-api/internal/model"
)

type AnalyticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New wraps a redis client. A nil client yields a disabled cache whose
// methods are no-ops, so callers never branch on whether caching is on.
func New(client *redis.Client, ttl time.Duration) *AnalyticsCache {
	return &AnalyticsCache{client: client, ttl: ttl}
}

func (c *AnalyticsCache) enabled() bool {
	return c != nil && c.client != nil
}

func key(owner uuid.UUID) string {
	return fmt.Sprintf("analytics:%s", owner)
}

// Get returns the cached snapshot for an owner and whether it was found.
// Cache errors degrade to a miss; the store remains the source of truth.
func (c *AnalyticsCache) Get(ctx context.Context, owner uuid.UUID) (model.AnalyticsSnapshot, bool) {
	var snap model.AnalyticsSnapshot
	if !c.enabled() {
		return snap, false
	}

	data, err := c.client.Get(ctx, key(owner)).Bytes()
	if err != nil {
		return snap, false
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, false
	}
	return snap, true
}

func (c *AnalyticsCache) Set(ctx context.Context, owner uuid.UUID, snap model.AnalyticsSnapshot) {
	if !c.enabled() {
		return
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	c.client.Set(ctx, key(owner), data, c.ttl)
}

func (c *AnalyticsCache) Invalidate(ctx context.Context, owner uuid.UUID) {
	if !c.enabled() {
		return
	}
	c.client.Del(ctx, key(owner))
}
