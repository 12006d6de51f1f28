// Package cache wraps an optional Redis client for read-path caching.
// When no Redis address is configured every operation is a silent no-op, so
// callers never branch on availability.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis at addr. An empty addr disables caching.
func New(addr string, db int, ttl time.Duration) *Cache {
	if addr == "" {
		return &Cache{ttl: ttl}
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("WARNING: Redis unreachable at %s, caching disabled: %v", addr, err)
		return &Cache{ttl: ttl}
	}
	log.Printf("Redis cache connected at %s", addr)
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetJSON loads key into dest. Returns false on miss, disabled cache, or
// decode failure.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if !c.Enabled() {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		log.Printf("WARNING: corrupt cache entry %s dropped: %v", key, err)
		c.client.Del(ctx, key)
		return false
	}
	return true
}

func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}) {
	if !c.Enabled() {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Printf("WARNING: cache set %s failed: %v", key, err)
	}
}

// InvalidateSchedule drops every cached schedule view for the studio.
// Mutations call this so reads never serve a stale window for long.
func (c *Cache) InvalidateSchedule(ctx context.Context, studioID string) {
	if !c.Enabled() {
		return
	}
	pattern := fmt.Sprintf("schedule:%s:*", studioID)
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		c.client.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("WARNING: cache invalidation scan failed: %v", err)
	}
}

// ScheduleKey builds the cache key for one scoped schedule read.
func ScheduleKey(studioID, scopeType, scopeID, from, to string) string {
	return fmt.Sprintf("schedule:%s:%s:%s:%s:%s", studioID, scopeType, scopeID, from, to)
}

func (c *Cache) Close() error {
	if c.Enabled() {
		return c.client.Close()
	}
	return nil
}
