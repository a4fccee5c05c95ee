package signals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"punchclock/internal/punch/models"
)

// Entry is a cached snapshot and when it was stored. Entries outlive their
// freshness TTL so they can be served stale while the upstream is unhealthy.
type Entry struct {
	Signals  models.NetworkSignals `json:"signals"`
	StoredAt time.Time             `json:"stored_at"`
}

// Fresh reports whether the entry is younger than ttl at now.
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.StoredAt) < ttl
}

// Cache stores signal snapshots by session key.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, entry Entry) error
}

// DefaultRetention bounds how long a stale entry may still be served.
const DefaultRetention = 10 * time.Minute

// MemoryCache is a process-local Cache with lazy eviction.
type MemoryCache struct {
	mu        sync.Mutex
	entries   map[string]Entry
	retention time.Duration
	now       func() time.Time
}

func NewMemoryCache(retention time.Duration) *MemoryCache {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &MemoryCache{entries: make(map[string]Entry), retention: retention, now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) (Entry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Entry{}, false, nil
	}
	if c.now().Sub(e.StoredAt) >= c.retention {
		delete(c.entries, key)
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, entry Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.StoredAt) >= c.retention {
			delete(c.entries, k)
		}
	}
	c.entries[key] = entry
	return nil
}

// Len returns the number of retained entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

const redisKeyPrefix = "signals:"

// RedisCache shares snapshots between instances behind a load balancer.
type RedisCache struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedisCache(client *redis.Client, retention time.Duration) *RedisCache {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &RedisCache{client: client, retention: retention}
}

func (c *RedisCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("get signals: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, fmt.Errorf("decode signals: %w", err)
	}
	return e, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode signals: %w", err)
	}
	return c.client.Set(ctx, redisKeyPrefix+key, raw, c.retention).Err()
}
