package ipintel

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

// DefaultTTL is how long a verdict is reused for the same address.
const DefaultTTL = 7 * 24 * time.Hour

// Cache stores IP verdicts by the address they were requested for.
type Cache interface {
	Get(ctx context.Context, ip string) (*models.IPIntel, bool, error)
	Set(ctx context.Context, ip string, intel *models.IPIntel, ttl time.Duration) error
}

type memoryEntry struct {
	intel     models.IPIntel
	expiresAt time.Time
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, ip string) (*models.IPIntel, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[ip]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	intel := e.intel
	return &intel, true, nil
}

func (c *MemoryCache) Set(_ context.Context, ip string, intel *models.IPIntel, ttl time.Duration) error {
	if intel == nil || ip == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[ip] = memoryEntry{intel: *intel, expiresAt: c.now().Add(ttl)}
	return nil
}

const redisKeyPrefix = "ipintel:"

// RedisCache shares verdicts across instances.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, ip string) (*models.IPIntel, bool, error) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+ip).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get ip intel: %w", err)
	}
	var intel models.IPIntel
	if err := json.Unmarshal(raw, &intel); err != nil {
		return nil, false, fmt.Errorf("decode ip intel: %w", err)
	}
	return &intel, true, nil
}

func (c *RedisCache) Set(ctx context.Context, ip string, intel *models.IPIntel, ttl time.Duration) error {
	if intel == nil || ip == "" {
		return nil
	}
	raw, err := json.Marshal(intel)
	if err != nil {
		return fmt.Errorf("encode ip intel: %w", err)
	}
	return c.client.Set(ctx, redisKeyPrefix+ip, raw, ttl).Err()
}
