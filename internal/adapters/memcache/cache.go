package memcache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/patrickmn/go-cache"

	"tripplanner/internal/adapters/observability"
)

// Cache is an in-process domain.Cache used when no redis is configured.
// Values are stored as JSON so callers decode into their own types exactly
// as they would from redis.
type Cache struct{ c *cache.Cache }

func New(defaultTTL, cleanup time.Duration) *Cache {
	return &Cache{c: cache.New(defaultTTL, cleanup)}
}

func (m *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	observability.ObserveCache("memory", "hit")
	return true, json.Unmarshal(v.([]byte), dst)
}

// Set stores v for ttlSec seconds; ttlSec <= 0 uses the default TTL.
func (m *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ttl := cache.DefaultExpiration
	if ttlSec > 0 {
		ttl = time.Duration(ttlSec) * time.Second
	}
	observability.ObserveCache("memory", "set")
	m.c.Set(key, b, ttl)
	return nil
}

func (m *Cache) Del(ctx context.Context, key string) error {
	observability.ObserveCache("memory", "del")
	m.c.Delete(key)
	return nil
}

func (m *Cache) Len() int { return m.c.ItemCount() }
