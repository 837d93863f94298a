// Package albumcache is a short-TTL in-process cache of album settings
// (watermark, color grading, deletion marker) consulted by the processing
// pipeline to avoid a DB read on every job. Generalized from the
// teacher's per-IP rate limiter map (sync.RWMutex-guarded map + periodic
// cleanup) to a per-album fill-on-miss cache.
package albumcache

import (
	"context"
	"sync"
	"time"
)

// Settings is the subset of album attributes the pipeline needs per job.
type Settings struct {
	WatermarkEnabled bool
	WatermarkType    string
	WatermarkConfig  []byte
	ColorGrading     []byte
	DeletedAt        *time.Time
}

// Loader fills a cache miss with a single DB read.
type Loader func(ctx context.Context, albumID string) (Settings, error)

type entry struct {
	value     Settings
	expiresAt time.Time
}

// Cache is a TTL-expiring map keyed by album id under one RWMutex. Safe for
// concurrent use; in-process only (processes do not share the cache).
type Cache struct {
	mu     sync.RWMutex
	items  map[string]entry
	ttl    time.Duration
	loader Loader
}

// New builds a Cache with the given TTL and fill-on-miss loader. TTL
// defaults to 60s if zero, matching §4.4.
func New(ttl time.Duration, loader Loader) *Cache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &Cache{
		items:  make(map[string]entry),
		ttl:    ttl,
		loader: loader,
	}
}

// Get returns the cached Settings for albumID, filling via Loader on a miss
// or an expired entry.
func (c *Cache) Get(ctx context.Context, albumID string) (Settings, error) {
	c.mu.RLock()
	e, ok := c.items[albumID]
	c.mu.RUnlock()
	if ok && time.Now().Before(e.expiresAt) {
		return e.value, nil
	}

	value, err := c.loader(ctx, albumID)
	if err != nil {
		return Settings{}, err
	}

	c.mu.Lock()
	c.items[albumID] = entry{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	return value, nil
}

// Invalidate drops a single album's cached entry. Admin mutations to album
// settings should call this; if they don't, correctness is preserved
// within one TTL window.
func (c *Cache) Invalidate(albumID string) {
	c.mu.Lock()
	delete(c.items, albumID)
	c.mu.Unlock()
}

// Clear drops every cached entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]entry)
	c.mu.Unlock()
}

// Len reports the number of cached entries, including expired ones not yet
// evicted by a Get miss. Exposed for tests and diagnostics.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
