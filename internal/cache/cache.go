// Package cache implements the fingerprint-keyed, stale-while-revalidate
// result cache described in spec §4.1. It is grounded on the in-memory
// cache in Easonliuliang-purify's cache/cache.go (sha256 keying, bounded
// entry count, periodic eviction loop) generalized with an explicit
// fresh/stale/expired lifecycle and single-flight revalidation claiming,
// since purify's cache only knows fresh-or-miss.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Entry is a cached value together with its storage time. The cache does
// not interpret Value; callers store whatever they fetched (typically a
// *model.PeelResult).
type Entry struct {
	Value    any
	StoredAt time.Time
}

type record struct {
	key     string
	entry   Entry
	bytes   int64
	element *list.Element
}

// Cache is a bounded, LRU-evicted map with a fresh window and an extended
// stale window per key, plus single-flight revalidation claims.
//
// Contract (spec §4.1, §8): at most one concurrent revalidation per key;
// stale reads never block on an in-flight refresh; eviction is LRU within
// the size cap.
type Cache struct {
	mu    sync.Mutex
	items map[string]*record
	order *list.List // front = most recently used

	maxEntries int
	maxBytes   int64
	usedBytes  int64

	freshTTL time.Duration
	staleTTL time.Duration

	// revalidating holds the keys with an outstanding revalidation claim.
	// A plain map guarded by mu, not singleflight.Group: we need a
	// synchronous compare-and-set (claim iff absent) on the calling
	// goroutine, and singleflight.DoChan always runs fn on a spawned
	// goroutine even for the leader, which makes a synchronous claim
	// check racy.
	revalidating map[string]struct{}
}

// Config controls the cache's bounds and TTLs. Zero values fall back to
// the spec defaults (100MB / 1000 entries).
type Config struct {
	MaxEntries int
	MaxBytes   int64
	FreshTTL   time.Duration
	StaleTTL   time.Duration
}

func New(cfg Config) *Cache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 1000
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 100 * 1024 * 1024
	}
	if cfg.FreshTTL <= 0 {
		cfg.FreshTTL = 5 * time.Minute
	}
	if cfg.StaleTTL <= 0 {
		cfg.StaleTTL = 30 * time.Minute
	}
	return &Cache{
		items:        make(map[string]*record),
		order:        list.New(),
		maxEntries:   cfg.MaxEntries,
		maxBytes:     cfg.MaxBytes,
		freshTTL:     cfg.FreshTTL,
		staleTTL:     cfg.StaleTTL,
		revalidating: make(map[string]struct{}),
	}
}

// Lookup returns the cached entry and whether it is stale, or ok=false on
// a full miss (never stored, or past the stale window).
func (c *Cache) Lookup(key string) (value any, stale bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, found := c.items[key]
	if !found {
		return nil, false, false
	}

	age := time.Since(rec.entry.StoredAt)
	if age > c.freshTTL+c.staleTTL {
		c.removeLocked(rec)
		return nil, false, false
	}

	c.order.MoveToFront(rec.element)
	return rec.entry.Value, age > c.freshTTL, true
}

// ClaimRevalidation is an atomic compare-and-set: it returns true only to
// the first caller for a given key within the revalidation window;
// subsequent concurrent callers get false and should keep serving the
// stale value. The winning caller must call Forget once the refresh
// completes (success or failure) to release the claim.
func (c *Cache) ClaimRevalidation(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.revalidating[key]; busy {
		return false
	}
	c.revalidating[key] = struct{}{}
	return true
}

// Forget releases a revalidation claim taken via ClaimRevalidation,
// allowing a future refresh attempt on the same key. Safe to call even
// if no claim is outstanding.
func (c *Cache) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.revalidating, key)
}

// Store inserts or replaces the entry for key, evicting the least
// recently used entries as needed to stay within bounds.
func (c *Cache) Store(key string, value any, approxBytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rec, found := c.items[key]; found {
		c.removeLocked(rec)
	}

	rec := &record{key: key, entry: Entry{Value: value, StoredAt: time.Now()}, bytes: approxBytes}
	rec.element = c.order.PushFront(rec)
	c.items[key] = rec
	c.usedBytes += approxBytes

	for (len(c.items) > c.maxEntries || c.usedBytes > c.maxBytes) && c.order.Len() > 0 {
		oldest := c.order.Back()
		c.removeLocked(oldest.Value.(*record))
	}

	delete(c.revalidating, key)
}

// removeLocked must be called with mu held.
func (c *Cache) removeLocked(rec *record) {
	c.order.Remove(rec.element)
	delete(c.items, rec.key)
	c.usedBytes -= rec.bytes
}

// Len reports the current entry count, for tests and health checks.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
