package service

import (
	"strings"
	"sync"
	"time"

	"github.com/dalfonso89/currency-converter/internal/models"
)

// DefaultCacheTTL is how long a fetched table is served before refetching.
const DefaultCacheTTL = time.Hour

// CacheEntry wraps a table with the time it was stored
type CacheEntry struct {
	Table    models.RateTable
	StoredAt time.Time
}

// RateCache maps base currency to its latest table. Expired entries are
// treated as misses and only replaced by the next Put for the same base.
type RateCache struct {
	ttl time.Duration
	now func() time.Time

	cacheMutex sync.RWMutex
	entries    map[string]CacheEntry
}

type CacheOption func(*RateCache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(cache *RateCache) { cache.now = now }
}

// NewRateCache creates a cache; a non-positive ttl means DefaultCacheTTL.
func NewRateCache(ttl time.Duration, options ...CacheOption) *RateCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	cache := &RateCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]CacheEntry),
	}
	for _, option := range options {
		option(cache)
	}
	return cache
}

// Get returns the table for base unless it is absent or older than the TTL.
func (cache *RateCache) Get(base string) (models.RateTable, bool) {
	key := strings.ToUpper(strings.TrimSpace(base))

	cache.cacheMutex.RLock()
	entry, ok := cache.entries[key]
	cache.cacheMutex.RUnlock()

	if !ok || cache.now().Sub(entry.StoredAt) > cache.ttl {
		return models.RateTable{}, false
	}
	return entry.Table, true
}

// Put replaces the entry for base, stamped with the current time.
func (cache *RateCache) Put(base string, table models.RateTable) {
	key := strings.ToUpper(strings.TrimSpace(base))
	entry := CacheEntry{Table: table, StoredAt: cache.now()}

	cache.cacheMutex.Lock()
	cache.entries[key] = entry
	cache.cacheMutex.Unlock()
}

// Len counts stored entries, expired ones included.
func (cache *RateCache) Len() int {
	cache.cacheMutex.RLock()
	defer cache.cacheMutex.RUnlock()
	return len(cache.entries)
}

func (cache *RateCache) TTL() time.Duration { return cache.ttl }
