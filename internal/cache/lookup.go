package cache

import (
	"fmt"
	"sync"
	"time"
)

// LookupCache caches upstream dropdown lookups (agents, queues,
// dispositions) keyed by kind and time range, so repeated form
// interactions do not hammer the upstream API.
type LookupCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]lookupEntry
}

type lookupEntry struct {
	values  []string
	expires time.Time
}

// NewLookupCache creates a cache with the given entry TTL.
func NewLookupCache(ttl time.Duration) *LookupCache {
	return &LookupCache{
		ttl:     ttl,
		entries: make(map[string]lookupEntry),
	}
}

// Key builds the cache key for a lookup kind and unix-seconds range.
func Key(kind string, fromTS, toTS int64) string {
	return fmt.Sprintf("%s:%d:%d", kind, fromTS, toTS)
}

// Get returns the cached values for key, if present and fresh.
func (c *LookupCache) Get(key string) ([]string, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}
	return entry.values, true
}

// Set stores values under key.
func (c *LookupCache) Set(key string, values []string) {
	c.mu.Lock()
	c.entries[key] = lookupEntry{
		values:  values,
		expires: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Size returns the number of cached entries, expired included.
func (c *LookupCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
