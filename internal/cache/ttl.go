package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Stats counts lookups and evictions since the cache was created.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
}

// TTLCache is a bounded in-memory cache whose entries expire a fixed time
// after insertion. Set replaces the whole value for a key, so concurrent
// writers of the same key are safe and the last one wins.
type TTLCache struct {
	mu         sync.RWMutex
	items      map[string]Entry
	maxEntries int
	policy     EvictionPolicy
	now        func() time.Time

	statsMu sync.Mutex
	stats   Stats
}

type Option func(*TTLCache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *TTLCache) { c.now = now }
}

func NewTTLCache(ttl time.Duration, maxEntries int, opts ...Option) *TTLCache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	c := &TTLCache{
		items:      make(map[string]Entry),
		maxEntries: maxEntries,
		policy:     ExpiryThenOldest{TTL: ttl},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists || c.policy.Expired(item, c.now()) {
		c.record(func(s *Stats) { s.Misses++ })
		return nil, false
	}

	c.record(func(s *Stats) { s.Hits++ })
	return item.Value, true
}

func (c *TTLCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxEntries {
		victims := c.policy.Victims(c.oldestFirst(), c.maxEntries, now)
		for _, k := range victims {
			delete(c.items, k)
		}
		c.record(func(s *Stats) { s.Evictions += uint64(len(victims)) })
	}

	c.items[key] = Entry{Key: key, Value: value, InsertedAt: now}
}

// Purge drops every expired entry and returns how many were removed.
func (c *TTLCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, item := range c.items {
		if c.policy.Expired(item, now) {
			delete(c.items, k)
			removed++
		}
	}
	c.record(func(s *Stats) { s.Evictions += uint64(removed) })
	return removed
}

// Janitor purges expired entries every interval until ctx is done.
func (c *TTLCache) Janitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Purge()
		}
	}
}

func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *TTLCache) Stats() Stats {
	c.statsMu.Lock()
	s := c.stats
	c.statsMu.Unlock()
	s.Size = c.Len()
	return s
}

// oldestFirst must be called with mu held.
func (c *TTLCache) oldestFirst() []Entry {
	entries := make([]Entry, 0, len(c.items))
	for _, e := range c.items {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].InsertedAt.Equal(entries[j].InsertedAt) {
			return entries[i].Key < entries[j].Key
		}
		return entries[i].InsertedAt.Before(entries[j].InsertedAt)
	})
	return entries
}

func (c *TTLCache) record(fn func(*Stats)) {
	c.statsMu.Lock()
	fn(&c.stats)
	c.statsMu.Unlock()
}
