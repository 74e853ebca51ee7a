// Package cache holds computed day scores so unchanged days are not
// re-scored on every read. Task, sleep, or attendance mutations for a date
// invalidate that date's entry.
package cache

import (
	"sync"
	"time"

	"github.com/prodpulse/prodmeter/internal/types"
)

type item struct {
	record    types.ScoreRecord
	expiresAt time.Time
}

func (i *item) expired() bool {
	return time.Now().After(i.expiresAt)
}

// ScoreCache is a thread-safe TTL cache keyed by calendar date.
type ScoreCache struct {
	mu    sync.RWMutex
	items map[string]*item
	ttl   time.Duration
	stop  chan struct{}
}

// NewScoreCache starts a cache with the given TTL and a background sweep that
// drops expired entries.
func NewScoreCache(ttl time.Duration) *ScoreCache {
	c := &ScoreCache{
		items: make(map[string]*item),
		ttl:   ttl,
		stop:  make(chan struct{}),
	}
	go c.sweep()
	return c
}

func (c *ScoreCache) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			for date, it := range c.items {
				if it.expired() {
					delete(c.items, date)
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

// Get returns the cached record for the date if present and fresh.
func (c *ScoreCache) Get(date string) (types.ScoreRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, exists := c.items[date]
	if !exists || it.expired() {
		return types.ScoreRecord{}, false
	}
	return it.record, true
}

// Set stores the record under its date.
func (c *ScoreCache) Set(rec types.ScoreRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[rec.Date] = &item{
		record:    rec,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Invalidate drops the date's entry; called whenever that day's inputs
// change.
func (c *ScoreCache) Invalidate(date string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, date)
}

// Clear drops every entry; used when the scoring configuration changes and
// all cached records go stale at once.
func (c *ScoreCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*item)
}

// Size returns the number of cached entries, expired ones included until the
// next sweep.
func (c *ScoreCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Close stops the background sweep.
func (c *ScoreCache) Close() {
	close(c.stop)
}
