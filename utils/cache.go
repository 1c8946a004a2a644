package utils

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// cacheEntry is one cached value with its expiry
type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is a process-local map whose entries expire after a fixed duration.
// Last write wins; reads never extend the expiry.
type TTLCache[K comparable, V any] struct {
	data  map[K]cacheEntry[V]
	mutex sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
}

// NewTTLCache creates an empty cache
func NewTTLCache[K comparable, V any](ttl time.Duration) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		data: make(map[K]cacheEntry[V]),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Get retrieves a live entry
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mutex.RLock()
	entry, exists := c.data[key]
	c.mutex.RUnlock()

	var zero V
	if !exists {
		return zero, false
	}

	if c.now().After(entry.expiresAt) {
		c.mutex.Lock()
		// Re-check, a concurrent Set may have refreshed the slot
		if cur, ok := c.data[key]; ok && c.now().After(cur.expiresAt) {
			delete(c.data, key)
		}
		c.mutex.Unlock()
		return zero, false
	}

	return entry.value, true
}

// Set stores a value, replacing whatever was there
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mutex.Lock()
	c.data[key] = cacheEntry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mutex.Unlock()
}

// Delete removes an entry
func (c *TTLCache[K, V]) Delete(key K) {
	c.mutex.Lock()
	delete(c.data, key)
	c.mutex.Unlock()
}

// Size returns the number of entries, expired ones included until cleanup
func (c *TTLCache[K, V]) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all entries
func (c *TTLCache[K, V]) Clear() {
	c.mutex.Lock()
	c.data = make(map[K]cacheEntry[V])
	c.mutex.Unlock()
}

// TTL returns the configured lifetime of an entry
func (c *TTLCache[K, V]) TTL() time.Duration {
	return c.ttl
}

// Cleanup removes expired entries and returns how many were dropped
func (c *TTLCache[K, V]) Cleanup() int {
	now := c.now()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	removed := 0
	for key, entry := range c.data {
		if now.After(entry.expiresAt) {
			delete(c.data, key)
			removed++
		}
	}
	return removed
}

// ScheduleCleanup registers a periodic eviction job on the scheduler
func (c *TTLCache[K, V]) ScheduleCleanup(s gocron.Scheduler, name string, every time.Duration) error {
	_, err := s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			if n := c.Cleanup(); n > 0 {
				BotLogf("CACHE", "Cleaned up %d expired %s entries. Cache size: %d", n, name, c.Size())
			}
		}),
		gocron.WithName(name+"-cleanup"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule %s cleanup: %w", name, err)
	}
	return nil
}
