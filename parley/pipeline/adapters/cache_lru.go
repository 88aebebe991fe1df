// Package adapters provides the concrete implementations behind the
// pipeline ports: the fingerprint cache, the cooldown gate, the zerolog
// tracer, the libsql decision store, and the langchaingo delegate provider.
package adapters

import (
	"context"
	"sync"
	"time"

	ports "github.com/equalvoice/parley-mediator/parley/pipeline/ports"
)

// TTLCache is an in-process LRU cache with per-entry TTL, used to memoize
// decisions by message fingerprint. Get promotes entries, so all operations
// take the write lock.
type TTLCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*cacheEntry
	head     *cacheEntry
	tail     *cacheEntry
}

type cacheEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
	prev      *cacheEntry
	next      *cacheEntry
}

// NewTTLCache creates a cache holding at most capacity entries.
func NewTTLCache(capacity int) *TTLCache {
	if capacity < 1 {
		capacity = 1
	}
	return &TTLCache{
		capacity: capacity,
		items:    make(map[string]*cacheEntry),
	}
}

// Get returns the live value for key and promotes it to most recently used.
// An expired entry is removed and reported as a miss.
func (c *TTLCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		c.unlink(entry)
		delete(c.items, key)
		return nil, false, nil
	}
	c.moveToFront(entry)
	return entry.value, true, nil
}

// Set stores value under key for ttlSeconds, evicting the least recently
// used entry when the cache is full. A non-positive TTL expires immediately.
func (c *TTLCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(time.Duration(ttlSeconds) * time.Second)

	if entry, ok := c.items[key]; ok {
		entry.value = value
		entry.expiresAt = expiresAt
		c.moveToFront(entry)
		return nil
	}

	entry := &cacheEntry{key: key, value: value, expiresAt: expiresAt}
	c.pushFront(entry)
	c.items[key] = entry

	if len(c.items) > c.capacity {
		c.evictOldest()
	}
	return nil
}

// Delete removes key from the cache if present.
func (c *TTLCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if !ok {
		return nil
	}
	c.unlink(entry)
	delete(c.items, key)
	return nil
}

// Len returns the number of resident entries, expired or not.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *TTLCache) moveToFront(entry *cacheEntry) {
	if entry == c.head {
		return
	}
	c.unlink(entry)
	c.pushFront(entry)
}

func (c *TTLCache) pushFront(entry *cacheEntry) {
	entry.next = c.head
	entry.prev = nil
	if c.head != nil {
		c.head.prev = entry
	}
	c.head = entry
	if c.tail == nil {
		c.tail = entry
	}
}

func (c *TTLCache) unlink(entry *cacheEntry) {
	if entry.prev != nil {
		entry.prev.next = entry.next
	} else {
		c.head = entry.next
	}
	if entry.next != nil {
		entry.next.prev = entry.prev
	} else {
		c.tail = entry.prev
	}
	entry.prev = nil
	entry.next = nil
}

func (c *TTLCache) evictOldest() {
	if c.tail == nil {
		return
	}
	entry := c.tail
	c.unlink(entry)
	delete(c.items, entry.key)
}

var _ ports.Cache = (*TTLCache)(nil)
