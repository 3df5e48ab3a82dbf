package engine

import (
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Cache metrics — atomic counters for thread-safe access.
var (
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
)

// prefixLen is how much of each document goes into the lightweight key.
const prefixLen = 64

// InputKey identifies a resume/job input pair.
// Hash is the cheap change-detection key (lengths + prefixes); Sum is an
// FNV-64 over the full texts and guards against Hash collisions.
type InputKey struct {
	Hash string
	Sum  uint64
}

// KeyFor builds the InputKey for a resume/job pair.
func KeyFor(resumeText, jobText string) InputKey {
	h := fnv.New64a()
	h.Write([]byte(resumeText))
	h.Write([]byte{0})
	h.Write([]byte(jobText))
	return InputKey{
		Hash: fmt.Sprintf("%d:%d:%s:%s", len(resumeText), len(jobText), prefix(resumeText), prefix(jobText)),
		Sum:  h.Sum64(),
	}
}

func prefix(s string) string {
	if len(s) <= prefixLen {
		return s
	}
	return s[:prefixLen]
}

// Cache is a bounded in-memory cache with oldest-first eviction.
// Entries live in a fixed ring of slots; the write cursor always points at
// the oldest slot once the ring is full. A zero ttl never expires.
type Cache[V any] struct {
	mu    sync.Mutex
	slots []cacheEntry[V]
	index map[string]int
	next  int
	ttl   time.Duration
}

type cacheEntry[V any] struct {
	key       InputKey
	value     V
	used      bool
	expiresAt time.Time
}

// NewCache creates a cache holding at most capacity entries.
func NewCache[V any](capacity int, ttl time.Duration) *Cache[V] {
	if capacity <= 0 {
		capacity = DefaultConfig().CacheSize
	}
	return &Cache[V]{
		slots: make([]cacheEntry[V], capacity),
		index: make(map[string]int, capacity),
		ttl:   ttl,
	}
}

// Get returns the value stored under key. The full-content Sum must match
// too; a Hash collision is a miss.
func (c *Cache[V]) Get(key InputKey) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	i, ok := c.index[key.Hash]
	if !ok {
		cacheMisses.Add(1)
		return zero, false
	}
	e := c.slots[i]
	if e.key.Sum != key.Sum {
		slog.Debug("cache: hash collision", slog.String("hash", key.Hash))
		cacheMisses.Add(1)
		return zero, false
	}
	if c.ttl > 0 && time.Now().After(e.expiresAt) {
		delete(c.index, key.Hash)
		c.slots[i] = cacheEntry[V]{}
		cacheMisses.Add(1)
		return zero, false
	}
	cacheHits.Add(1)
	return e.value, true
}

// Set stores value, evicting the oldest entry when the cache is full.
// Re-setting an existing key refreshes it in place.
func (c *Cache[V]) Set(key InputKey, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := cacheEntry[V]{key: key, value: value, used: true}
	if c.ttl > 0 {
		entry.expiresAt = time.Now().Add(c.ttl)
	}
	if i, ok := c.index[key.Hash]; ok {
		c.slots[i] = entry
		return
	}
	if old := c.slots[c.next]; old.used {
		delete(c.index, old.key.Hash)
		slog.Debug("cache: evicted oldest", slog.String("hash", old.key.Hash))
	}
	c.slots[c.next] = entry
	c.index[key.Hash] = c.next
	c.next = (c.next + 1) % len(c.slots)
}

// Len returns the number of live entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// CacheStats returns current cache hit/miss counters.
func CacheStats() (hits, misses int64) {
	return cacheHits.Load(), cacheMisses.Load()
}
