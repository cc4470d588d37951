package cache

import (
	"container/list"
	"sync"

	"github.com/bergamot-go/bergamot/internal/translate/artifact"
)

// lruEntry is the value type stored in each container/list element.
type lruEntry struct {
	key   Key
	value *artifact.Artifact
	size  int64
}

// LRUCache is a size-bounded cache with least-recently-used eviction.
// Per the concurrency model, it is intended for single-threaded use by one
// dispatcher — the mutex below exists for defense-in-depth, not as license
// to share one instance across a worker pool the way ShardedCache is
// shared.
type LRUCache struct {
	mu sync.Mutex

	limit     int64
	totalSize int64

	ll    *list.List
	items map[Key]*list.Element

	hits, misses, evicted uint64
}

// NewLRUCache returns an LRUCache bounded at limitBytes of serialized
// artifact size.
func NewLRUCache(limitBytes int64) *LRUCache {
	return &LRUCache{
		limit: limitBytes,
		ll:    list.New(),
		items: make(map[Key]*list.Element),
	}
}

// Fetch returns the artifact stored for key, moving it to the
// most-recently-used end on a hit.
func (c *LRUCache) Fetch(key Key) (*artifact.Artifact, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.ll.MoveToBack(el)
	c.hits++
	return el.Value.(*lruEntry).value, true
}

// Insert stores value under key, evicting least-recently-used entries from
// the front of the list until totalSize no longer exceeds limit.
func (c *LRUCache) Insert(key Key, value *artifact.Artifact) {
	size := int64(len(value.ToBytes()))

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		e := el.Value.(*lruEntry)
		c.totalSize += size - e.size
		e.value = value
		e.size = size
		c.ll.MoveToBack(el)
	} else {
		el := c.ll.PushBack(&lruEntry{key: key, value: value, size: size})
		c.items[key] = el
		c.totalSize += size
	}

	for c.totalSize > c.limit && c.ll.Len() > 0 {
		front := c.ll.Front()
		e := front.Value.(*lruEntry)
		c.ll.Remove(front)
		delete(c.items, e.key)
		c.totalSize -= e.size
		c.evicted++
	}
}

// Stats returns a snapshot of lookup counters and current occupancy.
// TotalSize never exceeds the configured byte limit.
func (c *LRUCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:           c.hits,
		Misses:         c.misses,
		EvictedRecords: c.evicted,
		ActiveRecords:  uint64(c.ll.Len()),
		TotalSize:      uint64(c.totalSize),
	}
}
