package cache

import (
	"sync/atomic"

	"github.com/bergamot-go/bergamot/internal/translate/artifact"
)

// shardEntry is the immutable payload held by one shard slot. Replacing a
// slot means swapping the pointer, never mutating the pointee.
type shardEntry struct {
	key   Key
	value *artifact.Artifact
}

// ShardedCache is a lock-free, fixed-size clock/replace cache: N shards
// addressed by hash(key) mod N, each holding an atomically-swapped pointer
// to a (key, value) pair. Collisions do not chain — a new insert silently
// replaces whatever key previously occupied that shard. Memory is bounded
// at N * sizeof(entry) regardless of workload.
//
// Safe for concurrent Fetch and Insert from any number of goroutines
// without locks.
type ShardedCache struct {
	shards []atomic.Pointer[shardEntry]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewShardedCache returns a ShardedCache with n shards. n should be sized to
// the expected working set; there is no eviction beyond overwrite-on-hash-
// collision.
func NewShardedCache(n int) *ShardedCache {
	if n <= 0 {
		n = 1
	}
	return &ShardedCache{shards: make([]atomic.Pointer[shardEntry], n)}
}

func (c *ShardedCache) shardFor(key Key) *atomic.Pointer[shardEntry] {
	return &c.shards[key.Hash()%uint64(len(c.shards))]
}

// Fetch loads the addressed shard atomically and returns its value only if
// the stored key matches. A hash collision with a different key is treated
// as a clean miss, not a corruption.
func (c *ShardedCache) Fetch(key Key) (*artifact.Artifact, bool) {
	e := c.shardFor(key).Load()
	if e == nil || e.key != key {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return e.value, true
}

// Insert atomically stores (key, value) into key's shard, replacing any
// previous occupant regardless of whether it shared the same key.
func (c *ShardedCache) Insert(key Key, value *artifact.Artifact) {
	c.shardFor(key).Store(&shardEntry{key: key, value: value})
}

// Stats returns hit/miss counters and the number of currently occupied
// shards. ShardedCache never evicts in the LRU sense, so EvictedRecords and
// TotalSize are always zero; occupancy is reported via ActiveRecords.
func (c *ShardedCache) Stats() Stats {
	active := uint64(0)
	for i := range c.shards {
		if c.shards[i].Load() != nil {
			active++
		}
	}
	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		ActiveRecords: active,
	}
}
