package cache

import "github.com/bergamot-go/bergamot/internal/translate/artifact"

// Stats summarizes a cache's lookup history and current occupancy.
// Hits + Misses equals the total number of Fetch calls ever performed, per
// the cache's stats invariant.
type Stats struct {
	Hits           uint64
	Misses         uint64
	EvictedRecords uint64
	ActiveRecords  uint64
	TotalSize      uint64
}

// Cache is the capability set shared by both cache implementations — the
// polymorphic-cache redesign: callers depend on this interface, never on a
// concrete ShardedCache or LRUCache, so the two are freely swappable.
type Cache interface {
	// Fetch returns the artifact stored for key, if any. A cache
	// corruption detected during deserialization (sharded variant never
	// serializes; LRU variant never serializes either, since both hold
	// live *artifact.Artifact values) is impossible here — deserialization
	// failure handling belongs to whatever layer persists cache entries
	// across process restarts, which is out of scope for the in-process
	// variants below.
	Fetch(key Key) (*artifact.Artifact, bool)

	// Insert stores value under key, replacing any previous occupant.
	Insert(key Key, value *artifact.Artifact)

	// Stats returns a snapshot of the cache's lookup and occupancy
	// counters.
	Stats() Stats
}
