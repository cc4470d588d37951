// Package cache implements the content-addressed, per-sentence translation
// cache: a lock-free sharded variant and a size-bounded LRU variant sharing
// a common fetch/insert/stats surface.
package cache

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/bergamot-go/bergamot/internal/translate/textproc"
)

// Key is the cache key for one source sentence: its token-id Segment,
// reduced to a hash plus a comparable byte encoding so it can serve as both
// a Go map key (LRU variant) and a collision check after a hash-bucket
// lookup (sharded variant).
type Key struct {
	hash uint64
	raw  string // big-endian-encoded token ids; comparable, used for equality
}

// NewKey derives a Key from seg. Equality and hashing are over the id
// sequence, per the cache's key contract.
func NewKey(seg textproc.Segment) Key {
	buf := make([]byte, len(seg)*4)
	for i, id := range seg {
		binary.BigEndian.PutUint32(buf[i*4:], uint32(id))
	}
	return Key{hash: xxhash.Sum64(buf), raw: string(buf)}
}

// Hash returns the key's hash, used to address a cache shard.
func (k Key) Hash() uint64 { return k.hash }

// Bytes returns the key's big-endian token-id encoding, suitable as a
// primary key for a persistent cache tier that needs to outlive this
// process (e.g. internal/cache/semantic).
func (k Key) Bytes() []byte { return []byte(k.raw) }
