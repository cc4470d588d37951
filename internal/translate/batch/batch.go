// Package batch implements the length-bucketed batching pool: a per-model
// priority queue that emits length-homogeneous batches under a padded-token
// budget, plus the aggregate and thread-safe wrappers layered over it.
package batch

import "github.com/bergamot-go/bergamot/internal/translate/request"

// Batch is an ordered sequence of RequestSentences drained shortest-first
// from a pool's length buckets (one batch may span several lengths), plus a
// monotonic id scoped to the pool that produced it. An empty Batch signals "no work" — at the
// ThreadsafeBatchingPool layer, an empty batch returned after shutdown is
// the worker's poison pill.
type Batch struct {
	ID        uint64
	Sentences []request.RequestSentence
}

// Len returns the number of sentences in the batch.
func (b *Batch) Len() int { return len(b.Sentences) }

// Empty reports whether the batch carries no sentences.
func (b *Batch) Empty() bool { return len(b.Sentences) == 0 }
