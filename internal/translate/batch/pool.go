package batch

import (
	"container/heap"
	"sync/atomic"

	"github.com/bergamot-go/bergamot/internal/translate/request"
)

// BatchingPool holds one length-bucketed priority queue per possible
// token-length, draining shortest-first under a padded-token budget. It is
// not safe for concurrent use; see ThreadsafeBatchingPool for the
// monitor-wrapped, concurrency-safe surface.
type BatchingPool struct {
	miniBatchWords int
	buckets        []sentenceHeap // index i holds sentences of exactly i tokens

	batchSeq atomic.Uint64
}

// NewBatchingPool returns a pool with one bucket per token length in
// [0, maxLengthBreak], plus one extra bucket to hold the EOS-inclusive
// maximum segment length (maxLengthBreak raw tokens + one EOS token), and a
// mini_batch_words token budget.
func NewBatchingPool(maxLengthBreak, miniBatchWords int) *BatchingPool {
	return &BatchingPool{
		miniBatchWords: miniBatchWords,
		buckets:        make([]sentenceHeap, maxLengthBreak+2),
	}
}

// EnqueueRequest inserts every sentence of req that does not already carry a
// filled slot (a cache hit, populated before this call) into its
// length bucket. Returns the number of sentences actually enqueued.
func (p *BatchingPool) EnqueueRequest(req *request.Request) int {
	enqueued := 0
	for i := 0; i < req.NumSentences(); i++ {
		if req.Slot(i) != nil {
			continue // filled by a cache hit; never enters the pool
		}
		rs := request.RequestSentence{Index: i, Req: req}
		length := rs.TokenCount()
		if length >= len(p.buckets) {
			length = len(p.buckets) - 1
		}
		heap.Push(&p.buckets[length], rs)
		enqueued++
	}
	return enqueued
}

// GenerateBatch drains buckets in ascending token-length order, popping the
// oldest sentence in each bucket while (batch.Len()+1) * bucketLength does
// not exceed the token budget. It stops at the first candidate that would
// exceed the budget, or once every bucket is empty. Always returns a
// (possibly empty) Batch; it never blocks.
func (p *BatchingPool) GenerateBatch() *Batch {
	b := &Batch{ID: p.batchSeq.Add(1)}

	for length := 0; length < len(p.buckets); length++ {
		bucket := &p.buckets[length]
		for bucket.Len() > 0 {
			if (len(b.Sentences)+1)*length > p.miniBatchWords {
				return b
			}
			rs := heap.Pop(bucket).(request.RequestSentence)
			b.Sentences = append(b.Sentences, rs)
		}
	}
	return b
}

// Depth returns the total number of sentences currently queued across every
// bucket, not yet drained into a batch.
func (p *BatchingPool) Depth() int {
	n := 0
	for i := range p.buckets {
		n += p.buckets[i].Len()
	}
	return n
}
