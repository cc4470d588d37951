package batch

import (
	"sync"
	"weak"

	"github.com/bergamot-go/bergamot/internal/translate/request"
)

// ModelPooler is satisfied by a pointer to any model type that owns a
// BatchingPool. T is the model's value type; the constraint's type set is
// exactly *T, so a generic parameter of this constraint can be converted
// back to *T to create a weak reference into it.
type ModelPooler[T any] interface {
	*T
	Pool() *BatchingPool
}

// AggregateBatchingPool round-robins across multiple models' BatchingPools
// so one service thread can feed many models from a single generate-batch
// loop. It holds only weak references to models: a model dropped by its
// owner (the registry, the TranslationModel's owner) disappears from the
// FIFO on its own, without requiring explicit deregistration.
type AggregateBatchingPool[T any, PT ModelPooler[T]] struct {
	mu   sync.Mutex
	fifo []weak.Pointer[T]
}

// NewAggregateBatchingPool returns an empty aggregate pool.
func NewAggregateBatchingPool[T any, PT ModelPooler[T]]() *AggregateBatchingPool[T, PT] {
	return &AggregateBatchingPool[T, PT]{}
}

// EnqueueRequest forwards req to model's own BatchingPool and, if any
// sentence was actually enqueued, pushes model onto the FIFO so it takes a
// turn in a future GenerateBatch call.
func (p *AggregateBatchingPool[T, PT]) EnqueueRequest(model PT, req *request.Request) int {
	n := model.Pool().EnqueueRequest(req)
	if n > 0 {
		p.push(model)
	}
	return n
}

// push appends a weak reference to model onto the back of the FIFO.
func (p *AggregateBatchingPool[T, PT]) push(model PT) {
	ptr := (*T)(model)
	p.mu.Lock()
	p.fifo = append(p.fifo, weak.Make(ptr))
	p.mu.Unlock()
}

// GenerateBatch pops models off the front of the FIFO, skipping any that
// have been dropped by their owner, until it finds one it can draw a batch
// from. ok is false only when the FIFO holds no live model at all; model
// and batch are the zero value in that case. A live model's GenerateBatch
// may legitimately return an empty Batch (nothing currently fits the
// budget); ok is still true in that case, and the model is not
// automatically re-pushed — callers that want round-robin fairness across
// calls must re-push a model with remaining Depth() themselves (see
// ThreadsafeBatchingPool, which does this).
func (p *AggregateBatchingPool[T, PT]) GenerateBatch() (model PT, b *Batch, ok bool) {
	for {
		p.mu.Lock()
		if len(p.fifo) == 0 {
			p.mu.Unlock()
			return nil, nil, false
		}
		wp := p.fifo[0]
		p.fifo = p.fifo[1:]
		p.mu.Unlock()

		ptr := wp.Value()
		if ptr == nil {
			continue // model was dropped by its owner; skip silently
		}
		m := PT(ptr)
		return m, m.Pool().GenerateBatch(), true
	}
}

// Requeue re-pushes model onto the FIFO without touching its BatchingPool.
// Used by ThreadsafeBatchingPool to give a model with remaining queued
// sentences another turn in a future round.
func (p *AggregateBatchingPool[T, PT]) Requeue(model PT) {
	p.push(model)
}
