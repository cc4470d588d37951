package batch

import (
	"sync"

	"github.com/bergamot-go/bergamot/internal/translate/request"
)

// ThreadsafeBatchingPool is a monitor wrapping an AggregateBatchingPool:
// producer goroutines enqueue requests, consumer (worker) goroutines block
// in GenerateBatch until work is available or the pool is shut down.
type ThreadsafeBatchingPool[T any, PT ModelPooler[T]] struct {
	mu    sync.Mutex
	cond  *sync.Cond
	inner *AggregateBatchingPool[T, PT]

	enqueued int // total sentences enqueued but not yet handed out in a batch
	shutdown bool
}

// NewThreadsafeBatchingPool returns a ready-to-use monitor over a fresh
// AggregateBatchingPool.
func NewThreadsafeBatchingPool[T any, PT ModelPooler[T]]() *ThreadsafeBatchingPool[T, PT] {
	p := &ThreadsafeBatchingPool[T, PT]{inner: NewAggregateBatchingPool[T, PT]()}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// EnqueueRequest locks, forwards to the inner aggregate pool, increments the
// enqueued counter, and, if any sentence was queued, wakes every waiting
// consumer with a single Broadcast.
func (p *ThreadsafeBatchingPool[T, PT]) EnqueueRequest(model PT, req *request.Request) int {
	p.mu.Lock()
	n := p.inner.EnqueueRequest(model, req)
	p.enqueued += n
	p.mu.Unlock()

	if n > 0 {
		p.cond.Broadcast()
	}
	return n
}

// GenerateBatch blocks until at least one sentence is enqueued or the pool
// has been shut down. On shutdown with nothing left enqueued, it returns an
// empty Batch and shuttingDown=true — the worker's poison signal.
//
// Otherwise it pops the next ready model and batch from the aggregate pool.
// If that model still has sentences queued after this draw, it is
// re-enqueued so it gets a future turn, preserving round-robin fairness
// across models sharing this pool.
func (p *ThreadsafeBatchingPool[T, PT]) GenerateBatch() (model PT, b *Batch, shuttingDown bool) {
	p.mu.Lock()
	for p.enqueued == 0 && !p.shutdown {
		p.cond.Wait()
	}
	if p.enqueued == 0 && p.shutdown {
		p.mu.Unlock()
		return nil, &Batch{}, true
	}

	m, batch, ok := p.inner.GenerateBatch()
	if !ok {
		// Invariant violation: enqueued > 0 implies some live model is in
		// the FIFO. Surface an empty, non-poison batch rather than block
		// forever or panic.
		p.mu.Unlock()
		return nil, &Batch{}, false
	}

	p.enqueued -= len(batch.Sentences)
	if m.Pool().Depth() > 0 {
		p.inner.Requeue(m)
	}
	p.mu.Unlock()

	return m, batch, false
}

// Shutdown marks the pool as shutting down and wakes every blocked
// consumer. Idempotent.
func (p *ThreadsafeBatchingPool[T, PT]) Shutdown() {
	p.mu.Lock()
	p.shutdown = true
	p.mu.Unlock()
	p.cond.Broadcast()
}
