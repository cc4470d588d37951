package batch

import "github.com/bergamot-go/bergamot/internal/translate/request"

// sentenceHeap implements container/heap.Interface as a min-heap ordered by
// request.RequestSentence's natural order: older requests first, then
// earlier sentence indices within a request. One sentenceHeap exists per
// token-length bucket in a BatchingPool.
type sentenceHeap []request.RequestSentence

func (h sentenceHeap) Len() int { return len(h) }

func (h sentenceHeap) Less(i, j int) bool { return h[i].Less(h[j]) }

func (h sentenceHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

// Push appends x to the heap. Called by container/heap.Push; callers must
// not invoke this directly.
func (h *sentenceHeap) Push(x any) {
	*h = append(*h, x.(request.RequestSentence))
}

// Pop removes and returns the last element. Called by container/heap.Pop;
// callers must not invoke this directly.
func (h *sentenceHeap) Pop() any {
	old := *h
	n := len(old)
	rs := old[n-1]
	*h = old[:n-1]
	return rs
}
