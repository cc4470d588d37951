package batch

import (
	"runtime"
	"testing"
)

type testModel struct {
	name string
	pool *BatchingPool
}

func (m *testModel) Pool() *BatchingPool { return m.pool }

func TestAggregateEnqueueAndGenerate(t *testing.T) {
	agg := NewAggregateBatchingPool[testModel, *testModel]()
	m := &testModel{name: "en-de", pool: NewBatchingPool(8, 100)}
	req := newTestRequest(t, 1, 4, 4)

	n := agg.EnqueueRequest(m, req)
	if n != 2 {
		t.Fatalf("EnqueueRequest() = %d, want 2", n)
	}

	got, b, ok := agg.GenerateBatch()
	if !ok {
		t.Fatal("GenerateBatch() ok = false, want true")
	}
	if got != m {
		t.Fatal("GenerateBatch() returned a different model")
	}
	if b.Len() != 2 {
		t.Fatalf("batch Len() = %d, want 2", b.Len())
	}
}

func TestAggregateEmptyFIFOReturnsNotOK(t *testing.T) {
	agg := NewAggregateBatchingPool[testModel, *testModel]()
	_, _, ok := agg.GenerateBatch()
	if ok {
		t.Fatal("expected ok=false on an empty aggregate pool")
	}
}

func TestAggregateRoundRobinsModels(t *testing.T) {
	agg := NewAggregateBatchingPool[testModel, *testModel]()
	a := &testModel{name: "a", pool: NewBatchingPool(8, 100)}
	b := &testModel{name: "b", pool: NewBatchingPool(8, 100)}

	agg.EnqueueRequest(a, newTestRequest(t, 1, 4))
	agg.EnqueueRequest(b, newTestRequest(t, 2, 4))

	first, _, ok := agg.GenerateBatch()
	if !ok {
		t.Fatal("expected ok=true")
	}
	if first != a {
		t.Fatalf("expected model a to be served first (FIFO order), got %s", first.name)
	}

	second, _, ok := agg.GenerateBatch()
	if !ok {
		t.Fatal("expected ok=true")
	}
	if second != b {
		t.Fatalf("expected model b second, got %s", second.name)
	}
}

func TestAggregateSkipsDroppedModel(t *testing.T) {
	agg := NewAggregateBatchingPool[testModel, *testModel]()

	func() {
		m := &testModel{name: "ephemeral", pool: NewBatchingPool(8, 100)}
		agg.EnqueueRequest(m, newTestRequest(t, 1, 4))
	}() // m goes out of scope here with no other strong references.

	runtime.GC()

	live := &testModel{name: "durable", pool: NewBatchingPool(8, 100)}
	agg.EnqueueRequest(live, newTestRequest(t, 2, 4))

	runtime.GC()

	m, _, ok := agg.GenerateBatch()
	if !ok {
		t.Fatal("expected ok=true after skipping the dropped model")
	}
	if m != live {
		t.Fatalf("expected the durable model to be returned, got %v", m)
	}
}
