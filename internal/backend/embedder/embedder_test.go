package embedder

import (
	"context"
	"errors"
	"testing"

	"github.com/bergamot-go/bergamot/internal/resilience"
	"github.com/bergamot-go/bergamot/pkg/provider/embeddings/mock"
)

func TestEmbedder_Embed_Success(t *testing.T) {
	p := &mock.Provider{EmbedResult: []float32{0.1, 0.2, 0.3}}
	e := New(p, resilience.CircuitBreakerConfig{MaxFailures: 3})

	vec, err := e.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("len(vec) = %d, want 3", len(vec))
	}
	if len(p.EmbedCalls) != 1 || p.EmbedCalls[0].Text != "hello world" {
		t.Fatalf("unexpected EmbedCalls: %+v", p.EmbedCalls)
	}
}

func TestEmbedder_Embed_PropagatesError(t *testing.T) {
	p := &mock.Provider{EmbedErr: errors.New("backend down")}
	e := New(p, resilience.CircuitBreakerConfig{MaxFailures: 3})

	_, err := e.Embed(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestEmbedder_Embed_OpensCircuitAfterRepeatedFailures(t *testing.T) {
	p := &mock.Provider{EmbedErr: errors.New("backend down")}
	e := New(p, resilience.CircuitBreakerConfig{MaxFailures: 2})

	for i := 0; i < 2; i++ {
		if _, err := e.Embed(context.Background(), "hello"); err == nil {
			t.Fatal("expected an error")
		}
	}

	callsBefore := len(p.EmbedCalls)
	if _, err := e.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("expected circuit-open error")
	}
	if len(p.EmbedCalls) != callsBefore {
		t.Fatal("provider should not be called while circuit is open")
	}
}

func TestEmbedder_EmbedBatch(t *testing.T) {
	p := &mock.Provider{
		EmbedBatchResult: [][]float32{{0.1}, {0.2}},
	}
	e := New(p, resilience.CircuitBreakerConfig{MaxFailures: 3})

	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("len(vecs) = %d, want 2", len(vecs))
	}
}

func TestEmbedder_DimensionsAndModelID(t *testing.T) {
	p := &mock.Provider{DimensionsValue: 1536, ModelIDValue: "text-embedding-3-small"}
	e := New(p, resilience.CircuitBreakerConfig{})

	if got := e.Dimensions(); got != 1536 {
		t.Errorf("Dimensions() = %d, want 1536", got)
	}
	if got := e.ModelID(); got != "text-embedding-3-small" {
		t.Errorf("ModelID() = %q, want text-embedding-3-small", got)
	}
}
