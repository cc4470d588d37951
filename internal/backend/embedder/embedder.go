// Package embedder wraps an embeddings.Provider behind a circuit breaker, the
// same resilience shape internal/backend/llmengine gives the LLM
// collaborator. It is the embedding backend consulted by the semantic cache
// before a remote pgvector fuzzy lookup is attempted.
package embedder

import (
	"context"
	"fmt"

	"github.com/bergamot-go/bergamot/internal/resilience"
	"github.com/bergamot-go/bergamot/pkg/provider/embeddings"
)

// Embedder adapts an embeddings.Provider into a single-sentence embedding
// source guarded by a circuit breaker, so a flaky remote embeddings backend
// degrades to "semantic cache unavailable" instead of hanging a caller.
type Embedder struct {
	provider embeddings.Provider
	breaker  *resilience.CircuitBreaker
}

// New wraps provider behind a circuit breaker configured with cfg.
func New(provider embeddings.Provider, cfg resilience.CircuitBreakerConfig) *Embedder {
	return &Embedder{
		provider: provider,
		breaker:  resilience.NewCircuitBreaker(cfg),
	}
}

// Embed computes the embedding vector for text, routed through the circuit
// breaker. Returns resilience.ErrCircuitOpen without calling the underlying
// provider if the breaker is open.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := e.breaker.Execute(func() error {
		var callErr error
		vec, callErr = e.provider.Embed(ctx, text)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("embedder: embed: %w", err)
	}
	return vec, nil
}

// EmbedBatch computes embedding vectors for texts in one provider call,
// routed through the circuit breaker as a single unit of work.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vecs [][]float32
	err := e.breaker.Execute(func() error {
		var callErr error
		vecs, callErr = e.provider.EmbedBatch(ctx, texts)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("embedder: embed batch: %w", err)
	}
	return vecs, nil
}

// Dimensions returns the underlying provider's embedding dimensionality.
func (e *Embedder) Dimensions() int {
	return e.provider.Dimensions()
}

// ModelID returns the underlying provider's model identifier.
func (e *Embedder) ModelID() string {
	return e.provider.ModelID()
}

// Compile-time interface assertion.
var _ embeddings.Provider = (*Embedder)(nil)
