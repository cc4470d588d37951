package app

import (
	"context"
	"testing"

	"github.com/bergamot-go/bergamot/internal/config"
	"github.com/bergamot-go/bergamot/pkg/provider/llm"
)

type stubLLM struct{}

func (stubLLM) StreamCompletion(_ context.Context, _ llm.CompletionRequest) (<-chan llm.Chunk, error) {
	ch := make(chan llm.Chunk)
	close(ch)
	return ch, nil
}
func (stubLLM) Complete(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{}, nil
}
func (stubLLM) CountTokens(_ []llm.Message) (int, error) { return 0, nil }
func (stubLLM) Capabilities() llm.ModelCapabilities      { return llm.ModelCapabilities{} }

func newTestRegistry() *config.Registry {
	reg := config.NewRegistry()
	reg.RegisterLLM("stub", func(config.ProviderEntry) (llm.Provider, error) {
		return stubLLM{}, nil
	})
	return reg
}

func TestNew_RequiresLLMProvider(t *testing.T) {
	cfg := &config.Config{}
	_, err := New(context.Background(), cfg, newTestRegistry(), nil)
	if err == nil {
		t.Fatal("expected error when llm.name is empty")
	}
}

func TestNew_UnregisteredLLMProvider(t *testing.T) {
	cfg := &config.Config{LLM: config.ProviderEntry{Name: "not-registered"}}
	_, err := New(context.Background(), cfg, newTestRegistry(), nil)
	if err == nil {
		t.Fatal("expected error for unregistered llm provider")
	}
}

func TestNew_BuildsModelsAndLookup(t *testing.T) {
	cfg := &config.Config{
		LLM: config.ProviderEntry{Name: "stub"},
		Models: []config.ModelConfig{
			{Name: "en-de", MaxLengthBreak: 128, MiniBatchWords: 4096, Replicas: 1},
			{Name: "en-fr", MaxLengthBreak: 64, MiniBatchWords: 2048, Replicas: 2},
		},
	}
	a, err := New(context.Background(), cfg, newTestRegistry(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Semantic != nil {
		t.Error("expected Semantic to be nil when no postgres DSN is configured")
	}

	m, ok := a.Lookup("en-de")
	if !ok || m == nil {
		t.Fatal("expected Lookup(\"en-de\") to succeed")
	}
	if m.Config.Replicas != 1 {
		t.Errorf("expected en-de Replicas=1, got %d", m.Config.Replicas)
	}

	if _, ok := a.Lookup("unknown"); ok {
		t.Error("expected Lookup of an unconfigured model to fail")
	}

	if err := a.Shutdown(context.Background()); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
	// Shutdown must be idempotent.
	if err := a.Shutdown(context.Background()); err != nil {
		t.Errorf("second shutdown call returned error: %v", err)
	}
}

func TestNew_SemanticCacheRequiresEmbeddings(t *testing.T) {
	cfg := &config.Config{
		LLM: config.ProviderEntry{Name: "stub"},
		Cache: config.CacheConfig{
			Semantic: config.SemanticCacheConfig{PostgresDSN: "postgres://example/db"},
		},
	}
	_, err := New(context.Background(), cfg, newTestRegistry(), nil)
	if err == nil {
		t.Fatal("expected error when semantic cache DSN is set but embeddings.name is empty")
	}
}

func TestBuildExactCache_ShardedWhenConfigured(t *testing.T) {
	c := buildExactCache(config.CacheConfig{Shards: 4})
	if c == nil {
		t.Fatal("expected non-nil cache")
	}
}

func TestBuildExactCache_LRUDefaultWhenUnconfigured(t *testing.T) {
	c := buildExactCache(config.CacheConfig{})
	if c == nil {
		t.Fatal("expected non-nil default LRU cache")
	}
}

func TestBuildModels_RejectsInvalidReplicas(t *testing.T) {
	_, err := buildModels([]config.ModelConfig{
		{Name: "en-de", MaxLengthBreak: 128, MiniBatchWords: 4096, Replicas: 0},
	})
	if err == nil {
		t.Fatal("expected error for Replicas < 1")
	}
}

func TestBuildModels_RejectsMaxLengthBreakExceedingBatchWords(t *testing.T) {
	_, err := buildModels([]config.ModelConfig{
		{Name: "en-de", MaxLengthBreak: 8192, MiniBatchWords: 1024, Replicas: 1},
	})
	if err == nil {
		t.Fatal("expected error when MaxLengthBreak exceeds MiniBatchWords")
	}
}
