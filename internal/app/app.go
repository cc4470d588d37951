// Package app wires the translation fabric's subsystems into a running
// application, shared by every front end (cmd/translate-server,
// cmd/translate-mcp, cmd/translate-bot).
//
// App owns the full lifecycle: New creates and connects all subsystems,
// Shutdown tears them down in order. Front ends differ only in which
// transport they layer on top of App's Lookup/Service/Semantic.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bergamot-go/bergamot/internal/backend/embedder"
	"github.com/bergamot-go/bergamot/internal/backend/llmengine"
	"github.com/bergamot-go/bergamot/internal/cache/semantic"
	"github.com/bergamot-go/bergamot/internal/config"
	"github.com/bergamot-go/bergamot/internal/resilience"
	translatecache "github.com/bergamot-go/bergamot/internal/translate/cache"
	"github.com/bergamot-go/bergamot/internal/translate/model"
	"github.com/bergamot-go/bergamot/internal/translate/service"
	"github.com/bergamot-go/bergamot/internal/translate/textproc/sentsplit"
	"github.com/bergamot-go/bergamot/internal/translate/textproc/wordvocab"
	"github.com/jackc/pgx/v5/pgxpool"
)

// App holds every subsystem a front end needs to serve translations.
type App struct {
	cfg *config.Config

	Service  *service.AsyncService
	Models   map[string]*model.TranslationModel
	Semantic *semantic.Cache // nil when no Postgres DSN was configured

	closers  []func() error
	stopOnce sync.Once
}

// New builds an App from cfg, instantiating providers through reg. reg
// should already have every provider factory this deployment needs
// registered (see RegisterDefaultProviders).
func New(ctx context.Context, cfg *config.Config, reg *config.Registry, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{cfg: cfg}

	collaborator, err := a.buildCollaborator(cfg, reg)
	if err != nil {
		return nil, fmt.Errorf("app: build collaborator: %w", err)
	}

	exactCache := buildExactCache(cfg.Cache)

	a.Service = service.New(cfg.Server.Workers, collaborator, exactCache, logger)
	a.closers = append(a.closers, func() error { a.Service.Shutdown(); return nil })

	if err := a.buildSemanticCache(ctx, cfg, reg); err != nil {
		return nil, fmt.Errorf("app: build semantic cache: %w", err)
	}

	models, err := buildModels(cfg.Models)
	if err != nil {
		return nil, fmt.Errorf("app: build models: %w", err)
	}
	a.Models = models

	return a, nil
}

// Lookup resolves a configured model name to a ready TranslationModel. It
// satisfies wsapi.ModelLookup and the equivalent lookup used by
// cmd/translate-mcp and cmd/translate-bot.
func (a *App) Lookup(name string) (*model.TranslationModel, bool) {
	m, ok := a.Models[name]
	return m, ok
}

// buildCollaborator constructs the LLM-backed inference collaborator from
// cfg.LLM, wrapped in a circuit breaker. Returns an error if no LLM
// provider is configured — a translation fabric cannot serve requests
// without one, unlike the optional embeddings/semantic-cache path.
func (a *App) buildCollaborator(cfg *config.Config, reg *config.Registry) (*llmengine.Collaborator, error) {
	if cfg.LLM.Name == "" {
		return nil, errors.New("llm provider is required (config: llm.name)")
	}
	provider, err := reg.CreateLLM(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("create llm provider %q: %w", cfg.LLM.Name, err)
	}
	return llmengine.New(provider, resilience.CircuitBreakerConfig{Name: "llm:" + cfg.LLM.Name}), nil
}

// buildExactCache returns the in-process exact cache selected by cfg:
// sharded when Shards > 0, LRU otherwise. A zero CacheConfig yields a
// reasonably sized default LRU cache rather than no cache at all.
func buildExactCache(cfg config.CacheConfig) translatecache.Cache {
	if cfg.Shards > 0 {
		return translatecache.NewShardedCache(cfg.Shards)
	}
	limit := cfg.LRUCapacity
	if limit <= 0 {
		limit = 64 << 20 // 64 MiB
	}
	return translatecache.NewLRUCache(int64(limit))
}

// buildSemanticCache wires the optional pgvector-backed fuzzy cache tier
// when cfg.Cache.Semantic.PostgresDSN is set. Leaves a.Semantic nil
// otherwise — callers must treat that as "tier disabled", not an error.
func (a *App) buildSemanticCache(ctx context.Context, cfg *config.Config, reg *config.Registry) error {
	dsn := cfg.Cache.Semantic.PostgresDSN
	if dsn == "" {
		return nil
	}
	if cfg.Embeddings.Name == "" {
		return errors.New("cache.semantic.postgres_dsn is set but embeddings.name is empty")
	}

	embProvider, err := reg.CreateEmbeddings(cfg.Embeddings)
	if err != nil {
		return fmt.Errorf("create embeddings provider %q: %w", cfg.Embeddings.Name, err)
	}
	emb := embedder.New(embProvider, resilience.CircuitBreakerConfig{Name: "embeddings:" + cfg.Embeddings.Name})

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	a.closers = append(a.closers, func() error { pool.Close(); return nil })

	sem := semantic.New(pool, emb, semantic.Config{Threshold: cfg.Cache.Semantic.Threshold})
	if err := sem.EnsureSchema(ctx, emb.Dimensions()); err != nil {
		return fmt.Errorf("ensure semantic cache schema: %w", err)
	}
	a.Semantic = sem
	return nil
}

// buildModels constructs one TranslationModel per configured language pair.
// splitter/vocab are wordvocab/sentsplit's process-lifetime defaults,
// adequate for the LLM-backed collaborator path (see their doc comments);
// a deployment with a native beam-search engine would instead supply its
// own trained Splitter/Vocab collaborators.
func buildModels(cfgs []config.ModelConfig) (map[string]*model.TranslationModel, error) {
	splitter := sentsplit.Splitter{}
	models := make(map[string]*model.TranslationModel, len(cfgs))
	for _, mc := range cfgs {
		sourceVocab := wordvocab.New()
		targetVocab := wordvocab.New()
		m, err := model.New(model.Config{
			Name:           mc.Name,
			MaxLengthBreak: mc.MaxLengthBreak,
			MiniBatchWords: mc.MiniBatchWords,
			Replicas:       mc.Replicas,
		}, splitter, sourceVocab, targetVocab)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", mc.Name, err)
		}
		models[mc.Name] = m
	}
	return models, nil
}

// Shutdown tears down every subsystem App created, in reverse-init order.
// Safe to call more than once; only the first call runs the closers.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		for i := len(a.closers) - 1; i >= 0; i-- {
			select {
			case <-ctx.Done():
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := a.closers[i](); err != nil {
				slog.Warn("app: closer error", "index", i, "err", err)
			}
		}
	})
	return shutdownErr
}
