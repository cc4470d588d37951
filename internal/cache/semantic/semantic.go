// Package semantic implements an optional, persistent fuzzy translation
// cache tier backed by Postgres and pgvector, sitting behind the in-process
// exact caches (internal/translate/cache). Where the exact caches require a
// bit-identical token sequence to hit, this tier serves near-duplicate
// source sentences — common in retranslation-after-edit workloads — via
// cosine similarity over sentence embeddings.
//
// This tier is explicitly non-bit-identical: a hit here is a best-effort
// match, never a guarantee that the served artifact was produced for the
// exact input text. Callers that require exact-match semantics must consult
// the in-process caches first and only fall back to this tier afterward.
package semantic

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/bergamot-go/bergamot/internal/translate/artifact"
	"github.com/bergamot-go/bergamot/internal/translate/cache"
)

// Embedder computes a dense embedding vector for a sentence. Satisfied by
// both pkg/provider/embeddings.Provider and internal/backend/embedder.Embedder.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Cache is a pgvector-backed near-duplicate translation cache. A nil *Cache
// is not valid; use New.
type Cache struct {
	pool      *pgxpool.Pool
	embedder  Embedder
	threshold float64
}

// Config configures a semantic Cache.
type Config struct {
	// Threshold is the maximum cosine distance (0 = identical, 2 =
	// opposite) for a stored entry to be served as a near-duplicate hit.
	Threshold float64
}

// New returns a Cache backed by pool, using embedder to compute sentence
// embeddings. The caller owns pool's lifecycle.
func New(pool *pgxpool.Pool, embedder Embedder, cfg Config) *Cache {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = 0.05
	}
	return &Cache{pool: pool, embedder: embedder, threshold: threshold}
}

// EnsureSchema creates the backing table and its ivfflat index if they do
// not already exist. dimensions must match the embedder's vector length.
func (c *Cache) EnsureSchema(ctx context.Context, dimensions int) error {
	_, err := c.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS translation_cache_semantic (
			cache_key    bytea PRIMARY KEY,
			source_text  text NOT NULL,
			embedding    vector(%d) NOT NULL,
			artifact     bytea NOT NULL
		)`, dimensions))
	if err != nil {
		return fmt.Errorf("semantic: ensure schema: %w", err)
	}
	_, err = c.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS translation_cache_semantic_embedding_idx
		ON translation_cache_semantic
		USING ivfflat (embedding vector_cosine_ops)`)
	if err != nil {
		return fmt.Errorf("semantic: ensure index: %w", err)
	}
	return nil
}

// Lookup embeds sourceText and returns the artifact stored for the closest
// previously-cached sentence, if its cosine distance is within the
// configured threshold. The second return value reports whether a
// sufficiently close match was found.
func (c *Cache) Lookup(ctx context.Context, sourceText string) (*artifact.Artifact, bool, error) {
	vec, err := c.embedder.Embed(ctx, sourceText)
	if err != nil {
		return nil, false, fmt.Errorf("semantic: embed lookup text: %w", err)
	}

	rows, err := c.pool.Query(ctx, `
		SELECT artifact, embedding <=> $1 AS distance
		FROM translation_cache_semantic
		ORDER BY distance
		LIMIT 1`, pgvector.NewVector(vec))
	if err != nil {
		return nil, false, fmt.Errorf("semantic: query: %w", err)
	}

	type match struct {
		Artifact []byte
		Distance float64
	}
	matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (match, error) {
		var m match
		err := row.Scan(&m.Artifact, &m.Distance)
		return m, err
	})
	if err != nil {
		return nil, false, fmt.Errorf("semantic: collect rows: %w", err)
	}
	if len(matches) == 0 || matches[0].Distance > c.threshold {
		return nil, false, nil
	}

	art, err := artifact.FromBytes(matches[0].Artifact)
	if err != nil {
		return nil, false, fmt.Errorf("semantic: decode cached artifact: %w", err)
	}
	return art, true, nil
}

// Store embeds sourceText and upserts its artifact under key, keyed
// additionally by cache_key for idempotent re-stores of the exact same
// source sentence.
func (c *Cache) Store(ctx context.Context, sourceText string, key cache.Key, art *artifact.Artifact) error {
	vec, err := c.embedder.Embed(ctx, sourceText)
	if err != nil {
		return fmt.Errorf("semantic: embed store text: %w", err)
	}
	blob := art.ToBytes()

	_, err = c.pool.Exec(ctx, `
		INSERT INTO translation_cache_semantic (cache_key, source_text, embedding, artifact)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cache_key) DO UPDATE
		SET source_text = EXCLUDED.source_text,
		    embedding = EXCLUDED.embedding,
		    artifact = EXCLUDED.artifact`,
		key.Bytes(), sourceText, pgvector.NewVector(vec), blob)
	if err != nil {
		return fmt.Errorf("semantic: upsert: %w", err)
	}
	return nil
}

// ErrNotConfigured signals that no Postgres DSN has been supplied, so the
// semantic tier is skipped rather than treated as a hard failure. Nothing in
// this module returns it: internal/app leaves the tier disabled and returns
// no error when the DSN is empty.
var ErrNotConfigured = errors.New("semantic: no postgres dsn configured")
