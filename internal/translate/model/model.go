// Package model defines TranslationModel: the configuration, text
// processor, and per-model batching pool that AsyncService schedules work
// onto. The neural inference kernel itself — the replicas that actually
// execute a batch — lives behind the inference.Collaborator contract, not
// in this package.
package model

import (
	"fmt"

	"github.com/bergamot-go/bergamot/internal/translate/batch"
	"github.com/bergamot-go/bergamot/internal/translate/textproc"
)

// Config is the static configuration of one TranslationModel.
type Config struct {
	// Name identifies the model in logs, metrics, and the MCP/Discord/
	// WebSocket front ends (e.g. "en-de", "en-es").
	Name string

	// MaxLengthBreak caps subword tokens per segment before hard-wrapping.
	MaxLengthBreak int

	// MiniBatchWords is the padded-token budget per generated batch.
	MiniBatchWords int

	// Replicas is the number of independent inference backend replicas
	// (R >= 1) the collaborator maintains for this model. AsyncService
	// assigns a batch to a replica by worker index; this package only
	// records the count for validation and introspection.
	Replicas int
}

// TranslationModel holds one language pair's configuration, text processor,
// target vocabulary, and batching pool. It satisfies
// batch.ModelPooler[TranslationModel] via Pool, so it can be enqueued
// directly into a batch.ThreadsafeBatchingPool.
type TranslationModel struct {
	Config      Config
	Processor   *textproc.TextProcessor
	TargetVocab textproc.Vocab

	pool *batch.BatchingPool
}

// New validates cfg and constructs a TranslationModel. splitter and
// sourceVocab are the sentence-splitter and tokenizer collaborators used to
// build the source-side text processor; targetVocab decodes the inference
// backend's output token ids back into target-language text.
func New(cfg Config, splitter textproc.Splitter, sourceVocab, targetVocab textproc.Vocab) (*TranslationModel, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("model: Config.Name must not be empty")
	}
	if cfg.Replicas < 1 {
		return nil, fmt.Errorf("model: Config.Replicas must be >= 1, got %d", cfg.Replicas)
	}

	processor, err := textproc.New(splitter, sourceVocab, cfg.MaxLengthBreak, cfg.MiniBatchWords)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", cfg.Name, err)
	}

	return &TranslationModel{
		Config:      cfg,
		Processor:   processor,
		TargetVocab: targetVocab,
		pool:        batch.NewBatchingPool(cfg.MaxLengthBreak, cfg.MiniBatchWords),
	}, nil
}

// Pool returns the model's own batching pool.
func (m *TranslationModel) Pool() *batch.BatchingPool { return m.pool }
