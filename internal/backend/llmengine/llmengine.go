// Package llmengine adapts a chat-completion-style llm.Provider into the
// translation fabric's inference.Collaborator contract, for deployments
// without a native beam-search engine wired in.
package llmengine

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/bergamot-go/bergamot/internal/qe/heuristic"
	"github.com/bergamot-go/bergamot/internal/resilience"
	"github.com/bergamot-go/bergamot/internal/translate/artifact"
	"github.com/bergamot-go/bergamot/internal/translate/batch"
	"github.com/bergamot-go/bergamot/internal/translate/model"
	"github.com/bergamot-go/bergamot/pkg/provider/llm"
	"github.com/bergamot-go/bergamot/pkg/types"
)

// Collaborator drives an llm.Provider chat-completion backend, one call per
// sentence, concurrently within a batch. It expects the model's Config.Name
// to be a "source-target" language pair (e.g. "en-de"); the pair is used
// only to fill in the translation prompt template.
type Collaborator struct {
	provider llm.Provider
	breaker  *resilience.CircuitBreaker

	// Temperature is forwarded to every completion request. Zero requests
	// greedy decoding, the appropriate default for translation.
	Temperature float64
}

// New wraps provider behind a circuit breaker configured with cfg. cfg.Name
// is used only for log messages and state reporting.
func New(provider llm.Provider, cfg resilience.CircuitBreakerConfig) *Collaborator {
	return &Collaborator{
		provider: provider,
		breaker:  resilience.NewCircuitBreaker(cfg),
	}
}

// TranslateBatch implements inference.Collaborator. Every sentence in b is
// translated concurrently via an independent chat-completion call; if any
// call fails (including a circuit-open rejection) the whole batch fails,
// per the infallible-collaborator contract.
func (c *Collaborator) TranslateBatch(ctx context.Context, _ int, m *model.TranslationModel, b *batch.Batch) ([]*artifact.Artifact, error) {
	src, tgt := languagePair(m.Config.Name)

	arts := make([]*artifact.Artifact, len(b.Sentences))
	g, gctx := errgroup.WithContext(ctx)
	for i, rs := range b.Sentences {
		i, rs := i, rs
		g.Go(func() error {
			sourceText, _ := m.Processor.Vocab().DecodeWithByteRanges(rs.Req.Segments[rs.Index])

			var resp *llm.CompletionResponse
			err := c.breaker.Execute(func() error {
				var callErr error
				resp, callErr = c.provider.Complete(gctx, llm.CompletionRequest{
					SystemPrompt: translationSystemPrompt(src, tgt),
					Messages: []types.Message{
						{Role: "user", Content: sourceText},
					},
					Temperature: c.Temperature,
				})
				return callErr
			})
			if err != nil {
				return fmt.Errorf("llmengine: translate sentence %d of batch %d: %w", rs.Index, b.ID, err)
			}

			translated := strings.TrimSpace(resp.Content)
			targetIDs, _ := m.TargetVocab.EncodeWithByteRanges(translated, true)
			arts[i] = &artifact.Artifact{
				TargetIDs:     targetIDs,
				SentenceScore: heuristic.Score(sourceText, translated),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return arts, nil
}

// translationSystemPrompt builds the instruction sent as the system message.
// src/tgt are whatever substrings languagePair extracted from the model
// name; an empty pair degrades to a language-agnostic instruction.
func translationSystemPrompt(src, tgt string) string {
	if src == "" || tgt == "" {
		return "Translate the user's message. Respond with only the translation, no commentary."
	}
	return fmt.Sprintf("Translate the user's message from %s to %s. Respond with only the translation, no commentary.", src, tgt)
}

// languagePair splits a "src-tgt" model name at its first hyphen; anything
// after that hyphen (further hyphens included) is the target half. Returns
// ("", "") if name has no hyphen or either half is empty.
func languagePair(name string) (src, tgt string) {
	before, after, found := strings.Cut(name, "-")
	if !found || before == "" || after == "" {
		return "", ""
	}
	return before, after
}
