// Package service implements AsyncService: the worker threadpool and
// public translate/pivot surface that ties together text processing,
// batching, caching, the inference collaborator, and response building.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bergamot-go/bergamot/internal/translate/batch"
	"github.com/bergamot-go/bergamot/internal/translate/cache"
	"github.com/bergamot-go/bergamot/internal/translate/inference"
	"github.com/bergamot-go/bergamot/internal/translate/model"
	"github.com/bergamot-go/bergamot/internal/translate/request"
	"github.com/bergamot-go/bergamot/internal/translate/response"
	"github.com/bergamot-go/bergamot/internal/translate/textproc"
)

// Callback receives the completed Response. It fires inline on the worker
// goroutine that closed the request's last pending sentence. When the text
// yields no sentences, or every sentence is served from the cache, it fires
// inline on the goroutine that called Translate, before Translate returns.
// It must be short, or hand off to the caller's own executor.
type Callback func(*response.Response)

// AsyncService owns a worker goroutine pool and the threadsafe aggregate
// batching pool those workers drain. translate and pivot are safe to call
// from any number of producer goroutines simultaneously; shutdown drains
// pending requests before workers exit.
type AsyncService struct {
	logger       *slog.Logger
	pool         *batch.ThreadsafeBatchingPool[model.TranslationModel, *model.TranslationModel]
	collaborator inference.Collaborator
	cache        cache.Cache // optional; nil disables the request-path cache probe
	idGen        *request.IDGenerator

	wg sync.WaitGroup
}

// New spawns numWorkers worker goroutines, each looping on the shared
// batching pool until it is shut down. cache may be nil to disable
// per-sentence caching entirely.
func New(numWorkers int, collaborator inference.Collaborator, c cache.Cache, logger *slog.Logger) *AsyncService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &AsyncService{
		logger:       logger,
		pool:         batch.NewThreadsafeBatchingPool[model.TranslationModel, *model.TranslationModel](),
		collaborator: collaborator,
		cache:        c,
		idGen:        request.NewIDGenerator(),
	}

	s.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go s.worker(i)
	}
	return s
}

// worker repeatedly pulls a batch off the pool and hands it to the
// inference collaborator until the pool signals shutdown with an empty
// poison batch.
func (s *AsyncService) worker(replicaID int) {
	defer s.wg.Done()

	for {
		m, b, shuttingDown := s.pool.GenerateBatch()
		if b.Empty() {
			if shuttingDown {
				return
			}
			continue // spurious wake; re-check the condition
		}

		arts, err := s.collaborator.TranslateBatch(context.Background(), replicaID, m, b)
		if err != nil {
			// Per-sentence inference failure is a declared non-goal: the
			// collaborator is infallible at that granularity, so a batch-
			// level error here is treated as fatal rather than retried.
			s.logger.Error("translate batch failed", "model", m.Config.Name, "batch_id", b.ID, "error", err)
			panic(fmt.Errorf("service: model %q batch %d: %w", m.Config.Name, b.ID, err))
		}

		for i, rs := range b.Sentences {
			if s.cache != nil {
				s.cache.Insert(cache.NewKey(rs.Req.Segments[rs.Index]), arts[i])
			}
			rs.Fulfill(arts[i])
		}
	}
}

// Translate builds a Request from text using m's text processor, probes the
// cache for every sentence, enqueues whatever remains, and returns
// immediately. callback fires once, when every sentence has completed: on a
// worker goroutine, or inline before Translate returns if text is empty or
// all-whitespace, or if every sentence is a cache hit.
func (s *AsyncService) Translate(m *model.TranslationModel, text string, mode textproc.SplitMode, opts request.Options, callback Callback) error {
	src, segs, err := m.Processor.Process(text, mode)
	if err != nil {
		return fmt.Errorf("service: processing text for model %q: %w", m.Config.Name, err)
	}

	id, corrID := s.idGen.Next()
	req := request.New(id, corrID, src, segs, opts, func(r *request.Request) {
		callback(response.Build(r, m.TargetVocab))
	})

	if s.cache != nil {
		for i, seg := range segs {
			if art, ok := s.cache.Fetch(cache.NewKey(seg)); ok {
				req.Fulfill(i, art)
			}
		}
	}

	s.pool.EnqueueRequest(m, req)
	return nil
}

// Pivot translates text from modelA's source language through modelA's
// target language (the pivot language M) into modelB's target language,
// presenting a Response whose Source is the original A-language text and
// whose Target is the final B-language text — the intermediate M-language
// stage is never exposed to callback.
//
// The second stage is submitted as a brand-new Request with its own
// sequence id once the first stage completes, rather than inheriting the
// first request's priority; see the pivot-priority open question.
func (s *AsyncService) Pivot(modelA, modelB *model.TranslationModel, text string, mode textproc.SplitMode, opts request.Options, callback Callback) error {
	return s.Translate(modelA, text, mode, opts, func(stage1 *response.Response) {
		err := s.Translate(modelB, stage1.Target.Text, mode, opts, func(stage2 *response.Response) {
			callback(&response.Response{
				Source:        stage1.Source,
				Target:        stage2.Target,
				Alignments:    stage2.Alignments,
				QualityScores: stage2.QualityScores,
			})
		})
		if err != nil {
			s.logger.Error("pivot: second stage failed", "model", modelB.Config.Name, "error", err)
		}
	})
}

// CacheStats returns a snapshot of the shared cache's counters. Returns the
// zero value if no cache was configured.
func (s *AsyncService) CacheStats() cache.Stats {
	if s.cache == nil {
		return cache.Stats{}
	}
	return s.cache.Stats()
}

// Shutdown signals the batching pool to drain, waits for every worker
// goroutine to exit, and is idempotent.
func (s *AsyncService) Shutdown() {
	s.pool.Shutdown()
	s.wg.Wait()
}
