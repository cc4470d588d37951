// Package inference defines the required external inference-kernel
// contract (§6.1): beam search, scorer ensembles, shortlist, and graph
// execution all live behind this single interface, never inside the
// fabric itself.
package inference

import (
	"context"

	"github.com/bergamot-go/bergamot/internal/translate/artifact"
	"github.com/bergamot-go/bergamot/internal/translate/batch"
	"github.com/bergamot-go/bergamot/internal/translate/model"
)

// Collaborator computes a PerSentenceArtifact for every sentence in a
// batch. Sentences in a batch are ordered shortest first and may differ in
// token length; implementations may assume batch.Len() > 0.
//
// Per the error-handling design, per-sentence failure is out of scope:
// implementations that cannot produce an artifact for a sentence should
// return an error for the whole batch rather than a partial result, and
// callers (AsyncService) treat that as fatal.
//
// replicaID selects which of the model's R inference-state replicas this
// call should use; assignment is the caller's worker-thread index, so no
// two concurrent calls for the same model ever share a replicaID.
type Collaborator interface {
	TranslateBatch(ctx context.Context, replicaID int, m *model.TranslationModel, b *batch.Batch) ([]*artifact.Artifact, error)
}
