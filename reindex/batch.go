package reindex

import (
	"context"
	"fmt"

	"github.com/poiesic/juris/core"
	"github.com/poiesic/juris/embedding"
	"github.com/poiesic/juris/index"
	"github.com/poiesic/juris/storage"
)

// BatchOutcome counts what happened to one batch.
type BatchOutcome struct {
	Indexed    int
	Reembedded int
	// Skipped decisions have no embedding and were not reembedded.
	Skipped int
}

// BatchProcessor re-adds a batch of decisions to the index, optionally
// regenerating their embeddings first.
type BatchProcessor struct {
	repo    storage.DecisionRepository
	index   index.Index
	gen     *embedding.Generator
	reembed bool
}

// NewBatchProcessor creates a new batch processor. gen may be nil unless
// reembed is set.
func NewBatchProcessor(repo storage.DecisionRepository, idx index.Index, gen *embedding.Generator, reembed bool) *BatchProcessor {
	return &BatchProcessor{
		repo:    repo,
		index:   idx,
		gen:     gen,
		reembed: reembed,
	}
}

// Process indexes a batch. Reembedded decisions are written back to the store
// before they are indexed.
func (bp *BatchProcessor) Process(ctx context.Context, decisions []*core.LegalDecision) (BatchOutcome, error) {
	var outcome BatchOutcome
	if len(decisions) == 0 {
		return outcome, nil
	}

	if bp.reembed {
		texts := make([]string, len(decisions))
		for i, d := range decisions {
			texts[i] = d.EmbeddingText()
		}
		vectors, err := bp.gen.GenerateBatch(ctx, texts, embedding.GenerateOptions{Preprocess: true})
		if err != nil {
			return outcome, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		for i, d := range decisions {
			d.Embedding = vectors[i]
		}
		if _, err := bp.repo.UpdateDecisions(ctx, decisions...); err != nil {
			return outcome, fmt.Errorf("failed to update decisions: %w", err)
		}
		outcome.Reembedded = len(decisions)
	}

	vectors := make([][]float32, 0, len(decisions))
	ids := make([]core.ID, 0, len(decisions))
	for _, d := range decisions {
		if len(d.Embedding) == 0 {
			outcome.Skipped++
			continue
		}
		vectors = append(vectors, d.Embedding)
		ids = append(ids, d.Id)
	}
	if len(ids) == 0 {
		return outcome, nil
	}
	if err := bp.index.Add(ctx, vectors, ids); err != nil {
		return outcome, fmt.Errorf("failed to index decisions: %w", err)
	}
	outcome.Indexed = len(ids)
	return outcome, nil
}
