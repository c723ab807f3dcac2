package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/juris/core"
	"github.com/poiesic/juris/embedding"
)

// embeddingProcessor fills in missing decision embeddings.
type embeddingProcessor struct {
	gen    *embedding.Generator
	logger *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

func newEmbeddingProcessor(gen *embedding.Generator, logger *slog.Logger) (processor, error) {
	if gen == nil {
		return nil, ErrGeneratorRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		gen:    gen,
		logger: logger.With("processor", "embeddings"),
	}, nil
}

// process embeds the summary and text of every decision that has no
// embedding. Supplied embeddings must match the generator dimension.
func (ep *embeddingProcessor) process(ctx context.Context, decisions []*core.LegalDecision) error {
	var (
		pending []*core.LegalDecision
		texts   []string
	)
	for _, d := range decisions {
		if len(d.Embedding) > 0 {
			if err := core.ValidateEmbedding(d.Embedding, ep.gen.Dimension()); err != nil {
				return fmt.Errorf("%w: %s: %w", core.ErrInvalidDecision, d.ProcessNumber, err)
			}
			continue
		}
		pending = append(pending, d)
		texts = append(texts, d.EmbeddingText())
	}
	if len(pending) == 0 {
		return nil
	}

	ep.logger.Debug("generating embeddings for decisions", "count", len(pending))
	vectors, err := ep.gen.GenerateBatch(ctx, texts, embedding.GenerateOptions{Preprocess: true})
	if err != nil {
		ep.logger.Error("error generating embeddings", "err", err)
		return err
	}
	for i, d := range pending {
		d.Embedding = vectors[i]
	}
	return nil
}
