package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/juris/core"
	"github.com/poiesic/juris/index"
)

// indexProcessor publishes stored decisions to the vector index.
type indexProcessor struct {
	index  index.Index
	logger *slog.Logger
}

var _ processor = (*indexProcessor)(nil)

func newIndexProcessor(idx index.Index, logger *slog.Logger) (processor, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &indexProcessor{
		index:  idx,
		logger: logger.With("processor", "index"),
	}, nil
}

func (ip *indexProcessor) process(ctx context.Context, decisions []*core.LegalDecision) error {
	vectors := make([][]float32, 0, len(decisions))
	ids := make([]core.ID, 0, len(decisions))
	for _, d := range decisions {
		if len(d.Embedding) == 0 {
			continue
		}
		vectors = append(vectors, d.Embedding)
		ids = append(ids, d.Id)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := ip.index.Add(ctx, vectors, ids); err != nil {
		return fmt.Errorf("indexing %d decisions: %w", len(ids), err)
	}
	ip.logger.Debug("indexed decisions", "count", len(ids))
	return nil
}
