package ingestion

import (
	"context"
	"log/slog"
	"slices"

	"github.com/poiesic/juris/core"
	"github.com/poiesic/juris/textproc"
)

// referenceProcessor fills in the cited laws and articles of decisions that
// were submitted without legal references.
type referenceProcessor struct {
	logger *slog.Logger
}

var _ processor = (*referenceProcessor)(nil)

func newReferenceProcessor(logger *slog.Logger) processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &referenceProcessor{logger: logger.With("processor", "references")}
}

func (rp *referenceProcessor) process(_ context.Context, decisions []*core.LegalDecision) error {
	filled := 0
	for _, d := range decisions {
		if len(d.LegalReferences) > 0 {
			continue
		}
		entities := textproc.ExtractEntities(d.DecisionText)
		refs := slices.Concat(entities.Laws, entities.Articles)
		if len(refs) == 0 {
			continue
		}
		d.LegalReferences = refs
		filled++
	}
	if filled > 0 {
		rp.logger.Debug("extracted legal references", "count", filled)
	}
	return nil
}
