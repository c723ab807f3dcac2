package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/juris/cache"
	"github.com/poiesic/juris/core"
	"github.com/poiesic/juris/embedding"
	"github.com/poiesic/juris/index"
	"github.com/poiesic/juris/storage"
)

// Pipeline orchestrates the ingestion of legal decisions.
type Pipeline struct {
	repository storage.DecisionRepository
	pool       *ants.Pool
	refProc    processor
	embedProc  processor
	indexProc  processor
	cache      *cache.Layer
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for asynchronous ingestion.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "ingestion")
		return nil
	}
}

// WithCache invalidates cached search results and analyses after every
// ingestion.
func WithCache(layer *cache.Layer) Option {
	return func(p *Pipeline) error {
		p.cache = layer
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	gen *embedding.Generator,
	repository storage.DecisionRepository,
	idx index.Index,
	opts ...Option,
) (*Pipeline, error) {
	if gen == nil {
		return nil, ErrGeneratorRequired
	}
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}

	p := &Pipeline{
		repository: repository,
		logger:     slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	if p.pool == nil {
		pool, err := ants.NewPool(max(1, runtime.NumCPU()/2))
		if err != nil {
			return nil, err
		}
		p.pool = pool
	}

	// Processors are created after options so they get the final logger.
	embedProc, err := newEmbeddingProcessor(gen, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	indexProc, err := newIndexProcessor(idx, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.refProc = newReferenceProcessor(p.logger)
	p.embedProc = embedProc
	p.indexProc = indexProc

	return p, nil
}

// Ingest validates, embeds, stores and indexes decisions. Decisions are
// modified in place: ids are derived from process numbers, and missing legal
// references and embeddings are filled in. Nothing is stored if validation or embedding
// fails. An indexing failure is logged and does not fail the ingestion.
func (p *Pipeline) Ingest(ctx context.Context, decisions ...*core.LegalDecision) ([]*core.LegalDecision, error) {
	if len(decisions) == 0 {
		return nil, nil
	}

	for i, d := range decisions {
		if err := core.ValidateDecision(d); err != nil {
			return nil, fmt.Errorf("decision %d: %w", i, err)
		}
		if d.Id == 0 {
			d.Id = core.IDFromContent(d.ProcessNumber)
		}
	}

	if err := p.refProc.process(ctx, decisions); err != nil {
		return nil, err
	}
	if err := p.embedProc.process(ctx, decisions); err != nil {
		return nil, err
	}

	added, err := p.repository.AddDecisions(ctx, decisions...)
	if err != nil {
		p.logger.Error("error storing decisions", "count", len(decisions), "err", err)
		return nil, err
	}

	if err := p.indexProc.process(ctx, added); err != nil {
		p.logger.Error("error indexing decisions; rebuild the index to recover", "count", len(added), "err", err)
	}

	if p.cache != nil {
		p.cache.InvalidateSearch(ctx)
		p.cache.InvalidateAnalyses(ctx)
	}

	p.logger.Info("ingested decisions", "count", len(added))
	return added, nil
}

// IngestAsync submits decisions for ingestion on the worker pool and returns
// immediately. done, if not nil, receives the outcome. Errors are logged
// either way.
func (p *Pipeline) IngestAsync(decisions []*core.LegalDecision, done func([]*core.LegalDecision, error)) error {
	return p.pool.Submit(func() {
		added, err := p.Ingest(context.Background(), decisions...)
		if err != nil {
			p.logger.Error("error ingesting decisions", "count", len(decisions), "err", err)
		}
		if done != nil {
			done(added, err)
		}
	})
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
