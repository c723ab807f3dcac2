// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package juris

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/juris/ai"
	"github.com/poiesic/juris/ai/gemini"
	"github.com/poiesic/juris/ai/local"
	"github.com/poiesic/juris/ai/ollama"
	"github.com/poiesic/juris/ai/openai"
	"github.com/poiesic/juris/blob"
	"github.com/poiesic/juris/cache"
	"github.com/poiesic/juris/config"
	"github.com/poiesic/juris/core"
	"github.com/poiesic/juris/embedding"
	"github.com/poiesic/juris/index"
	"github.com/poiesic/juris/ingestion"
	"github.com/poiesic/juris/reindex"
	"github.com/poiesic/juris/search"
	"github.com/poiesic/juris/similarity"
	"github.com/poiesic/juris/storage"
	"github.com/poiesic/juris/storage/badger"
	"github.com/poiesic/juris/storage/postgres"
)

// Engine owns every component built from a configuration.
type Engine struct {
	cfg       *config.Config
	provider  ai.Provider
	repo      storage.DecisionRepository
	layer     *cache.Layer
	index     index.Index
	generator *embedding.Generator
	engine    *similarity.Engine
	searcher  *search.Searcher
	pipeline  *ingestion.Pipeline
	logger    *slog.Logger

	closers []func() error
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	logger   *slog.Logger
	provider ai.Provider
	monitor  search.SearchMonitor
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithProvider replaces the provider selected by cfg.AI. The engine takes
// ownership and closes it.
func WithProvider(provider ai.Provider) Option {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithSearchMonitor observes every search stage.
func WithSearchMonitor(monitor search.SearchMonitor) Option {
	return func(o *engineOptions) {
		o.monitor = monitor
	}
}

// Open validates cfg and builds the engine. Any failure releases what was
// already opened.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	options := &engineOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:    cfg,
		logger: options.logger.With("component", "juris"),
	}
	if err := e.build(ctx, options); err != nil {
		if closeErr := e.Close(); closeErr != nil {
			e.logger.Error("error releasing partially opened engine", "err", closeErr)
		}
		return nil, core.Internal(err)
	}
	e.logger.Info("engine opened",
		"provider", e.provider.Name(),
		"model", e.generator.Model().Name,
		"store", cfg.Store.Backend,
		"index", cfg.Index.Backend)
	return e, nil
}

func (e *Engine) build(ctx context.Context, options *engineOptions) error {
	cfg := e.cfg
	logger := options.logger

	provider := options.provider
	if provider == nil {
		var err error
		if provider, err = newProvider(ctx, &cfg.AI); err != nil {
			return core.ConfigurationError("failed to create ai provider", err).
				WithDetail("provider", string(cfg.AI.Provider))
		}
	}
	e.provider = provider
	e.onClose(provider.Close)

	var completer ai.Completer
	if cfg.Search.Explanations {
		if completer = provider.Completer(); completer == nil {
			return core.ConfigurationError("relevance explanations need a completion backend",
				search.ErrExplanationsUnavailable).WithDetail("provider", provider.Name())
		}
	}

	if err := e.openStore(ctx); err != nil {
		return err
	}
	if err := e.openCache(logger); err != nil {
		return err
	}
	if err := e.openIndex(ctx, logger); err != nil {
		return err
	}

	genOpts := []embedding.Option{
		embedding.WithLogger(logger),
		embedding.WithCache(e.layer),
		embedding.WithModel(provider.Model()),
		embedding.WithRetry(cfg.Embedding.MaxAttempts, cfg.Embedding.BaseDelay, cfg.Embedding.MaxDelay),
		embedding.WithBatchSize(cfg.Embedding.BatchSize),
	}
	if selector, ok := provider.(ai.ModelSelector); ok {
		genOpts = append(genOpts, embedding.WithModelSelector(selector))
	}
	gen, err := embedding.NewGenerator(provider.Embedder(), genOpts...)
	if err != nil {
		return err
	}
	e.generator = gen

	engine, err := similarity.NewEngine(gen,
		similarity.WithLogger(logger),
		similarity.WithWeights(cfg.Similarity.Weights),
		similarity.WithMatchThreshold(cfg.Similarity.MatchThreshold))
	if err != nil {
		return err
	}
	e.engine = engine

	searchOpts := []search.Option{
		search.WithLogger(logger),
		search.WithCache(e.layer),
		search.WithDefaultThreshold(cfg.Search.Threshold),
		search.WithMaxResults(cfg.Search.MaxResults, cfg.Search.ResultLimit),
		search.WithMonitor(options.monitor),
	}
	if completer != nil {
		searchOpts = append(searchOpts, search.WithCompleter(completer))
	}
	if cfg.Search.PoolSize > 0 {
		searchOpts = append(searchOpts, search.WithPoolSize(cfg.Search.PoolSize))
	}
	searcher, err := search.NewSearcher(gen, e.index, e.repo, engine, searchOpts...)
	if err != nil {
		return err
	}
	e.searcher = searcher
	e.onClose(func() error { searcher.Release(); return nil })

	pipeOpts := []ingestion.Option{
		ingestion.WithLogger(logger),
		ingestion.WithCache(e.layer),
	}
	if cfg.Ingestion.PoolSize > 0 {
		pipeOpts = append(pipeOpts, ingestion.WithPoolSize(cfg.Ingestion.PoolSize))
	}
	pipeline, err := ingestion.NewPipeline(gen, e.repo, e.index, pipeOpts...)
	if err != nil {
		return err
	}
	e.pipeline = pipeline
	e.onClose(func() error { pipeline.Release(); return nil })

	return nil
}

func newProvider(ctx context.Context, cfg *ai.Config) (ai.Provider, error) {
	switch cfg.Provider {
	case ai.ProviderOpenAI:
		return openai.NewProvider(cfg)
	case ai.ProviderOllama:
		return ollama.NewProvider(cfg)
	case ai.ProviderGemini:
		return gemini.NewProvider(ctx, cfg)
	default:
		return local.NewProvider(cfg)
	}
}

func (e *Engine) openStore(ctx context.Context) error {
	sc := e.cfg.Store
	switch sc.Backend {
	case config.StorePostgres:
		repo, err := postgres.Open(ctx, sc.DSN, e.cfg.AI.Dimension)
		if err != nil {
			return core.ConfigurationError("failed to open postgres store", err)
		}
		e.repo = repo
		e.onClose(repo.Close)
	default:
		var (
			repo *badger.DecisionRepository
			err  error
		)
		if sc.InMemory {
			repo, err = badger.NewMemoryStore()
		} else {
			repo, err = badger.NewRepository(sc.Path)
		}
		if err != nil {
			return core.ConfigurationError("failed to open badger store", err).WithDetail("path", sc.Path)
		}
		e.repo = repo
		e.onClose(repo.Close)
	}
	return nil
}

// openCache shares the badger store's database unless the cache has its own
// path or the store is not badger.
func (e *Engine) openCache(logger *slog.Logger) error {
	cc := e.cfg.Cache
	var c cache.Cache = cache.Nop{}

	if cc.Backend == config.CacheBadger {
		cacheLogger := cache.WithLogger(logger)
		repo, shared := e.repo.(*badger.DecisionRepository)
		var (
			bc  *cache.BadgerCache
			err error
		)
		switch {
		case cc.Path != "":
			bc, err = cache.OpenBadgerCache(cc.Path, false, cacheLogger)
		case shared:
			bc, err = cache.NewBadgerCache(repo.Backend(), cacheLogger)
		default:
			bc, err = cache.OpenBadgerCache("", true, cacheLogger)
		}
		if err != nil {
			return core.ConfigurationError("failed to open cache", err)
		}
		c = bc
	}

	layer, err := cache.NewLayer(c, cc.TTL)
	if err != nil {
		_ = c.Close()
		return err
	}
	e.layer = layer
	e.onClose(c.Close)
	return nil
}

func (e *Engine) openIndex(ctx context.Context, logger *slog.Logger) error {
	ic := e.cfg.Index
	dim := e.cfg.AI.Dimension

	if ic.Backend == config.IndexPgvector {
		repo, ok := e.repo.(*postgres.Repository)
		if !ok {
			return core.ConfigurationError("invalid index configuration", config.ErrPgvectorStore)
		}
		idx, err := postgres.NewIndex(repo.Pool(), dim)
		if err != nil {
			return err
		}
		e.index = idx
		e.onClose(idx.Close)
		return nil
	}

	flatOpts := []index.FlatOption{index.WithLogger(logger)}
	if ic.Persist {
		store, err := blob.New(ctx, e.cfg.Blob)
		if err != nil {
			return core.ConfigurationError("failed to open blob store", err).
				WithDetail("kind", string(e.cfg.Blob.Kind))
		}
		flatOpts = append(flatOpts, index.WithStore(store, ic.Name))
	}
	idx, err := index.OpenFlatIndex(ctx, dim, flatOpts...)
	if err != nil {
		return err
	}
	e.index = idx
	e.onClose(idx.Close)
	return nil
}

func (e *Engine) onClose(fn func() error) {
	e.closers = append(e.closers, fn)
}

// Close releases every component in reverse order of creation and returns
// the joined errors.
func (e *Engine) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.logger.Error("error closing component", "err", err)
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

// Config returns the validated configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

func (e *Engine) Repository() storage.DecisionRepository {
	return e.repo
}

func (e *Engine) Index() index.Index {
	return e.index
}

func (e *Engine) Generator() *embedding.Generator {
	return e.generator
}

func (e *Engine) Similarity() *similarity.Engine {
	return e.engine
}

func (e *Engine) Searcher() *search.Searcher {
	return e.searcher
}

func (e *Engine) Pipeline() *ingestion.Pipeline {
	return e.pipeline
}

// Search ranks stored decisions against a free-text query.
func (e *Engine) Search(ctx context.Context, req search.SearchRequest) ([]*core.SearchResult, error) {
	results, err := e.searcher.Search(ctx, req)
	return results, core.Internal(err)
}

// CompareCases compares a base case with one or more others.
func (e *Engine) CompareCases(ctx context.Context, req search.CompareRequest) ([]*core.CaseSimilarityResult, error) {
	results, err := e.searcher.CompareCases(ctx, req)
	return results, core.Internal(err)
}

// FindPrecedents ranks stored decisions as precedents for a case.
func (e *Engine) FindPrecedents(ctx context.Context, req search.PrecedentRequest) ([]core.Precedent, error) {
	precedents, err := e.searcher.FindPrecedents(ctx, req)
	return precedents, core.Internal(err)
}

// StoredCase loads a stored decision by process number as a comparable case.
func (e *Engine) StoredCase(ctx context.Context, processNumber string) (core.CaseData, error) {
	d, err := e.repo.GetDecisionByProcessNumber(ctx, processNumber)
	if err != nil {
		return core.CaseData{}, core.Internal(err)
	}
	return d.CaseData(), nil
}

// Ingest stores and indexes decisions.
func (e *Engine) Ingest(ctx context.Context, decisions ...*core.LegalDecision) ([]*core.LegalDecision, error) {
	added, err := e.pipeline.Ingest(ctx, decisions...)
	return added, core.Internal(err)
}

// RebuildIndex repopulates the index from the store, optionally
// regenerating every embedding. Progress goes to w when it is not nil.
func (e *Engine) RebuildIndex(ctx context.Context, reembed bool, w io.Writer) (*reindex.Result, error) {
	rc := reindex.DefaultConfig()
	rc.BatchSize = e.cfg.Embedding.BatchSize
	rc.ReportInterval = e.cfg.Embedding.BatchSize
	rc.Reembed = reembed

	rebuilder, err := reindex.NewRebuilder(e.repo, e.index, e.generator, rc, w)
	if err != nil {
		return nil, core.Internal(err)
	}
	result, err := rebuilder.Run(ctx)
	if err != nil {
		return nil, core.Internal(err)
	}
	e.layer.InvalidateSearch(ctx)
	e.layer.InvalidateAnalyses(ctx)
	return result, nil
}

// IndexStats describes the vector index.
func (e *Engine) IndexStats(ctx context.Context) (index.Stats, error) {
	stats, err := e.index.Stats(ctx)
	return stats, core.Internal(err)
}

// Statistics summarizes the decision store.
func (e *Engine) Statistics(ctx context.Context) (*core.Statistics, error) {
	stats, err := e.repo.Stats(ctx)
	return stats, core.Internal(err)
}

// CacheStats reports cache hits and misses since Open.
func (e *Engine) CacheStats() cache.LayerStats {
	return e.layer.Stats()
}
