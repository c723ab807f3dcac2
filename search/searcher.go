package search

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/juris/ai"
	"github.com/poiesic/juris/cache"
	"github.com/poiesic/juris/core"
	"github.com/poiesic/juris/embedding"
	"github.com/poiesic/juris/index"
	"github.com/poiesic/juris/similarity"
	"github.com/poiesic/juris/storage"
	"github.com/poiesic/juris/textproc"
)

const (
	DefaultThreshold  = 0.7
	DefaultMaxResults = 10
	// DefaultResultLimit caps MaxResults on public requests.
	DefaultResultLimit = 50

	// candidateFactor is how many index candidates are fetched per requested
	// result, leaving room for metadata filtering.
	candidateFactor = 2

	explanationExcerpt = 1500
)

// SearchRequest describes a similarity query.
type SearchRequest struct {
	Query   string              `msgpack:"query" json:"query"`
	Filters *core.SearchFilters `msgpack:"filters" json:"filters,omitempty"`
	// MaxResults of zero uses the searcher default.
	MaxResults int `msgpack:"max_results" json:"max_results,omitempty"`
	// Threshold of zero uses the searcher default.
	Threshold float64 `msgpack:"threshold" json:"threshold,omitempty"`
	// Explain attaches an LLM relevance explanation to each result.
	Explain bool `msgpack:"explain" json:"explain,omitempty"`
}

// Searcher orchestrates query embedding, vector search, metadata filtering
// and scoring.
type Searcher struct {
	gen        *embedding.Generator
	index      index.Index
	repo       storage.DecisionRepository
	engine     *similarity.Engine
	cache      *cache.Layer
	completer  ai.Completer
	pool       *ants.Pool
	monitor    SearchMonitor
	threshold  float64
	maxResults int
	limit      int
	logger     *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "searcher")
		return nil
	}
}

// WithCache enables search result and analysis caching.
func WithCache(layer *cache.Layer) Option {
	return func(s *Searcher) error {
		s.cache = layer
		return nil
	}
}

// WithCompleter enables relevance explanations.
func WithCompleter(completer ai.Completer) Option {
	return func(s *Searcher) error {
		s.completer = completer
		return nil
	}
}

// WithPoolSize sets the worker pool size for concurrent comparisons.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(s *Searcher) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if s.pool != nil {
			s.pool.Release()
		}
		s.pool = pool
		return nil
	}
}

func WithDefaultThreshold(threshold float64) Option {
	return func(s *Searcher) error {
		if threshold <= 0 || threshold > 1 {
			return ErrInvalidThreshold
		}
		s.threshold = threshold
		return nil
	}
}

// WithMaxResults sets the default and the cap for SearchRequest.MaxResults.
func WithMaxResults(def, limit int) Option {
	return func(s *Searcher) error {
		if def < 1 || limit < def {
			return fmt.Errorf("%w: default %d, limit %d", ErrInvalidLimit, def, limit)
		}
		s.maxResults = def
		s.limit = limit
		return nil
	}
}

// WithMonitor observes every search.
func WithMonitor(monitor SearchMonitor) Option {
	return func(s *Searcher) error {
		s.monitor = monitor
		return nil
	}
}

// NewSearcher creates a new searcher. Call Release when done.
func NewSearcher(
	gen *embedding.Generator,
	idx index.Index,
	repo storage.DecisionRepository,
	engine *similarity.Engine,
	opts ...Option,
) (*Searcher, error) {
	if gen == nil {
		return nil, ErrGeneratorRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if engine == nil {
		return nil, ErrEngineRequired
	}

	s := &Searcher{
		gen:        gen,
		index:      idx,
		repo:       repo,
		engine:     engine,
		monitor:    &noopMonitor{},
		threshold:  DefaultThreshold,
		maxResults: DefaultMaxResults,
		limit:      DefaultResultLimit,
		logger:     slog.Default().With("component", "searcher"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.Release()
			return nil, err
		}
	}

	if s.pool == nil {
		pool, err := ants.NewPool(max(1, runtime.NumCPU()))
		if err != nil {
			return nil, err
		}
		s.pool = pool
	}
	if s.monitor == nil {
		s.monitor = &noopMonitor{}
	}

	return s, nil
}

// Release frees the worker pool. The searcher should not be used afterwards.
func (s *Searcher) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

func (s *Searcher) normalize(req SearchRequest) (SearchRequest, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return req, core.SearchError("invalid search request", ErrEmptyQuery)
	}
	if req.MaxResults < 0 {
		return req, core.SearchError("invalid search request", ErrInvalidLimit)
	}
	if req.MaxResults == 0 {
		req.MaxResults = s.maxResults
	}
	req.MaxResults = min(req.MaxResults, s.limit)
	if req.Threshold < 0 || req.Threshold > 1 {
		return req, core.SearchError("invalid search request", ErrInvalidThreshold)
	}
	if req.Threshold == 0 {
		req.Threshold = s.threshold
	}
	if err := req.Filters.Validate(); err != nil {
		return req, core.SearchError("invalid search filters", err)
	}
	if req.Filters.IsZero() {
		req.Filters = nil
	}
	if req.Explain && s.completer == nil {
		return req, core.ConfigurationError("relevance explanations requested", ErrExplanationsUnavailable)
	}
	return req, nil
}

// Search returns up to MaxResults decisions similar to the query, sorted by
// descending similarity. Every score is at least the request threshold.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) ([]*core.SearchResult, error) {
	req, err := s.normalize(req)
	if err != nil {
		return nil, err
	}
	return s.search(ctx, req)
}

func (s *Searcher) search(ctx context.Context, req SearchRequest) ([]*core.SearchResult, error) {
	s.monitor.Start(req.Query)

	if s.cache != nil {
		var cached []*core.SearchResult
		if s.cache.GetSearch(ctx, req, &cached) {
			s.logger.Debug("search cache hit", "query", req.Query, "count", len(cached))
			s.monitor.Finish(cached)
			return cached, nil
		}
	}

	vector, err := s.gen.Generate(ctx, req.Query, embedding.GenerateOptions{Preprocess: true})
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", req.Query, "err", err)
		return nil, err
	}
	s.monitor.AfterQueryEmbedding(vector)

	hits, err := s.index.Search(ctx, vector, candidateFactor*req.MaxResults, req.Threshold)
	if err != nil {
		s.logger.Error("error querying vector index", "err", err)
		return nil, core.SearchError("vector search failed", err)
	}
	s.monitor.AfterVectorSearch(hits)

	results := []*core.SearchResult{}
	if len(hits) > 0 {
		ids := make([]core.ID, len(hits))
		scores := make(map[core.ID]float64, len(hits))
		for i, hit := range hits {
			ids[i] = hit.ID
			scores[hit.ID] = hit.Score
		}

		decisions, err := s.repo.Filter(ctx, ids, req.Filters)
		if err != nil {
			s.logger.Error("error retrieving decisions", "count", len(ids), "err", err)
			return nil, core.SearchError("failed to retrieve decisions", err)
		}
		s.monitor.AfterFilter(decisions)

		for _, d := range decisions {
			results = append(results, &core.SearchResult{
				Decision:        d,
				SimilarityScore: scores[d.Id],
			})
		}
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].SimilarityScore > results[j].SimilarityScore
		})
		if len(results) > req.MaxResults {
			results = results[:req.MaxResults]
		}

		for _, r := range results {
			r.Highlights = textproc.Highlights(r.Decision.DecisionText, req.Query, textproc.DefaultHighlightRadius)
			if req.Explain {
				r.RelevanceExplanation = s.explain(ctx, req.Query, r.Decision)
			}
		}
	}

	if s.cache != nil {
		s.cache.SetSearch(ctx, req, results)
	}
	s.monitor.Finish(results)
	return results, nil
}

// explain asks the completer why d is relevant to the query. Failures leave
// the explanation empty.
func (s *Searcher) explain(ctx context.Context, query string, d *core.LegalDecision) string {
	excerpt := d.Summary
	if excerpt == "" {
		excerpt = d.DecisionText
	}
	if runes := []rune(excerpt); len(runes) > explanationExcerpt {
		excerpt = string(runes[:explanationExcerpt])
	}
	prompt := fmt.Sprintf(explanationPrompt, query, d.CourtName, d.ProcessNumber, excerpt)

	text, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("relevance explanation failed", "id", d.Id, "err", err)
		return ""
	}
	return strings.TrimSpace(text)
}

const explanationPrompt = `Você é um assistente jurídico. Explique em no máximo duas frases por que a decisão abaixo é relevante para a consulta.

Consulta: %s

Tribunal: %s
Processo: %s
Ementa: %s`
