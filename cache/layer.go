package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	searchPrefix   = "search"
	analysisPrefix = "analysis"
)

// Layer adds typed access and per-kind TTLs on top of a Cache.
type Layer struct {
	cache  Cache
	ttls   TTLs
	hits   atomic.Int64
	misses atomic.Int64
	logger *slog.Logger
}

// LayerStats counts lookups since the layer was created.
type LayerStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

func NewLayer(c Cache, ttls TTLs) (*Layer, error) {
	if c == nil {
		return nil, ErrCacheRequired
	}
	return &Layer{
		cache:  c,
		ttls:   ttls,
		logger: slog.Default().With("component", "cache-layer"),
	}, nil
}

// EmbeddingPrefix is the key prefix for vectors produced by model.
func EmbeddingPrefix(model string) string {
	return "emb:" + model
}

// AnalysisKey is the key for an analysis of kind over the case id.
func AnalysisKey(id, kind string) string {
	return fmt.Sprintf("%s:%s:%s", analysisPrefix, id, kind)
}

func (l *Layer) GetEmbedding(ctx context.Context, model, text string) ([]float32, bool) {
	key, err := Key(EmbeddingPrefix(model), text)
	if err != nil {
		l.logger.Warn("failed to build embedding key", "err", err)
		return nil, false
	}
	var vec []float32
	if !l.get(ctx, key, &vec) || len(vec) == 0 {
		return nil, false
	}
	return vec, true
}

func (l *Layer) SetEmbedding(ctx context.Context, model, text string, vec []float32) {
	key, err := Key(EmbeddingPrefix(model), text)
	if err != nil {
		l.logger.Warn("failed to build embedding key", "err", err)
		return
	}
	l.set(ctx, key, vec, l.ttls.Embeddings)
}

// GetSearch decodes the cached response for request into out.
func (l *Layer) GetSearch(ctx context.Context, request any, out any) bool {
	key, err := Key(searchPrefix, request)
	if err != nil {
		l.logger.Warn("failed to build search key", "err", err)
		return false
	}
	return l.get(ctx, key, out)
}

func (l *Layer) SetSearch(ctx context.Context, request any, value any) {
	key, err := Key(searchPrefix, request)
	if err != nil {
		l.logger.Warn("failed to build search key", "err", err)
		return
	}
	l.set(ctx, key, value, l.ttls.Search)
}

func (l *Layer) GetAnalysis(ctx context.Context, id, kind string, out any) bool {
	return l.get(ctx, AnalysisKey(id, kind), out)
}

func (l *Layer) SetAnalysis(ctx context.Context, id, kind string, value any) {
	l.set(ctx, AnalysisKey(id, kind), value, l.ttls.Analysis)
}

// InvalidateSearch drops every cached search response.
func (l *Layer) InvalidateSearch(ctx context.Context) int {
	return l.cache.InvalidatePattern(ctx, searchPrefix+":")
}

// InvalidateAnalyses drops every cached analysis.
func (l *Layer) InvalidateAnalyses(ctx context.Context) int {
	return l.cache.InvalidatePattern(ctx, analysisPrefix+":")
}

func (l *Layer) Stats() LayerStats {
	return LayerStats{Hits: l.hits.Load(), Misses: l.misses.Load()}
}

func (l *Layer) get(ctx context.Context, key string, out any) bool {
	data, ok := l.cache.Get(ctx, key)
	if !ok {
		l.misses.Add(1)
		return false
	}
	if err := msgpack.Unmarshal(data, out); err != nil {
		l.logger.Warn("discarding undecodable cache entry", "key", key, "err", err)
		l.cache.Delete(ctx, key)
		l.misses.Add(1)
		return false
	}
	l.hits.Add(1)
	return true
}

func (l *Layer) set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := msgpack.Marshal(value)
	if err != nil {
		l.logger.Warn("failed to encode cache entry", "key", key, "err", err)
		return
	}
	l.cache.Set(ctx, key, data, ttl)
}
