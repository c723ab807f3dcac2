package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/juris/ai"
	"github.com/poiesic/juris/cache"
	"github.com/poiesic/juris/core"
	"github.com/poiesic/juris/textproc"
)

const (
	DefaultBatchSize   = 32
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
	DefaultMaxDelay    = 10 * time.Second
)

// Generator produces embeddings through an ai.Embedder.
type Generator struct {
	embedder    ai.Embedder
	selector    ai.ModelSelector
	cache       *cache.Layer
	model       ai.ModelInfo
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	batchSize   int
	logger      *slog.Logger

	mu        sync.Mutex
	observed  map[string]int
	embedders map[string]ai.Embedder
}

// GenerateOptions controls a single Generate or GenerateBatch call.
type GenerateOptions struct {
	// Model overrides the configured model. Requires a ModelSelector.
	Model string
	// Preprocess runs textproc.Clean before embedding.
	Preprocess bool
	// BatchSize overrides the generator's batch size for GenerateBatch.
	BatchSize int
}

type Option func(*Generator) error

func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) error {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger.With("component", "embedding-generator")
		return nil
	}
}

// WithCache enables the embedding cache. A nil layer disables it.
func WithCache(layer *cache.Layer) Option {
	return func(g *Generator) error {
		g.cache = layer
		return nil
	}
}

// WithModel describes the model served by the embedder.
func WithModel(info ai.ModelInfo) Option {
	return func(g *Generator) error {
		if info.Name == "" {
			return fmt.Errorf("%w: model name is empty", ErrModelUnavailable)
		}
		if info.Dimension <= 0 {
			return fmt.Errorf("%w: dimension must be positive", core.ErrDimensionMismatch)
		}
		g.model = info
		return nil
	}
}

// WithModelSelector enables per-call model overrides.
func WithModelSelector(selector ai.ModelSelector) Option {
	return func(g *Generator) error {
		g.selector = selector
		return nil
	}
}

// WithRetry sets the retry policy for backend calls.
func WithRetry(maxAttempts int, baseDelay, maxDelay time.Duration) Option {
	return func(g *Generator) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		g.maxAttempts = maxAttempts
		g.baseDelay = baseDelay
		g.maxDelay = maxDelay
		return nil
	}
}

func WithBatchSize(size int) Option {
	return func(g *Generator) error {
		if size <= 0 {
			return ErrInvalidBatchSize
		}
		g.batchSize = size
		return nil
	}
}

// NewGenerator creates a generator. Without WithModel the generator assumes
// the default local model at 384 dimensions.
func NewGenerator(embedder ai.Embedder, opts ...Option) (*Generator, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	defaults := ai.DefaultConfig()
	g := &Generator{
		embedder: embedder,
		model: ai.ModelInfo{
			Name:      defaults.EmbeddingModel,
			Dimension: defaults.Dimension,
			MaxLength: defaults.MaxLength,
		},
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		maxDelay:    DefaultMaxDelay,
		batchSize:   DefaultBatchSize,
		logger:      slog.Default().With("component", "embedding-generator"),
		observed:    make(map[string]int),
		embedders:   make(map[string]ai.Embedder),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Model describes the configured model.
func (g *Generator) Model() ai.ModelInfo {
	return g.model
}

// Dimension is the vector length of the configured model.
func (g *Generator) Dimension() int {
	return g.model.Dimension
}

// ModelInfo describes model. For a model other than the configured one the
// dimension is known only after its first successful embedding.
func (g *Generator) ModelInfo(model string) ai.ModelInfo {
	if model == "" || model == g.model.Name {
		return g.model
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return ai.ModelInfo{
		Name:      model,
		Dimension: g.observed[model],
		MaxLength: g.model.MaxLength,
		Provider:  g.model.Provider,
	}
}

// Generate embeds a single text.
func (g *Generator) Generate(ctx context.Context, text string, opts GenerateOptions) ([]float32, error) {
	if opts.Preprocess {
		text = textproc.Clean(text)
	}
	if strings.TrimSpace(text) == "" {
		return nil, core.EmbeddingError("cannot embed empty text", ErrEmptyText)
	}

	model, embedder, err := g.resolve(opts.Model)
	if err != nil {
		return nil, err
	}

	if vec, ok := g.cached(ctx, model, text); ok {
		return vec, nil
	}

	var vec []float32
	err = RetryWithBackoff(ctx, func() error {
		v, err := embedder.EmbedText(ctx, text)
		if err != nil {
			return err
		}
		vec = v
		return nil
	}, g.maxAttempts, g.baseDelay, g.maxDelay)
	if err != nil {
		g.logger.Error("embedding generation failed", "model", model, "err", err)
		return nil, core.EmbeddingError("failed to generate embedding", err).WithDetail("model", model)
	}

	if err := g.checkDimension(model, vec); err != nil {
		return nil, err
	}

	g.store(ctx, model, text, vec)
	return vec, nil
}

// GenerateBatch embeds texts in sequential groups of the batch size. Results
// are returned in input order.
func (g *Generator) GenerateBatch(ctx context.Context, texts []string, opts GenerateOptions) ([][]float32, error) {
	size := g.batchSize
	if opts.BatchSize > 0 {
		size = opts.BatchSize
	}

	model, embedder, err := g.resolve(opts.Model)
	if err != nil {
		return nil, err
	}

	prepared := make([]string, len(texts))
	for i, text := range texts {
		if opts.Preprocess {
			text = textproc.Clean(text)
		}
		if strings.TrimSpace(text) == "" {
			return nil, core.EmbeddingError("cannot embed empty text", ErrEmptyText).WithDetail("index", i)
		}
		prepared[i] = text
	}

	results := make([][]float32, len(prepared))
	for start := 0; start < len(prepared); start += size {
		if err := ctx.Err(); err != nil {
			return nil, core.EmbeddingError("batch embedding cancelled", err)
		}
		end := min(start+size, len(prepared))
		if err := g.generateGroup(ctx, model, embedder, prepared[start:end], results[start:end]); err != nil {
			return nil, err
		}
		g.logger.Debug("embedded batch", "start", start, "end", end, "total", len(prepared))
	}
	return results, nil
}

func (g *Generator) generateGroup(ctx context.Context, model string, embedder ai.Embedder, texts []string, out [][]float32) error {
	var (
		missTexts []string
		missIdx   []int
	)
	for i, text := range texts {
		if vec, ok := g.cached(ctx, model, text); ok {
			out[i] = vec
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return nil
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		v, err := embedder.EmbedTexts(ctx, missTexts)
		if err != nil {
			return err
		}
		if len(v) != len(missTexts) {
			return fmt.Errorf("%w: expected %d, got %d", ai.ErrCountMismatch, len(missTexts), len(v))
		}
		vectors = v
		return nil
	}, g.maxAttempts, g.baseDelay, g.maxDelay)
	if err != nil {
		g.logger.Error("batch embedding failed", "model", model, "count", len(missTexts), "err", err)
		return core.EmbeddingError("failed to generate batch embeddings", err).
			WithDetail("model", model).
			WithDetail("count", len(missTexts))
	}

	for j, vec := range vectors {
		if err := g.checkDimension(model, vec); err != nil {
			return err
		}
		out[missIdx[j]] = vec
		g.store(ctx, model, missTexts[j], vec)
	}
	return nil
}

// Similarity is the cosine similarity of two embeddings.
func (g *Generator) Similarity(a, b []float32) float64 {
	return Similarity(a, b)
}

func (g *Generator) resolve(model string) (string, ai.Embedder, error) {
	if model == "" || model == g.model.Name {
		return g.model.Name, g.embedder, nil
	}
	if g.selector == nil {
		return "", nil, core.EmbeddingError("model override not supported by backend", ErrModelUnavailable).
			WithDetail("model", model)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.embedders[model]; ok {
		return model, e, nil
	}
	e, err := g.selector.EmbedderFor(model)
	if err != nil {
		return "", nil, core.EmbeddingError("embedding model unavailable", err).WithDetail("model", model)
	}
	g.embedders[model] = e
	return model, e, nil
}

func (g *Generator) checkDimension(model string, vec []float32) error {
	if len(vec) == 0 {
		return core.EmbeddingError("backend returned an empty embedding", ai.ErrEmptyResponse).WithDetail("model", model)
	}

	want := g.model.Dimension
	if model != g.model.Name {
		g.mu.Lock()
		want = g.observed[model]
		if want == 0 {
			g.observed[model] = len(vec)
			want = len(vec)
		}
		g.mu.Unlock()
	}

	if err := core.ValidateEmbedding(vec, want); err != nil {
		return core.EmbeddingError("embedding has unexpected dimension", err).
			WithDetail("model", model).
			WithDetail("expected", want).
			WithDetail("actual", len(vec))
	}
	return nil
}

func (g *Generator) cached(ctx context.Context, model, text string) ([]float32, bool) {
	if g.cache == nil {
		return nil, false
	}
	return g.cache.GetEmbedding(ctx, model, text)
}

func (g *Generator) store(ctx context.Context, model, text string, vec []float32) {
	if g.cache == nil {
		return
	}
	g.cache.SetEmbedding(ctx, model, text, vec)
}
