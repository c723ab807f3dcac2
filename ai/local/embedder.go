package local

import (
	"context"
	"encoding/binary"
	"log/slog"
	"maps"
	"math"
	"regexp"
	"slices"
	"strings"

	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/juris/ai"
)

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\d+`)

// stopWords are Portuguese function words that carry no legal meaning.
var stopWords = map[string]bool{
	"a": true, "as": true, "o": true, "os": true, "de": true, "da": true, "das": true,
	"do": true, "dos": true, "e": true, "em": true, "na": true, "nas": true, "no": true,
	"nos": true, "um": true, "uma": true, "para": true, "por": true, "com": true,
	"que": true, "se": true, "ao": true, "aos": true, "à": true, "às": true, "pelo": true,
	"pela": true, "ou": true, "não": true, "é": true, "foi": true, "ser": true,
}

// Embedder is a deterministic feature-hashing embedder. Tokens and adjacent
// token pairs are hashed into a fixed number of signed buckets, weighted by
// log term frequency and L2 normalized. The model name seeds the hash, so two
// model names yield unrelated vector spaces of the same dimension.
type Embedder struct {
	model     string
	dimension int
	key       []byte
	logger    *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// BLAKE2b accepts keys of at most 64 bytes.
const maxKeyLength = 64

func newEmbedder(model string, dimension int) *Embedder {
	key := []byte(model)
	if len(key) > maxKeyLength {
		key = key[:maxKeyLength]
	}
	return &Embedder{
		model:     model,
		dimension: dimension,
		key:       key,
		logger:    slog.Default().With("component", "local-embedder", "model", model),
	}
}

// EmbedText embeds a single text. Text without tokens yields a zero vector.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embed(text), nil
}

// EmbedTexts embeds texts in order.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *Embedder) embed(text string) []float32 {
	tokens := tokenize(text)
	counts := make(map[string]int, len(tokens)*2)
	for i, tok := range tokens {
		counts[tok]++
		if i > 0 {
			counts[tokens[i-1]+" "+tok]++
		}
	}

	// Sorted so float accumulation order, and thus the output, is stable.
	vec := make([]float64, e.dimension)
	for _, feature := range slices.Sorted(maps.Keys(counts)) {
		bucket, sign := e.hash(feature)
		vec[bucket] += sign * (1 + math.Log(float64(counts[feature])))
	}

	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	out := make([]float32, e.dimension)
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}

func (e *Embedder) hash(feature string) (int, float64) {
	h, _ := blake2b.New(8, e.key)
	h.Write([]byte(feature))
	sum := binary.LittleEndian.Uint64(h.Sum(nil))
	sign := 1.0
	if sum&1 == 1 {
		sign = -1.0
	}
	return int((sum >> 1) % uint64(e.dimension)), sign
}

func tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if !stopWords[tok] {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
