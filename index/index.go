package index

import (
	"context"

	"github.com/poiesic/juris/core"
)

// Hit is a single search result.
type Hit struct {
	ID    core.ID `json:"id" msgpack:"id"`
	Score float64 `json:"score" msgpack:"score"`
}

// Stats describes an index.
type Stats struct {
	Count     int    `json:"count"`
	Dimension int    `json:"dimension"`
	Backend   string `json:"backend"`
	// Degraded is set when the last persistence attempt failed.
	Degraded bool `json:"degraded"`
}

// Index is the contract shared by every vector index backend.
type Index interface {
	// Add indexes vectors[i] under ids[i]. Every vector must have the
	// index dimension.
	Add(ctx context.Context, vectors [][]float32, ids []core.ID) error

	// Search returns up to k hits with score >= threshold, sorted by
	// descending score.
	Search(ctx context.Context, query []float32, k int, threshold float64) ([]Hit, error)

	Stats(ctx context.Context) (Stats, error)

	Close() error
}

// Rebuilder is implemented by backends that can only be rebuilt from scratch.
type Rebuilder interface {
	// Reset discards every indexed vector.
	Reset(ctx context.Context) error
}
