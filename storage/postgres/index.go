package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/poiesic/juris/core"
	"github.com/poiesic/juris/index"
	"github.com/poiesic/juris/storage"
)

const BackendPgvector = "pgvector"

// Index searches the embedding column of legal_decisions. Concurrency is
// left to PostgreSQL.
type Index struct {
	pool      *pgxpool.Pool
	dimension int
	logger    *slog.Logger
}

var _ index.Index = (*Index)(nil)

// NewIndex creates an index over rows managed by a Repository on pool.
func NewIndex(pool *pgxpool.Pool, dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, index.ErrInvalidDim
	}
	return &Index{
		pool:      pool,
		dimension: dimension,
		logger:    slog.Default().With("component", "pgvector-index"),
	}, nil
}

// Add sets the embedding of existing decision rows. Every id must already be
// stored.
func (x *Index) Add(ctx context.Context, vectors [][]float32, ids []core.ID) error {
	if len(vectors) != len(ids) {
		return fmt.Errorf("%w: %d vectors, %d ids", index.ErrLengthMismatch, len(vectors), len(ids))
	}
	for i, vec := range vectors {
		if len(vec) != x.dimension {
			return fmt.Errorf("%w: vector %d has %d, index has %d", core.ErrDimensionMismatch, i, len(vec), x.dimension)
		}
	}

	return pgx.BeginFunc(ctx, x.pool, func(tx pgx.Tx) error {
		for i, vec := range vectors {
			tag, err := tx.Exec(ctx,
				`UPDATE legal_decisions SET embedding = $1::vector WHERE id = $2`,
				formatVector(vec), int64(ids[i]),
			)
			if err != nil {
				return fmt.Errorf("failed to index decision: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("%w: id %d", storage.ErrNotFound, ids[i])
			}
		}
		x.logger.Debug("indexed vectors", "count", len(vectors))
		return nil
	})
}

// Search orders by cosine distance and reports 1 - distance as the score.
func (x *Index) Search(ctx context.Context, query []float32, k int, threshold float64) ([]index.Hit, error) {
	if len(query) != x.dimension {
		return nil, fmt.Errorf("%w: query has %d, index has %d", core.ErrDimensionMismatch, len(query), x.dimension)
	}
	if k <= 0 {
		return []index.Hit{}, nil
	}

	rows, err := x.pool.Query(ctx, `
		SELECT id, 1 - (embedding <=> $1::vector) AS score
		FROM legal_decisions
		WHERE embedding IS NOT NULL
			AND 1 - (embedding <=> $1::vector) >= $2
		ORDER BY embedding <=> $1::vector
		LIMIT $3`,
		formatVector(query), threshold, k,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search vectors: %w", err)
	}
	defer rows.Close()

	hits := make([]index.Hit, 0, k)
	for rows.Next() {
		var (
			id    int64
			score float64
		)
		if err := rows.Scan(&id, &score); err != nil {
			return nil, fmt.Errorf("failed to scan hit: %w", err)
		}
		hits = append(hits, index.Hit{ID: core.ID(id), Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hits: %w", err)
	}
	return hits, nil
}

func (x *Index) Stats(ctx context.Context) (index.Stats, error) {
	var count int
	err := x.pool.QueryRow(ctx, `SELECT count(*) FROM legal_decisions WHERE embedding IS NOT NULL`).Scan(&count)
	if err != nil {
		return index.Stats{}, err
	}
	return index.Stats{Count: count, Dimension: x.dimension, Backend: BackendPgvector}, nil
}

// Close is a no-op; the pool belongs to the repository.
func (x *Index) Close() error {
	return nil
}
