package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaTemplate = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS legal_decisions (
	id             BIGINT PRIMARY KEY,
	process_number TEXT NOT NULL UNIQUE,
	court_type     TEXT NOT NULL,
	decision_type  TEXT NOT NULL,
	decision_date  TIMESTAMPTZ NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL,
	record         BYTEA NOT NULL,
	embedding      vector(%d)
);

CREATE INDEX IF NOT EXISTS legal_decisions_decision_date_idx ON legal_decisions (decision_date);
CREATE INDEX IF NOT EXISTS legal_decisions_embedding_idx ON legal_decisions USING hnsw (embedding vector_cosine_ops);
`

// Migrate creates the schema for embeddings of the given dimension.
func Migrate(ctx context.Context, pool *pgxpool.Pool, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid embedding dimension %d", dimension)
	}
	if _, err := pool.Exec(ctx, fmt.Sprintf(schemaTemplate, dimension)); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// formatVector formats an embedding as a pgvector literal.
func formatVector(embedding []float32) string {
	if len(embedding) == 0 {
		return "[]"
	}
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
