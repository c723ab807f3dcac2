package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/poiesic/juris/core"
	"github.com/poiesic/juris/storage"
)

const uniqueViolation = "23505"

// Repository implements storage.DecisionRepository on PostgreSQL.
type Repository struct {
	pool   *pgxpool.Pool
	owned  bool
	closed atomic.Bool
	logger *slog.Logger
}

var _ storage.DecisionRepository = (*Repository)(nil)

// Open connects to dsn, verifies the connection, and migrates the schema.
// The returned repository owns the pool.
func Open(ctx context.Context, dsn string, dimension int) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := Migrate(ctx, pool, dimension); err != nil {
		pool.Close()
		return nil, err
	}
	r := NewRepository(pool)
	r.owned = true
	return r, nil
}

// NewRepository uses an existing pool, which Close leaves open.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{
		pool:   pool,
		logger: slog.Default().With("component", "postgres-repository"),
	}
}

// Pool exposes the connection pool for the pgvector index.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// Close marks the repository closed and closes the pool if it owns it.
func (r *Repository) Close() error {
	if !r.closed.Swap(true) && r.owned {
		r.pool.Close()
	}
	return nil
}

func (r *Repository) AddDecisions(ctx context.Context, decisions ...*core.LegalDecision) ([]*core.LegalDecision, error) {
	if r.closed.Load() {
		return nil, storage.ErrStorageClosed
	}
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		now := time.Now().UTC()
		for _, d := range decisions {
			if d.ProcessNumber == "" {
				return core.ErrEmptyProcessNumber
			}
			if d.Id == 0 {
				d.Id = core.IDFromContent(d.ProcessNumber)
			}
			if d.CreatedAt.IsZero() {
				d.CreatedAt = now
			}
			d.UpdatedAt = now

			record, err := storage.MarshalDecision(d)
			if err != nil {
				return err
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO legal_decisions
					(id, process_number, court_type, decision_type, decision_date, created_at, updated_at, record, embedding)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::vector)`,
				int64(d.Id), d.ProcessNumber, string(d.CourtType), string(d.DecisionType),
				d.DecisionDate, d.CreatedAt, d.UpdatedAt, record, nullableVector(d.Embedding),
			)
			if err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
					return fmt.Errorf("%w: process number %s", storage.ErrDuplicateKey, d.ProcessNumber)
				}
				return fmt.Errorf("failed to insert decision: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decisions, nil
}

func (r *Repository) UpdateDecisions(ctx context.Context, decisions ...*core.LegalDecision) ([]*core.LegalDecision, error) {
	if r.closed.Load() {
		return nil, storage.ErrStorageClosed
	}
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		now := time.Now().UTC()
		for _, d := range decisions {
			if d.CreatedAt.IsZero() {
				var created time.Time
				err := tx.QueryRow(ctx, `SELECT created_at FROM legal_decisions WHERE id = $1`, int64(d.Id)).Scan(&created)
				if errors.Is(err, pgx.ErrNoRows) {
					return fmt.Errorf("%w: id %d", storage.ErrNotFound, d.Id)
				}
				if err != nil {
					return err
				}
				d.CreatedAt = created.UTC()
			}
			d.UpdatedAt = now

			record, err := storage.MarshalDecision(d)
			if err != nil {
				return err
			}
			tag, err := tx.Exec(ctx, `
				UPDATE legal_decisions SET
					process_number = $2, court_type = $3, decision_type = $4, decision_date = $5,
					created_at = $6, updated_at = $7, record = $8, embedding = $9::vector
				WHERE id = $1`,
				int64(d.Id), d.ProcessNumber, string(d.CourtType), string(d.DecisionType),
				d.DecisionDate, d.CreatedAt, d.UpdatedAt, record, nullableVector(d.Embedding),
			)
			if err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
					return fmt.Errorf("%w: process number %s", storage.ErrDuplicateKey, d.ProcessNumber)
				}
				return fmt.Errorf("failed to update decision: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("%w: id %d", storage.ErrNotFound, d.Id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decisions, nil
}

func (r *Repository) DeleteDecisions(ctx context.Context, ids ...core.ID) error {
	if r.closed.Load() {
		return storage.ErrStorageClosed
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, id := range ids {
			tag, err := tx.Exec(ctx, `DELETE FROM legal_decisions WHERE id = $1`, int64(id))
			if err != nil {
				return fmt.Errorf("failed to delete decision: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("%w: id %d", storage.ErrNotFound, id)
			}
		}
		return nil
	})
}

func (r *Repository) GetDecision(ctx context.Context, id core.ID) (*core.LegalDecision, error) {
	return r.queryOne(ctx, `SELECT record FROM legal_decisions WHERE id = $1`, int64(id))
}

func (r *Repository) GetDecisionByProcessNumber(ctx context.Context, processNumber string) (*core.LegalDecision, error) {
	return r.queryOne(ctx, `SELECT record FROM legal_decisions WHERE process_number = $1`, processNumber)
}

func (r *Repository) GetDecisions(ctx context.Context, ids ...core.ID) ([]*core.LegalDecision, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]int64, len(ids))
	for i, id := range ids {
		keys[i] = int64(id)
	}

	found, err := r.queryMany(ctx, `SELECT record FROM legal_decisions WHERE id = ANY($1)`, keys)
	if err != nil {
		return nil, err
	}
	byID := make(map[core.ID]*core.LegalDecision, len(found))
	for _, d := range found {
		byID[d.Id] = d
	}

	result := make([]*core.LegalDecision, 0, len(found))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			result = append(result, d)
		}
	}
	return result, nil
}

func (r *Repository) GetDecisionsByDateRange(ctx context.Context, start, end time.Time) ([]*core.LegalDecision, error) {
	return r.queryMany(ctx, `
		SELECT record FROM legal_decisions
		WHERE decision_date >= $1 AND decision_date < $2
		ORDER BY decision_date, id`, start, end)
}

func (r *Repository) Filter(ctx context.Context, ids []core.ID, filters *core.SearchFilters) ([]*core.LegalDecision, error) {
	decisions, err := r.GetDecisions(ctx, ids...)
	if err != nil {
		return nil, err
	}
	result := decisions[:0]
	for _, d := range decisions {
		if storage.MatchesFilters(d, filters) {
			result = append(result, d)
		}
	}
	return result, nil
}

func (r *Repository) Scan(ctx context.Context, fn func(*core.LegalDecision) error) error {
	if r.closed.Load() {
		return storage.ErrStorageClosed
	}
	rows, err := r.pool.Query(ctx, `SELECT record FROM legal_decisions ORDER BY id`)
	if err != nil {
		return fmt.Errorf("failed to scan decisions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return err
		}
		d, err := storage.UnmarshalDecision(record)
		if err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	if r.closed.Load() {
		return 0, storage.ErrStorageClosed
	}
	var count int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM legal_decisions`).Scan(&count)
	return count, err
}

func (r *Repository) Stats(ctx context.Context) (*core.Statistics, error) {
	acc := storage.NewStatsAccumulator(time.Now())
	if err := r.Scan(ctx, func(d *core.LegalDecision) error {
		acc.Add(d)
		return nil
	}); err != nil {
		return nil, err
	}
	return acc.Result(), nil
}

func (r *Repository) queryOne(ctx context.Context, sql string, args ...any) (*core.LegalDecision, error) {
	if r.closed.Load() {
		return nil, storage.ErrStorageClosed
	}
	var record []byte
	err := r.pool.QueryRow(ctx, sql, args...).Scan(&record)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return storage.UnmarshalDecision(record)
}

func (r *Repository) queryMany(ctx context.Context, sql string, args ...any) ([]*core.LegalDecision, error) {
	if r.closed.Load() {
		return nil, storage.ErrStorageClosed
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var result []*core.LegalDecision
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, err
		}
		d, err := storage.UnmarshalDecision(record)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// nullableVector maps an empty embedding to SQL NULL.
func nullableVector(embedding []float32) *string {
	if len(embedding) == 0 {
		return nil
	}
	v := formatVector(embedding)
	return &v
}
