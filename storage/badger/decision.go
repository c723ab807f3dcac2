package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/juris/core"
	"github.com/poiesic/juris/storage"
)

// DecisionRepository implements storage.DecisionRepository on badger.
type DecisionRepository struct {
	backend *Backend
	owned   bool
	closed  atomic.Bool
}

var _ storage.DecisionRepository = (*DecisionRepository)(nil)

// NewDecisionRepository creates a repository over an open backend. Close
// leaves the backend open.
func NewDecisionRepository(backend *Backend) (*DecisionRepository, error) {
	if backend == nil {
		return nil, storage.ErrBackendRequired
	}
	return &DecisionRepository{backend: backend}, nil
}

// NewRepository opens a database at path owned by the returned repository.
func NewRepository(path string) (*DecisionRepository, error) {
	return openRepository(path, false)
}

func openRepository(path string, inMemory bool) (*DecisionRepository, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}
	return &DecisionRepository{backend: backend, owned: true}, nil
}

// Backend exposes the underlying database so other components can share it.
func (r *DecisionRepository) Backend() *Backend {
	return r.backend
}

// Close closes the backend if the repository opened it. Later calls fail
// with storage.ErrStorageClosed.
func (r *DecisionRepository) Close() error {
	if r.closed.Swap(true) || !r.owned {
		return nil
	}
	return r.backend.Close()
}

func (r *DecisionRepository) withTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	if r.closed.Load() {
		return storage.ErrStorageClosed
	}
	return r.backend.WithTx(fn, isWrite)
}

// AddDecisions stores new decisions.
func (r *DecisionRepository) AddDecisions(ctx context.Context, decisions ...*core.LegalDecision) ([]*core.LegalDecision, error) {
	err := r.withTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, d := range decisions {
			if d.ProcessNumber == "" {
				return core.ErrEmptyProcessNumber
			}
			if d.Id == 0 {
				d.Id = core.IDFromContent(d.ProcessNumber)
			}

			pnKey := makeProcessNumberKey(d.ProcessNumber)
			taken, err := exists(tx, pnKey)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("%w: process number %s", storage.ErrDuplicateKey, d.ProcessNumber)
			}
			key := makeDecisionKey(d.Id)
			taken, err = exists(tx, key)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("%w: id %d", storage.ErrDuplicateKey, d.Id)
			}

			if d.CreatedAt.IsZero() {
				d.CreatedAt = now
			}
			d.UpdatedAt = now

			if err := r.writeDecision(tx, d); err != nil {
				return err
			}
			if err := tx.Set(pnKey, storage.MarshalID(d.Id)); err != nil {
				return err
			}
			if err := tx.Set(makeDecisionDateKey(d.DecisionDate, d.Id), storage.MarshalID(d.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return decisions, nil
}

// UpdateDecisions replaces existing decisions, maintaining both indices.
func (r *DecisionRepository) UpdateDecisions(ctx context.Context, decisions ...*core.LegalDecision) ([]*core.LegalDecision, error) {
	err := r.withTx(func(tx *badger.Txn) error {
		for _, d := range decisions {
			old, err := r.readDecision(tx, makeDecisionKey(d.Id))
			if err != nil {
				return err
			}
			if old == nil {
				return fmt.Errorf("%w: id %d", storage.ErrNotFound, d.Id)
			}

			if old.ProcessNumber != d.ProcessNumber {
				if d.ProcessNumber == "" {
					return core.ErrEmptyProcessNumber
				}
				newKey := makeProcessNumberKey(d.ProcessNumber)
				taken, err := exists(tx, newKey)
				if err != nil {
					return err
				}
				if taken {
					return fmt.Errorf("%w: process number %s", storage.ErrDuplicateKey, d.ProcessNumber)
				}
				if err := tx.Delete(makeProcessNumberKey(old.ProcessNumber)); err != nil {
					return err
				}
				if err := tx.Set(newKey, storage.MarshalID(d.Id)); err != nil {
					return err
				}
			}

			if !old.DecisionDate.Equal(d.DecisionDate) {
				if err := tx.Delete(makeDecisionDateKey(old.DecisionDate, old.Id)); err != nil {
					return err
				}
				if err := tx.Set(makeDecisionDateKey(d.DecisionDate, d.Id), storage.MarshalID(d.Id)); err != nil {
					return err
				}
			}

			if d.CreatedAt.IsZero() {
				d.CreatedAt = old.CreatedAt
			}
			d.UpdatedAt = time.Now().UTC()
			if err := r.writeDecision(tx, d); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return decisions, nil
}

// DeleteDecisions removes decisions and their index entries.
func (r *DecisionRepository) DeleteDecisions(ctx context.Context, ids ...core.ID) error {
	return r.withTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeDecisionKey(id)
			d, err := r.readDecision(tx, key)
			if err != nil {
				return err
			}
			if d == nil {
				return fmt.Errorf("%w: id %d", storage.ErrNotFound, id)
			}
			if err := tx.Delete(makeProcessNumberKey(d.ProcessNumber)); err != nil {
				return err
			}
			if err := tx.Delete(makeDecisionDateKey(d.DecisionDate, d.Id)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetDecision retrieves a single decision by ID.
func (r *DecisionRepository) GetDecision(ctx context.Context, id core.ID) (*core.LegalDecision, error) {
	var result *core.LegalDecision
	err := r.withTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readDecision(tx, makeDecisionKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDecisions retrieves the decisions that exist, in request order.
func (r *DecisionRepository) GetDecisions(ctx context.Context, ids ...core.ID) ([]*core.LegalDecision, error) {
	var result []*core.LegalDecision
	err := r.withTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			d, err := r.readDecision(tx, makeDecisionKey(id))
			if err != nil {
				return err
			}
			if d != nil {
				result = append(result, d)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetDecisionByProcessNumber resolves the unique index.
func (r *DecisionRepository) GetDecisionByProcessNumber(ctx context.Context, processNumber string) (*core.LegalDecision, error) {
	var result *core.LegalDecision
	err := r.withTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeProcessNumberKey(processNumber))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}

		var id core.ID
		if err := item.Value(func(val []byte) error {
			id, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}

		result, err = r.readDecision(tx, makeDecisionKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDecisionsByDateRange walks the date index from start up to, but not
// including, end.
func (r *DecisionRepository) GetDecisionsByDateRange(ctx context.Context, start, end time.Time) ([]*core.LegalDecision, error) {
	var results []*core.LegalDecision
	err := r.withTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(decisionDatePrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		endKey := makePartialDecisionDateKey(end)
		for iter.Seek(makePartialDecisionDateKey(start)); iter.Valid(); iter.Next() {
			item := iter.Item()
			if bytes.Compare(item.Key(), endKey) >= 0 {
				break
			}

			var id core.ID
			if err := item.Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			d, err := r.readDecision(tx, makeDecisionKey(id))
			if err != nil {
				return err
			}
			if d != nil {
				results = append(results, d)
			}
		}
		return nil
	}, false)
	return results, err
}

// Filter hydrates ids and keeps the decisions matching filters.
func (r *DecisionRepository) Filter(ctx context.Context, ids []core.ID, filters *core.SearchFilters) ([]*core.LegalDecision, error) {
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

// Scan iterates every decision record in id key order.
func (r *DecisionRepository) Scan(ctx context.Context, fn func(*core.LegalDecision) error) error {
	return r.withTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(decisionRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var d *core.LegalDecision
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				d, err = storage.UnmarshalDecision(val)
				return err
			}); err != nil {
				return err
			}
			if err := fn(d); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// Count counts record keys without reading values.
func (r *DecisionRepository) Count(ctx context.Context) (int, error) {
	count := 0
	err := r.withTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(decisionRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Stats summarizes every stored decision.
func (r *DecisionRepository) Stats(ctx context.Context) (*core.Statistics, error) {
	acc := storage.NewStatsAccumulator(time.Now())
	err := r.Scan(ctx, func(d *core.LegalDecision) error {
		acc.Add(d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acc.Result(), nil
}

// readDecision returns nil, nil when the key doesn't exist.
func (r *DecisionRepository) readDecision(tx *badger.Txn, key []byte) (*core.LegalDecision, error) {
	item, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var d *core.LegalDecision
	err = item.Value(func(val []byte) error {
		var err error
		d, err = storage.UnmarshalDecision(val)
		return err
	})
	return d, err
}

func (r *DecisionRepository) writeDecision(tx *badger.Txn, d *core.LegalDecision) error {
	value, err := storage.MarshalDecision(d)
	if err != nil {
		return err
	}
	return tx.Set(makeDecisionKey(d.Id), value)
}

func exists(tx *badger.Txn, key []byte) (bool, error) {
	_, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}
