package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	bstore "github.com/poiesic/juris/storage/badger"
)

// keyspace separates cache entries from anything else sharing the database.
const keyspace = "cache/"

// BadgerCache stores entries in badger with native TTL expiry.
type BadgerCache struct {
	backend *bstore.Backend
	owned   bool
	logger  *slog.Logger
}

var _ Cache = (*BadgerCache)(nil)

// Option configures a BadgerCache.
type Option func(*BadgerCache) error

// WithLogger sets the logger. Nil means slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *BadgerCache) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "badger-cache")
		return nil
	}
}

// NewBadgerCache caches into an existing backend. Close leaves the backend open.
func NewBadgerCache(backend *bstore.Backend, opts ...Option) (*BadgerCache, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	c := &BadgerCache{
		backend: backend,
		logger:  slog.Default().With("component", "badger-cache"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// OpenBadgerCache opens a dedicated database at path, which Close closes.
func OpenBadgerCache(path string, inMemory bool, opts ...Option) (*BadgerCache, error) {
	backend, err := bstore.OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}
	c, err := NewBadgerCache(backend, opts...)
	if err != nil {
		backend.Close()
		return nil, err
	}
	c.owned = true
	return c, nil
}

func (c *BadgerCache) Get(ctx context.Context, key string) ([]byte, bool) {
	var value []byte
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(keyspace + key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	}, false)

	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.logger.Warn("cache read failed", "key", key, "err", err)
		}
		return nil, false
	}
	return value, true
}

func (c *BadgerCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		entry := badger.NewEntry([]byte(keyspace+key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		if err := tx.SetEntry(entry); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		c.logger.Warn("cache write failed", "key", key, "err", err)
	}
}

func (c *BadgerCache) Delete(ctx context.Context, key string) {
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete([]byte(keyspace + key)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		c.logger.Warn("cache delete failed", "key", key, "err", err)
	}
}

func (c *BadgerCache) InvalidatePattern(ctx context.Context, prefix string) int {
	var keys [][]byte
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyspace + prefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		return nil
	}, false)
	if err != nil {
		c.logger.Warn("cache scan failed", "prefix", prefix, "err", err)
		return 0
	}
	if len(keys) == 0 {
		return 0
	}

	err = c.backend.WithTx(func(tx *badger.Txn) error {
		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		c.logger.Warn("cache invalidation failed", "prefix", prefix, "err", err)
		return 0
	}

	c.logger.Debug("invalidated cache entries", "prefix", prefix, "count", len(keys))
	return len(keys)
}

func (c *BadgerCache) Close() error {
	if c.owned {
		return c.backend.Close()
	}
	return nil
}
