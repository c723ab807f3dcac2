package index

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/poiesic/juris/blob"
	"github.com/poiesic/juris/core"
	"github.com/poiesic/juris/embedding"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	snapshotVersion = 1
	idsSuffix       = ".ids"
	BackendFlat     = "flat"
)

// snapshot is the persisted vector artifact.
type snapshot struct {
	Version   int       `msgpack:"version"`
	Dimension int       `msgpack:"dimension"`
	Vectors   []float32 `msgpack:"vectors"`
}

// FlatIndex is an exact inner-product index over normalized vectors.
// It allows a single writer and any number of concurrent readers.
type FlatIndex struct {
	mu        sync.RWMutex
	dimension int
	vectors   []float32
	ids       []core.ID
	positions map[core.ID]int
	degraded  bool
	closed    bool

	store  blob.Store
	name   string
	logger *slog.Logger
}

var (
	_ Index     = (*FlatIndex)(nil)
	_ Rebuilder = (*FlatIndex)(nil)
)

type FlatOption func(*FlatIndex) error

// WithStore persists the index as name and name+".ids" in store.
func WithStore(store blob.Store, name string) FlatOption {
	return func(f *FlatIndex) error {
		if name == "" {
			return blob.ErrNameRequired
		}
		f.store = store
		f.name = name
		return nil
	}
}

func WithLogger(logger *slog.Logger) FlatOption {
	return func(f *FlatIndex) error {
		if logger == nil {
			logger = slog.Default()
		}
		f.logger = logger.With("component", "flat-index")
		return nil
	}
}

// OpenFlatIndex creates an index of the given dimension and, when a store is
// configured, loads any persisted artifacts. Missing or unusable artifacts
// leave the index empty.
func OpenFlatIndex(ctx context.Context, dimension int, opts ...FlatOption) (*FlatIndex, error) {
	if dimension <= 0 {
		return nil, ErrInvalidDim
	}
	f := &FlatIndex{
		dimension: dimension,
		positions: make(map[core.ID]int),
		logger:    slog.Default().With("component", "flat-index"),
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	if f.store != nil {
		f.load(ctx)
	}
	return f, nil
}

func (f *FlatIndex) Add(ctx context.Context, vectors [][]float32, ids []core.ID) error {
	if len(vectors) != len(ids) {
		return fmt.Errorf("%w: %d vectors, %d ids", ErrLengthMismatch, len(vectors), len(ids))
	}
	if len(vectors) == 0 {
		return nil
	}
	for i, vec := range vectors {
		if len(vec) != f.dimension {
			return fmt.Errorf("%w: vector %d has %d, index has %d", core.ErrDimensionMismatch, i, len(vec), f.dimension)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	seen := make(map[core.ID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := f.positions[id]; ok {
			return fmt.Errorf("%w: %d", ErrDuplicateID, id)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: %d", ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
	}

	for i, vec := range vectors {
		f.positions[ids[i]] = len(f.ids)
		f.ids = append(f.ids, ids[i])
		f.vectors = append(f.vectors, embedding.Normalize(vec)...)
	}
	f.logger.Debug("added vectors", "count", len(vectors), "total", len(f.ids))

	f.persist(ctx)
	return nil
}

func (f *FlatIndex) Search(ctx context.Context, query []float32, k int, threshold float64) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(query) != f.dimension {
		return nil, fmt.Errorf("%w: query has %d, index has %d", core.ErrDimensionMismatch, len(query), f.dimension)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return nil, ErrClosed
	}

	k = min(k, len(f.ids))
	if k <= 0 {
		return []Hit{}, nil
	}

	q := embedding.Normalize(query)
	hits := make([]Hit, 0, k)
	for pos, id := range f.ids {
		row := f.vectors[pos*f.dimension : (pos+1)*f.dimension]
		score := float64(embedding.Dot(q, row))
		if score >= threshold {
			hits = append(hits, Hit{ID: id, Score: score})
		}
	}

	slices.SortStableFunc(hits, func(a, b Hit) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (f *FlatIndex) Stats(ctx context.Context) (Stats, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return Stats{
		Count:     len(f.ids),
		Dimension: f.dimension,
		Backend:   BackendFlat,
		Degraded:  f.degraded,
	}, nil
}

// Contains reports whether id is indexed.
func (f *FlatIndex) Contains(id core.ID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.positions[id]
	return ok
}

func (f *FlatIndex) Reset(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.vectors = nil
	f.ids = nil
	f.positions = make(map[core.ID]int)
	f.logger.Info("index reset")
	f.persist(ctx)
	return nil
}

// Close retries persistence if the last attempt failed.
func (f *FlatIndex) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	if f.degraded {
		f.persist(context.Background())
	}
	f.closed = true
	return nil
}

// persist writes both artifacts. Must be called with the write lock held.
func (f *FlatIndex) persist(ctx context.Context) {
	if f.store == nil {
		return
	}
	if err := f.write(ctx); err != nil {
		f.degraded = true
		f.logger.Error("failed to persist index", "name", f.name, "err", err)
		return
	}
	f.degraded = false
}

func (f *FlatIndex) write(ctx context.Context) error {
	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(&snapshot{
		Version:   snapshotVersion,
		Dimension: f.dimension,
		Vectors:   f.vectors,
	}); err != nil {
		return err
	}
	if err := f.store.Put(ctx, f.name, buf.Bytes()); err != nil {
		return err
	}

	buf.Reset()
	if err := msgpack.NewEncoder(&buf).Encode(f.ids); err != nil {
		return err
	}
	return f.store.Put(ctx, f.name+idsSuffix, buf.Bytes())
}

func (f *FlatIndex) load(ctx context.Context) {
	snap, ids, err := f.read(ctx)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			f.logger.Info("no persisted index, starting empty", "name", f.name)
		} else {
			f.logger.Warn("persisted index unusable, starting empty", "name", f.name, "err", err)
		}
		return
	}

	f.vectors = snap.Vectors
	f.ids = ids
	for pos, id := range ids {
		f.positions[id] = pos
	}
	f.logger.Info("loaded persisted index", "name", f.name, "count", len(ids))
}

func (f *FlatIndex) read(ctx context.Context) (*snapshot, []core.ID, error) {
	data, err := f.store.Get(ctx, f.name)
	if err != nil {
		return nil, nil, err
	}
	idData, err := f.store.Get(ctx, f.name+idsSuffix)
	if err != nil {
		return nil, nil, err
	}

	var snap snapshot
	if err := msgpack.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return nil, nil, fmt.Errorf("decoding vectors: %w", err)
	}
	var ids []core.ID
	if err := msgpack.NewDecoder(bytes.NewReader(idData)).Decode(&ids); err != nil {
		return nil, nil, fmt.Errorf("decoding ids: %w", err)
	}

	if snap.Version != snapshotVersion {
		return nil, nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	if snap.Dimension != f.dimension {
		return nil, nil, fmt.Errorf("%w: snapshot has %d, index has %d", core.ErrDimensionMismatch, snap.Dimension, f.dimension)
	}
	if len(snap.Vectors) != len(ids)*f.dimension {
		return nil, nil, fmt.Errorf("snapshot holds %d values for %d ids", len(snap.Vectors), len(ids))
	}
	seen := make(map[core.ID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return nil, nil, fmt.Errorf("%w: %d", ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
	}
	return &snap, ids, nil
}
