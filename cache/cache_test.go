package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *BadgerCache {
	t.Helper()
	c, err := OpenBadgerCache("", true)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		k1, err := Key("emb:m", "dano moral")
		require.NoError(t, err)
		k2, err := Key("emb:m", "dano moral")
		require.NoError(t, err)
		assert.Equal(t, k1, k2)
		assert.True(t, strings.HasPrefix(k1, "emb:m:"))
		assert.Len(t, strings.TrimPrefix(k1, "emb:m:"), 16)
	})

	t.Run("distinct payloads differ", func(t *testing.T) {
		k1, _ := Key("search", "dano moral")
		k2, _ := Key("search", "dano material")
		assert.NotEqual(t, k1, k2)
	})

	t.Run("map order does not matter", func(t *testing.T) {
		a := map[string]any{"query": "x", "max": 10, "threshold": 0.7}
		b := map[string]any{"threshold": 0.7, "query": "x", "max": 10}
		k1, err := Key("search", a)
		require.NoError(t, err)
		k2, err := Key("search", b)
		require.NoError(t, err)
		assert.Equal(t, k1, k2)
	})
}

func TestBadgerCache(t *testing.T) {
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		c := newTestCache(t)
		c.Set(ctx, "k", []byte("v"), time.Hour)

		got, ok := c.Get(ctx, "k")
		require.True(t, ok)
		assert.Equal(t, []byte("v"), got)
	})

	t.Run("missing key is a miss", func(t *testing.T) {
		c := newTestCache(t)
		_, ok := c.Get(ctx, "absent")
		assert.False(t, ok)
	})

	t.Run("delete", func(t *testing.T) {
		c := newTestCache(t)
		c.Set(ctx, "k", []byte("v"), 0)
		c.Delete(ctx, "k")
		_, ok := c.Get(ctx, "k")
		assert.False(t, ok)
	})

	t.Run("invalidate by prefix", func(t *testing.T) {
		c := newTestCache(t)
		c.Set(ctx, "search:1", []byte("a"), time.Hour)
		c.Set(ctx, "search:2", []byte("b"), time.Hour)
		c.Set(ctx, "emb:m:1", []byte("c"), time.Hour)

		assert.Equal(t, 2, c.InvalidatePattern(ctx, "search:"))
		_, ok := c.Get(ctx, "search:1")
		assert.False(t, ok)
		_, ok = c.Get(ctx, "emb:m:1")
		assert.True(t, ok)
		assert.Equal(t, 0, c.InvalidatePattern(ctx, "search:"))
	})

	t.Run("requires backend", func(t *testing.T) {
		_, err := NewBadgerCache(nil)
		assert.ErrorIs(t, err, ErrBackendRequired)
	})
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Nop{}
	c.Set(ctx, "k", []byte("v"), time.Hour)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.InvalidatePattern(ctx, ""))
	assert.NoError(t, c.Close())
}

func TestLayer(t *testing.T) {
	ctx := context.Background()

	t.Run("embeddings are scoped by model", func(t *testing.T) {
		l, err := NewLayer(newTestCache(t), DefaultTTLs())
		require.NoError(t, err)

		l.SetEmbedding(ctx, "m1", "texto", []float32{0.6, 0.8})

		got, ok := l.GetEmbedding(ctx, "m1", "texto")
		require.True(t, ok)
		assert.Equal(t, []float32{0.6, 0.8}, got)

		_, ok = l.GetEmbedding(ctx, "m2", "texto")
		assert.False(t, ok)
		assert.Equal(t, LayerStats{Hits: 1, Misses: 1}, l.Stats())
	})

	t.Run("search responses", func(t *testing.T) {
		l, err := NewLayer(newTestCache(t), DefaultTTLs())
		require.NoError(t, err)

		req := map[string]any{"query": "dano moral", "max": 5}
		l.SetSearch(ctx, req, []string{"a", "b"})

		var out []string
		require.True(t, l.GetSearch(ctx, req, &out))
		assert.Equal(t, []string{"a", "b"}, out)

		assert.Equal(t, 1, l.InvalidateSearch(ctx))
		assert.False(t, l.GetSearch(ctx, req, &out))
	})

	t.Run("analyses", func(t *testing.T) {
		l, err := NewLayer(newTestCache(t), DefaultTTLs())
		require.NoError(t, err)

		assert.Equal(t, "analysis:42:precedents", AnalysisKey("42", "precedents"))
		l.SetAnalysis(ctx, "42", "precedents", map[string]float64{"x": 0.5})

		var out map[string]float64
		require.True(t, l.GetAnalysis(ctx, "42", "precedents", &out))
		assert.Equal(t, 0.5, out["x"])
		assert.Equal(t, 1, l.InvalidateAnalyses(ctx))
	})

	t.Run("corrupt entry is dropped", func(t *testing.T) {
		c := newTestCache(t)
		l, err := NewLayer(c, DefaultTTLs())
		require.NoError(t, err)

		c.Set(ctx, AnalysisKey("1", "x"), []byte{0xc1}, time.Hour)
		var out map[string]float64
		assert.False(t, l.GetAnalysis(ctx, "1", "x", &out))
		_, ok := c.Get(ctx, AnalysisKey("1", "x"))
		assert.False(t, ok)
	})

	t.Run("requires cache", func(t *testing.T) {
		_, err := NewLayer(nil, DefaultTTLs())
		assert.ErrorIs(t, err, ErrCacheRequired)
	})
}
