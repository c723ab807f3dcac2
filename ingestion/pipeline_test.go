package ingestion

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/juris/ai"
	"github.com/poiesic/juris/ai/mock"
	"github.com/poiesic/juris/cache"
	"github.com/poiesic/juris/core"
	"github.com/poiesic/juris/embedding"
	"github.com/poiesic/juris/index"
	"github.com/poiesic/juris/storage"
	"github.com/poiesic/juris/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDim = 8

// failingIndex rejects every Add.
type failingIndex struct {
	index.Index
}

func (f *failingIndex) Add(ctx context.Context, vectors [][]float32, ids []core.ID) error {
	return errors.New("index unavailable")
}

type harness struct {
	embedder *mock.MockEmbedder
	gen      *embedding.Generator
	repo     *badger.DecisionRepository
	index    *index.FlatIndex
}

func newHarness(t *testing.T, genOpts ...embedding.Option) *harness {
	t.Helper()
	embedder := mock.NewMockEmbedder(testDim)
	base := []embedding.Option{
		embedding.WithModel(ai.ModelInfo{Name: "test-model", Dimension: testDim, Provider: "mock"}),
		embedding.WithRetry(1, time.Millisecond, time.Millisecond),
	}
	gen, err := embedding.NewGenerator(embedder, append(base, genOpts...)...)
	require.NoError(t, err)

	repo, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	idx, err := index.OpenFlatIndex(context.Background(), testDim)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	return &harness{embedder: embedder, gen: gen, repo: repo, index: idx}
}

func (h *harness) pipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	p, err := NewPipeline(h.gen, h.repo, h.index, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func newDecision(pn string) *core.LegalDecision {
	return &core.LegalDecision{
		ProcessNumber: pn,
		CourtName:     "Superior Tribunal de Justiça",
		CourtType:     core.CourtSTJ,
		DecisionType:  core.DecisionAcordao,
		DecisionDate:  time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		Summary:       "Responsabilidade civil. Dano moral.",
		DecisionText:  "Decisão " + pn + " sobre dano moral, nos termos do art. 186 do Código Civil.",
	}
}

func indexCount(t *testing.T, idx index.Index) int {
	t.Helper()
	stats, err := idx.Stats(context.Background())
	require.NoError(t, err)
	return stats.Count
}

func TestNewPipeline(t *testing.T) {
	h := newHarness(t)

	t.Run("valid configuration", func(t *testing.T) {
		p, err := NewPipeline(h.gen, h.repo, h.index, WithPoolSize(2), WithLogger(nil))
		require.NoError(t, err)
		p.Release()
	})

	t.Run("missing collaborators", func(t *testing.T) {
		_, err := NewPipeline(nil, h.repo, h.index)
		assert.Equal(t, ErrGeneratorRequired, err)
		_, err = NewPipeline(h.gen, nil, h.index)
		assert.Equal(t, ErrRepositoryRequired, err)
		_, err = NewPipeline(h.gen, h.repo, nil)
		assert.Equal(t, ErrIndexRequired, err)
	})
}

func TestIngest(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t)
	ctx := context.Background()

	added, err := p.Ingest(ctx, newDecision("0001"), newDecision("0002"))
	require.NoError(t, err)
	require.Len(t, added, 2)

	for _, d := range added {
		assert.Equal(t, core.IDFromContent(d.ProcessNumber), d.Id)
		assert.Len(t, d.Embedding, testDim)

		stored, err := h.repo.GetDecision(ctx, d.Id)
		require.NoError(t, err)
		assert.Equal(t, d.Embedding, stored.Embedding)
		assert.True(t, h.index.Contains(d.Id))
	}
	assert.Equal(t, 1, h.embedder.CallCount(), "one batch call")
	assert.Equal(t, 2, indexCount(t, h.index))

	hits, err := h.index.Search(ctx, added[0].Embedding, 1, 0.99)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, added[0].Id, hits[0].ID)
}

func TestIngest_LegalReferences(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t)

	extracted := newDecision("0001")
	extracted.DecisionText = "Aplica-se a Lei nº 8.078/90, em especial o art. 14, ao caso."
	supplied := newDecision("0002")
	supplied.LegalReferences = []string{"CDC"}

	added, err := p.Ingest(context.Background(), extracted, supplied)
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.Equal(t, []string{"Lei 8.078/90", "Art. 14"}, added[0].LegalReferences)
	assert.Equal(t, []string{"CDC"}, added[1].LegalReferences)
}

func TestIngest_Batching(t *testing.T) {
	tests := []struct {
		count     int
		wantCalls int
	}{
		{1, 1},
		{16, 1},
		{40, 3},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d decisions", tt.count), func(t *testing.T) {
			h := newHarness(t, embedding.WithBatchSize(16))
			p := h.pipeline(t)

			decisions := make([]*core.LegalDecision, tt.count)
			for i := range decisions {
				decisions[i] = newDecision(fmt.Sprintf("%04d", i))
			}
			added, err := p.Ingest(context.Background(), decisions...)
			require.NoError(t, err)
			assert.Len(t, added, tt.count)
			assert.Equal(t, tt.wantCalls, h.embedder.CallCount())
			assert.Equal(t, tt.count, indexCount(t, h.index))
		})
	}
}

func TestIngest_SuppliedEmbedding(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t)
	ctx := context.Background()

	d := newDecision("0001")
	d.Embedding = mock.DeterministicVector("precomputed", testDim)
	added, err := p.Ingest(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, mock.DeterministicVector("precomputed", testDim), added[0].Embedding)
	assert.Equal(t, 0, h.embedder.CallCount())

	bad := newDecision("0002")
	bad.Embedding = []float32{1, 2}
	_, err = p.Ingest(ctx, bad)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)

	count, err := h.repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIngest_ValidationFailureStoresNothing(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t)
	ctx := context.Background()

	invalid := newDecision("0002")
	invalid.DecisionText = ""
	_, err := p.Ingest(ctx, newDecision("0001"), invalid)
	assert.ErrorIs(t, err, core.ErrInvalidDecision)
	assert.ErrorIs(t, err, core.ErrEmptyDecisionText)

	count, err := h.repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, h.embedder.CallCount())
}

func TestIngest_EmbeddingFailureStoresNothing(t *testing.T) {
	h := newHarness(t)
	h.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("backend down")
	}
	p := h.pipeline(t)
	ctx := context.Background()

	_, err := p.Ingest(ctx, newDecision("0001"))
	assert.ErrorIs(t, err, core.ErrEmbedding)

	count, err := h.repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIngest_Duplicate(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t)
	ctx := context.Background()

	_, err := p.Ingest(ctx, newDecision("0001"))
	require.NoError(t, err)
	_, err = p.Ingest(ctx, newDecision("0001"))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	assert.Equal(t, 1, indexCount(t, h.index))
}

func TestIngest_IndexFailureKeepsDecision(t *testing.T) {
	h := newHarness(t)
	p, err := NewPipeline(h.gen, h.repo, &failingIndex{Index: h.index})
	require.NoError(t, err)
	defer p.Release()
	ctx := context.Background()

	added, err := p.Ingest(ctx, newDecision("0001"))
	require.NoError(t, err)
	require.Len(t, added, 1)

	_, err = h.repo.GetDecision(ctx, added[0].Id)
	assert.NoError(t, err)
	assert.Zero(t, indexCount(t, h.index))
}

func TestIngest_InvalidatesCache(t *testing.T) {
	h := newHarness(t)
	c, err := cache.OpenBadgerCache("", true)
	require.NoError(t, err)
	defer c.Close()
	layer, err := cache.NewLayer(c, cache.DefaultTTLs())
	require.NoError(t, err)
	p := h.pipeline(t, WithCache(layer))
	ctx := context.Background()

	layer.SetSearch(ctx, "dano moral", []string{"stale"})
	layer.SetAnalysis(ctx, "caso", "precedents", []string{"stale"})

	_, err = p.Ingest(ctx, newDecision("0001"))
	require.NoError(t, err)

	var out []string
	assert.False(t, layer.GetSearch(ctx, "dano moral", &out))
	assert.False(t, layer.GetAnalysis(ctx, "caso", "precedents", &out))
}

func TestIngestAsync(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t, WithPoolSize(2))

	type outcome struct {
		added []*core.LegalDecision
		err   error
	}
	done := make(chan outcome, 2)
	callback := func(added []*core.LegalDecision, err error) { done <- outcome{added, err} }

	require.NoError(t, p.IngestAsync([]*core.LegalDecision{newDecision("0001")}, callback))
	require.NoError(t, p.IngestAsync([]*core.LegalDecision{newDecision("0002"), newDecision("0003")}, callback))

	total := 0
	for range 2 {
		select {
		case o := <-done:
			require.NoError(t, o.err)
			total += len(o.added)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for async ingestion")
		}
	}
	assert.Equal(t, 3, total)
	assert.Equal(t, 3, indexCount(t, h.index))
}
