package juris

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/juris/ai/mock"
	"github.com/poiesic/juris/blob"
	"github.com/poiesic/juris/config"
	"github.com/poiesic/juris/core"
	"github.com/poiesic/juris/search"
	"github.com/poiesic/juris/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDim = 3

// keywordVector maps texts onto three fixed directions so scores are
// predictable: a query about negativação scores 1.0 against 102, 0.76
// against 103 and 0.36 against 101.
func keywordVector(text string) []float32 {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "despejo"):
		return []float32{0.1, 0.9, 0.2}
	case strings.Contains(lower, "negativa"):
		return []float32{0.8, 0.2, 0.1}
	default:
		return []float32{0.5, 0.5, 0.5}
	}
}

func newKeywordProvider(opts ...mock.ProviderOption) *mock.MockProvider {
	embedder := mock.NewMockEmbedder(testDim)
	embedder.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		return keywordVector(text), nil
	}
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = keywordVector(text)
		}
		return out, nil
	}
	return mock.NewMockProvider(append([]mock.ProviderOption{mock.WithEmbedder(embedder)}, opts...)...)
}

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.AI.Dimension = testDim
	cfg.Store.InMemory = true
	cfg.Index.Persist = false
	cfg.Embedding.BaseDelay = time.Millisecond
	cfg.Embedding.MaxDelay = time.Millisecond
	return cfg
}

func sampleDecisions() []*core.LegalDecision {
	return []*core.LegalDecision{
		{
			ProcessNumber: "101", CourtName: "TJSP", CourtType: core.CourtTJ, DecisionType: core.DecisionAcordao,
			DecisionDate:  time.Date(2021, 5, 10, 0, 0, 0, 0, time.UTC),
			DecisionText:  "Ação de despejo por falta de pagamento, art. 9º da Lei nº 8.245/1991.",
			LegalSubjects: []string{"locação"},
		},
		{
			ProcessNumber: "102", CourtName: "TJRJ", CourtType: core.CourtTJ, DecisionType: core.DecisionAcordao,
			DecisionDate:  time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC),
			Summary:       "Dano moral por negativação indevida.",
			DecisionText:  "A inscrição indevida gera dano moral presumido, conforme o art. 14 do CDC.",
			LegalSubjects: []string{"responsabilidade civil"},
			CitationCount: 10,
		},
		{
			ProcessNumber: "103", CourtName: "STF", CourtType: core.CourtSTF, DecisionType: core.DecisionAcordao,
			DecisionDate:  time.Date(2019, 8, 20, 0, 0, 0, 0, time.UTC),
			DecisionText:  "Indenização por dano moral decorrente de ato do Estado, art. 37 da CF.",
			LegalSubjects: []string{"responsabilidade civil"},
		},
	}
}

func openTestEngine(t *testing.T, cfg *config.Config, opts ...Option) *Engine {
	t.Helper()
	e, err := Open(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestOpen(t *testing.T) {
	t.Run("local provider in memory", func(t *testing.T) {
		cfg := config.Default()
		cfg.Store.InMemory = true
		cfg.Index.Persist = false

		e, err := Open(context.Background(), cfg)
		require.NoError(t, err)

		assert.NotNil(t, e.Repository())
		assert.NotNil(t, e.Index())
		assert.NotNil(t, e.Generator())
		assert.NotNil(t, e.Similarity())
		assert.NotNil(t, e.Searcher())
		assert.NotNil(t, e.Pipeline())
		assert.Equal(t, 384, e.Generator().Dimension())

		assert.NoError(t, e.Close())
	})

	t.Run("invalid configuration", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.Index.Backend = config.IndexPgvector

		e, err := Open(context.Background(), cfg)
		assert.Nil(t, e)
		assert.ErrorIs(t, err, core.ErrConfiguration)
		assert.ErrorIs(t, err, config.ErrPgvectorStore)
	})

	t.Run("explanations without completer", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.Search.Explanations = true
		provider := newKeywordProvider(mock.WithoutCompletion())

		e, err := Open(context.Background(), cfg, WithProvider(provider))
		assert.Nil(t, e)
		assert.ErrorIs(t, err, core.ErrConfiguration)
		assert.ErrorIs(t, err, search.ErrExplanationsUnavailable)
		assert.True(t, provider.Closed())
	})

	t.Run("close releases the provider", func(t *testing.T) {
		provider := newKeywordProvider()
		e, err := Open(context.Background(), memoryConfig(), WithProvider(provider))
		require.NoError(t, err)
		require.NoError(t, e.Close())
		assert.True(t, provider.Closed())
	})
}

func TestEngine_IngestAndSearch(t *testing.T) {
	ctx := context.Background()
	e := openTestEngine(t, memoryConfig(), WithProvider(newKeywordProvider()))

	added, err := e.Ingest(ctx, sampleDecisions()...)
	require.NoError(t, err)
	require.Len(t, added, 3)

	stats, err := e.IndexStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, testDim, stats.Dimension)

	results, err := e.Search(ctx, search.SearchRequest{Query: "dano moral por negativação indevida"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "102", results[0].Decision.ProcessNumber)
	assert.Equal(t, "103", results[1].Decision.ProcessNumber)
	assert.InDelta(t, 1.0, results[0].SimilarityScore, 1e-6)
	assert.GreaterOrEqual(t, results[0].SimilarityScore, results[1].SimilarityScore)

	t.Run("filters", func(t *testing.T) {
		results, err := e.Search(ctx, search.SearchRequest{
			Query:   "dano moral por negativação indevida",
			Filters: &core.SearchFilters{CourtTypes: []core.CourtType{core.CourtSTF}},
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "103", results[0].Decision.ProcessNumber)
	})

	t.Run("empty query is a search error", func(t *testing.T) {
		_, err := e.Search(ctx, search.SearchRequest{Query: "   "})
		assert.ErrorIs(t, err, core.ErrSearch)
	})

	t.Run("statistics", func(t *testing.T) {
		st, err := e.Statistics(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, st.TotalDecisions)
		assert.Equal(t, 2, st.ByCourtType[core.CourtTJ])
		assert.Equal(t, 1, st.ByCourtType[core.CourtSTF])
	})
}

func TestEngine_CompareCases(t *testing.T) {
	e := openTestEngine(t, memoryConfig(), WithProvider(newKeywordProvider()))

	base := core.CaseData{ID: "base", DecisionText: "Dano moral por negativação.",
		LegalSubjects: []string{"responsabilidade civil"}, Keywords: []string{"negativação"}}
	other := core.CaseData{ID: "other", DecisionText: "Negativação indevida do nome.",
		LegalSubjects: []string{"responsabilidade civil"}, Keywords: []string{"negativação"}}

	results, err := e.CompareCases(context.Background(), search.CompareRequest{
		Base:       base,
		Other:      &other,
		Dimensions: []core.SimilarityDimension{core.DimensionSemantic, core.DimensionLegal},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "other", results[0].CaseID)
	assert.InDelta(t, 1.0, results[0].DimensionScores[core.DimensionSemantic], 1e-6)
	assert.InDelta(t, 1.0, results[0].DimensionScores[core.DimensionLegal], 1e-9)

	_, err = e.CompareCases(context.Background(), search.CompareRequest{Base: base})
	assert.ErrorIs(t, err, core.ErrSearch)
}

func TestEngine_StoredCase(t *testing.T) {
	ctx := context.Background()
	e := openTestEngine(t, memoryConfig(), WithProvider(newKeywordProvider()))
	_, err := e.Ingest(ctx, sampleDecisions()...)
	require.NoError(t, err)

	tj, err := e.StoredCase(ctx, "102")
	require.NoError(t, err)
	assert.Equal(t, "102", tj.ID)
	assert.Equal(t, core.CourtTJ, tj.CourtType)
	require.NotNil(t, tj.DecisionDate)
	stf, err := e.StoredCase(ctx, "103")
	require.NoError(t, err)

	results, err := e.CompareCases(ctx, search.CompareRequest{
		Base:       tj,
		Other:      &stf,
		Dimensions: []core.SimilarityDimension{core.DimensionProcedural, core.DimensionContextual},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "103", results[0].CaseID)
	assert.Equal(t, 0.5, results[0].DimensionScores[core.DimensionProcedural])
	assert.InDelta(t, 1-924.0/3650, results[0].DimensionScores[core.DimensionContextual], 1e-9)

	_, err = e.StoredCase(ctx, "999")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEngine_FindPrecedents(t *testing.T) {
	ctx := context.Background()
	e := openTestEngine(t, memoryConfig(), WithProvider(newKeywordProvider()))
	_, err := e.Ingest(ctx, sampleDecisions()...)
	require.NoError(t, err)

	precedents, err := e.FindPrecedents(ctx, search.NewPrecedentRequest(core.CaseData{
		ID:            "case-1",
		Summary:       "Negativação indevida em cadastro de inadimplentes.",
		LegalSubjects: []string{"responsabilidade civil"},
	}))
	require.NoError(t, err)
	require.Len(t, precedents, 2)

	// The STF decision outranks the closer TJ match on authority.
	assert.Equal(t, "103", precedents[0].Decision.ProcessNumber)
	assert.Equal(t, "102", precedents[1].Decision.ProcessNumber)
	assert.GreaterOrEqual(t, precedents[0].PrecedentStrength, precedents[1].PrecedentStrength)
}

func TestEngine_RebuildIndex(t *testing.T) {
	ctx := context.Background()
	e := openTestEngine(t, memoryConfig(), WithProvider(newKeywordProvider()))
	_, err := e.Ingest(ctx, sampleDecisions()...)
	require.NoError(t, err)

	var progress bytes.Buffer
	result, err := e.RebuildIndex(ctx, true, &progress)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Decisions)
	assert.Equal(t, 3, result.Indexed)
	assert.Equal(t, 3, result.Reembedded)
	assert.Contains(t, progress.String(), "Rebuild complete")

	stats, err := e.IndexStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Count)
}

func TestEngine_PersistedIndex(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfg := memoryConfig()
	cfg.Store.InMemory = false
	cfg.Store.Path = filepath.Join(dir, "decisions")
	cfg.Index.Persist = true
	cfg.Blob = blob.Config{Kind: blob.KindLocal, Root: filepath.Join(dir, "blobs")}

	e, err := Open(ctx, cfg, WithProvider(newKeywordProvider()))
	require.NoError(t, err)
	_, err = e.Ingest(ctx, sampleDecisions()...)
	require.NoError(t, err)
	require.NoError(t, e.Close())

	reopened := openTestEngine(t, cfg, WithProvider(newKeywordProvider()))
	stats, err := reopened.IndexStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Count)

	results, err := reopened.Search(ctx, search.SearchRequest{Query: "negativação"})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "102", results[0].Decision.ProcessNumber)
}
