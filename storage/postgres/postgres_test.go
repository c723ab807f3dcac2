package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/poiesic/juris/core"
	"github.com/poiesic/juris/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDim = 3

func TestFormatVector(t *testing.T) {
	assert.Equal(t, "[]", formatVector(nil))
	assert.Equal(t, "[0.5,-1,0.25]", formatVector([]float32{0.5, -1, 0.25}))
	assert.Nil(t, nullableVector(nil))
	assert.Equal(t, "[1]", *nullableVector([]float32{1}))
}

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv("JURIS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("JURIS_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	repo, err := Open(ctx, dsn, testDim)
	require.NoError(t, err)
	_, err = repo.Pool().Exec(ctx, `TRUNCATE legal_decisions`)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func decision(pn string, court core.CourtType, emb []float32) *core.LegalDecision {
	return &core.LegalDecision{
		CourtName:     string(court),
		CourtType:     court,
		DecisionDate:  time.Date(2021, 4, 1, 0, 0, 0, 0, time.UTC),
		ProcessNumber: pn,
		DecisionType:  core.DecisionAcordao,
		DecisionText:  "Texto " + pn,
		LegalSubjects: []string{"dano moral"},
		Embedding:     emb,
	}
}

func TestRepository(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	a := decision("pg-a", core.CourtSTJ, nil)
	b := decision("pg-b", core.CourtTJ, nil)
	_, err := repo.AddDecisions(ctx, a, b)
	require.NoError(t, err)

	_, err = repo.AddDecisions(ctx, decision("pg-a", core.CourtSTJ, nil))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := repo.GetDecisionByProcessNumber(ctx, "pg-b")
	require.NoError(t, err)
	assert.Equal(t, b.Id, got.Id)

	list, err := repo.GetDecisions(ctx, b.Id, 42, a.Id)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.Id, list[0].Id)

	filtered, err := repo.Filter(ctx, []core.ID{a.Id, b.Id}, &core.SearchFilters{CourtTypes: []core.CourtType{core.CourtTJ}})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "pg-b", filtered[0].ProcessNumber)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, repo.DeleteDecisions(ctx, a.Id))
	_, err = repo.GetDecision(ctx, a.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	shared := NewRepository(repo.Pool())
	require.NoError(t, shared.Close())
	_, err = shared.Count(ctx)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	_, err = shared.GetDecisionByProcessNumber(ctx, "pg-b")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIndex(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	decisions := []*core.LegalDecision{
		decision("v1", core.CourtSTJ, nil),
		decision("v2", core.CourtSTJ, nil),
		decision("v3", core.CourtSTJ, nil),
	}
	_, err := repo.AddDecisions(ctx, decisions...)
	require.NoError(t, err)

	idx, err := NewIndex(repo.Pool(), testDim)
	require.NoError(t, err)

	vectors := [][]float32{{0.1, 0.9, 0.2}, {0.8, 0.2, 0.1}, {0.5, 0.5, 0.5}}
	ids := []core.ID{decisions[0].Id, decisions[1].Id, decisions[2].Id}
	require.NoError(t, idx.Add(ctx, vectors, ids))

	hits, err := idx.Search(ctx, []float32{0.9, 0.1, 0}, 3, -1)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, decisions[1].Id, hits[0].ID)
	assert.Equal(t, decisions[2].Id, hits[1].ID)
	assert.Equal(t, decisions[0].Id, hits[2].ID)

	hits, err = idx.Search(ctx, []float32{0.9, 0.1, 0}, 3, 0.9)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, BackendPgvector, stats.Backend)

	assert.ErrorIs(t, idx.Add(ctx, [][]float32{{1, 0, 0}}, []core.ID{99}), storage.ErrNotFound)
}
