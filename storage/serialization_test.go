package storage

import (
	"testing"
	"time"

	"github.com/poiesic/juris/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	id := core.IDFromContent("0001234-56.2023.8.26.0100")
	decoded, err := UnmarshalID(MarshalID(id))
	require.NoError(t, err)
	assert.Equal(t, id, decoded)

	_, err = UnmarshalID([]byte{1, 2})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalDecision(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	published := now.Add(48 * time.Hour)
	d := &core.LegalDecision{
		Id:              core.IDFromContent("REsp 1.234.567/SP"),
		CourtName:       "Superior Tribunal de Justiça",
		CourtType:       core.CourtSTJ,
		DecisionDate:    now,
		PublicationDate: &published,
		ProcessNumber:   "REsp 1.234.567/SP",
		LegalSubjects:   []string{"responsabilidade civil", "dano moral"},
		DecisionType:    core.DecisionAcordao,
		DecisionText:    "Recurso especial provido.",
		Keywords:        []string{"indenização"},
		CitationCount:   12,
		RelevanceScore:  0.8,
		Embedding:       []float32{0.6, 0.8},
		Metadata:        map[string]string{"source": "stj"},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	data, err := MarshalDecision(d)
	require.NoError(t, err)
	decoded, err := UnmarshalDecision(data)
	require.NoError(t, err)

	assert.Equal(t, d.Id, decoded.Id)
	assert.Equal(t, d.ProcessNumber, decoded.ProcessNumber)
	assert.True(t, d.DecisionDate.Equal(decoded.DecisionDate))
	require.NotNil(t, decoded.PublicationDate)
	assert.True(t, published.Equal(*decoded.PublicationDate))
	assert.Equal(t, d.LegalSubjects, decoded.LegalSubjects)
	assert.Equal(t, d.Embedding, decoded.Embedding)
	assert.Equal(t, d.Metadata, decoded.Metadata)

	_, err = UnmarshalDecision([]byte{0xc1})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestStatsAccumulator(t *testing.T) {
	now := time.Now()
	acc := NewStatsAccumulator(now)
	acc.Add(&core.LegalDecision{CourtType: core.CourtSTF, DecisionType: core.DecisionAcordao, CreatedAt: now})
	acc.Add(&core.LegalDecision{CourtType: core.CourtSTF, DecisionType: core.DecisionSumula, CreatedAt: now.Add(-60 * 24 * time.Hour)})
	acc.Add(&core.LegalDecision{CourtType: core.CourtTJ, DecisionType: core.DecisionAcordao, CreatedAt: now.Add(-time.Hour)})

	stats := acc.Result()
	assert.Equal(t, 3, stats.TotalDecisions)
	assert.Equal(t, 2, stats.ByCourtType[core.CourtSTF])
	assert.Equal(t, 1, stats.ByCourtType[core.CourtTJ])
	assert.Equal(t, 2, stats.ByDecisionType[core.DecisionAcordao])
	assert.Equal(t, 2, stats.RecentDecisions)
}
