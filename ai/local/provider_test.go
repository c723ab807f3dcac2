package local

import (
	"context"
	"math"
	"testing"

	"github.com/poiesic/juris/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func TestProvider_Embedder(t *testing.T) {
	p, err := NewProvider(ai.NewConfig(ai.WithDimension(64)))
	require.NoError(t, err)
	defer p.Close()

	ctx := context.Background()
	e := p.Embedder()

	v1, err := e.EmbedText(ctx, "Indenização por dano moral decorrente de negativação indevida")
	require.NoError(t, err)
	assert.Len(t, v1, 64)
	assert.InDelta(t, 1.0, norm(v1), 1e-5)

	again, err := e.EmbedText(ctx, "Indenização por dano moral decorrente de negativação indevida")
	require.NoError(t, err)
	assert.Equal(t, v1, again)

	related, err := e.EmbedText(ctx, "dano moral por negativação indevida do nome")
	require.NoError(t, err)
	unrelated, err := e.EmbedText(ctx, "usucapião extraordinária de imóvel rural")
	require.NoError(t, err)
	assert.Greater(t, dot(v1, related), dot(v1, unrelated))
}

func TestProvider_EmptyText(t *testing.T) {
	p, err := NewProvider(ai.NewConfig(ai.WithDimension(16)))
	require.NoError(t, err)

	v, err := p.Embedder().EmbedText(context.Background(), "de da do")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 16), v)
}

func TestProvider_EmbedTexts(t *testing.T) {
	p, err := NewProvider(ai.NewConfig(ai.WithDimension(32)))
	require.NoError(t, err)

	ctx := context.Background()
	vecs, err := p.Embedder().EmbedTexts(ctx, []string{"recurso especial", "habeas corpus"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	single, err := p.Embedder().EmbedText(ctx, "habeas corpus")
	require.NoError(t, err)
	assert.Equal(t, single, vecs[1])
}

func TestProvider_EmbedderFor(t *testing.T) {
	p, err := NewProvider(ai.NewConfig(ai.WithDimension(32)))
	require.NoError(t, err)

	ctx := context.Background()
	other, err := p.EmbedderFor("another-model")
	require.NoError(t, err)

	a, err := p.Embedder().EmbedText(ctx, "recurso especial")
	require.NoError(t, err)
	b, err := other.EmbedText(ctx, "recurso especial")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, b, 32)

	_, err = p.EmbedderFor(" ")
	assert.ErrorIs(t, err, ai.ErrUnknownModel)
}

func TestProvider_Capabilities(t *testing.T) {
	p, err := NewProvider(ai.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, "local", p.Name())
	assert.Nil(t, p.Completer())
	info := p.Model()
	assert.Equal(t, 384, info.Dimension)
	assert.Equal(t, "sentence-transformers/all-MiniLM-L6-v2", info.Name)
}

func TestProvider_CancelledContext(t *testing.T) {
	p, err := NewProvider(ai.DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Embedder().EmbedText(ctx, "texto")
	assert.ErrorIs(t, err, context.Canceled)
}
