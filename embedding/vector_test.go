package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/juris/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
	assert.InDelta(t, 1.0, Norm(v), 1e-6)

	for _, text := range []string{"a", "dano moral", "recurso especial"} {
		assert.InDelta(t, 1.0, Norm(Normalize(mock.DeterministicVector(text, 384))), 1e-5)
	}

	zero := Normalize([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, zero)
}

func TestSimilarity(t *testing.T) {
	v := mock.DeterministicVector("responsabilidade civil", 64)
	neg := make([]float32, len(v))
	for i, x := range v {
		neg[i] = -x
	}

	assert.InDelta(t, 1.0, Similarity(v, v), 1e-6)
	assert.InDelta(t, -1.0, Similarity(v, neg), 1e-6)
	assert.Equal(t, 0.0, Similarity(v, make([]float32, len(v))))
	assert.Equal(t, 0.0, Similarity(v, v[:10]))
	assert.Equal(t, 0.0, Similarity(nil, nil))
	assert.InDelta(t, 0.0, Similarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
}

func TestDot(t *testing.T) {
	assert.Equal(t, float32(11), Dot([]float32{1, 2}, []float32{3, 4}))
	assert.Equal(t, float32(3), Dot([]float32{1, 2, 9}, []float32{3}))
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	t.Run("success on first try", func(t *testing.T) {
		attempts := 0
		err := RetryWithBackoff(ctx, func() error { attempts++; return nil }, 3, time.Millisecond, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("all attempts fail", func(t *testing.T) {
		expected := errors.New("persistent error")
		attempts := 0
		err := RetryWithBackoff(ctx, func() error { attempts++; return expected }, 3, time.Millisecond, 0)
		assert.Equal(t, expected, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("delay is capped", func(t *testing.T) {
		start := time.Now()
		attempts := 0
		err := RetryWithBackoff(ctx, func() error { attempts++; return errors.New("x") }, 4, 20*time.Millisecond, 20*time.Millisecond)
		require.Error(t, err)
		assert.Equal(t, 4, attempts)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})

	t.Run("context canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		attempts := 0
		err := RetryWithBackoff(ctx, func() error {
			attempts++
			if attempts == 2 {
				cancel()
			}
			return errors.New("error")
		}, 10, time.Millisecond, 0)
		assert.ErrorIs(t, err, context.Canceled)
		assert.LessOrEqual(t, attempts, 2)
	})

	t.Run("invalid attempts", func(t *testing.T) {
		err := RetryWithBackoff(ctx, func() error { return nil }, 0, time.Millisecond, 0)
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
	})
}
