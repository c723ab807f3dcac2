package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ProviderLocal, cfg.Provider)
	assert.Equal(t, "sentence-transformers/all-MiniLM-L6-v2", cfg.EmbeddingModel)
	assert.Equal(t, 384, cfg.Dimension)
	assert.Equal(t, 256, cfg.MaxLength)
	assert.Equal(t, 30*time.Second, cfg.EmbeddingTimeout)
	assert.Equal(t, 60*time.Second, cfg.CompletionTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		assert.Equal(t, DefaultConfig(), NewConfig())
	})

	t.Run("with options", func(t *testing.T) {
		cfg := NewConfig(
			WithProvider(ProviderOpenAI),
			WithHost("https://api.openai.com"),
			WithAPIKey("sk-test"),
			WithEmbeddingModel("text-embedding-3-small"),
			WithCompletionModel("gpt-4o-mini"),
			WithDimension(1536),
			WithTimeouts(5*time.Second, 10*time.Second),
		)

		assert.Equal(t, ProviderOpenAI, cfg.Provider)
		assert.Equal(t, "https://api.openai.com", cfg.Host)
		assert.Equal(t, "sk-test", cfg.APIKey)
		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, "gpt-4o-mini", cfg.CompletionModel)
		assert.Equal(t, 1536, cfg.Dimension)
		assert.Equal(t, 5*time.Second, cfg.EmbeddingTimeout)
		assert.Equal(t, 10*time.Second, cfg.CompletionTimeout)
	})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		provider ProviderKind
		host     string
		want     string
	}{
		{"openai adds v1", ProviderOpenAI, "https://api.openai.com", "https://api.openai.com/v1"},
		{"openai keeps v1", ProviderOpenAI, "https://api.openai.com/v1/", "https://api.openai.com/v1"},
		{"openai empty host", ProviderOpenAI, "", ""},
		{"ollama strips v1", ProviderOllama, "http://gpu:11434/v1", "http://gpu:11434"},
		{"ollama default host", ProviderOllama, "", "http://localhost:11434"},
		{"local untouched", ProviderLocal, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(WithProvider(tt.provider), WithHost(tt.host))
			cfg.Normalize()
			assert.Equal(t, tt.want, cfg.Host)
		})
	}

	t.Run("provider is case-insensitive", func(t *testing.T) {
		cfg := NewConfig(WithProvider(" OpenAI "))
		cfg.Normalize()
		assert.Equal(t, ProviderOpenAI, cfg.Provider)
	})

	t.Run("zero timeouts get defaults", func(t *testing.T) {
		cfg := NewConfig(WithTimeouts(0, -1))
		cfg.Normalize()
		assert.Equal(t, 30*time.Second, cfg.EmbeddingTimeout)
		assert.Equal(t, 60*time.Second, cfg.CompletionTimeout)
	})
}

func TestValidate(t *testing.T) {
	t.Run("unknown provider", func(t *testing.T) {
		err := NewConfig(WithProvider("bedrock")).Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownProvider)
	})

	t.Run("openai needs key or host", func(t *testing.T) {
		assert.Error(t, NewConfig(WithProvider(ProviderOpenAI)).Validate())
		assert.NoError(t, NewConfig(WithProvider(ProviderOpenAI), WithAPIKey("k")).Validate())
		assert.NoError(t, NewConfig(WithProvider(ProviderOpenAI), WithHost("http://vllm:8000")).Validate())
	})

	t.Run("gemini needs key", func(t *testing.T) {
		assert.Error(t, NewConfig(WithProvider(ProviderGemini)).Validate())
		assert.NoError(t, NewConfig(WithProvider(ProviderGemini), WithAPIKey("k")).Validate())
	})

	t.Run("ollama needs nothing extra", func(t *testing.T) {
		assert.NoError(t, NewConfig(WithProvider(ProviderOllama)).Validate())
	})

	t.Run("missing model", func(t *testing.T) {
		assert.Error(t, NewConfig(WithEmbeddingModel("")).Validate())
	})

	t.Run("non-positive dimension", func(t *testing.T) {
		assert.Error(t, NewConfig(WithDimension(0)).Validate())
	})
}
