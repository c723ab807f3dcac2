package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/juris/ai"
	"github.com/poiesic/juris/blob"
	"github.com/poiesic/juris/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "juris.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func lookupFrom(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ai.ProviderLocal, cfg.AI.Provider)
	assert.Equal(t, StoreBadger, cfg.Store.Backend)
	assert.Equal(t, IndexFlat, cfg.Index.Backend)
	assert.Equal(t, 0.7, cfg.Search.Threshold)
	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.Equal(t, 50, cfg.Search.ResultLimit)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
ai:
  provider: ollama
  embedding_model: nomic-embed-text
  dimension: 768
store:
  path: /var/lib/juris
cache:
  ttl:
    search: 15m
embedding:
  batch_size: 8
  base_delay: 500ms
similarity:
  weights:
    legal: 0.5
search:
  threshold: 0.6
  max_results: 20
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ai.ProviderOllama, cfg.AI.Provider)
	assert.Equal(t, "http://localhost:11434", cfg.AI.Host)
	assert.Equal(t, 768, cfg.AI.Dimension)
	assert.Equal(t, "/var/lib/juris", cfg.Store.Path)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL.Search)
	assert.Equal(t, 8, cfg.Embedding.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Embedding.BaseDelay)
	assert.Equal(t, 0.5, cfg.Similarity.Weights[core.DimensionLegal])
	assert.Equal(t, 0.6, cfg.Search.Threshold)
	assert.Equal(t, 20, cfg.Search.MaxResults)

	// Untouched fields keep their defaults.
	assert.Equal(t, StoreBadger, cfg.Store.Backend)
	assert.Equal(t, 3, cfg.Embedding.MaxAttempts)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("JURIS_SEARCH_MAX_RESULTS", "25")
	t.Setenv("JURIS_STORE_IN_MEMORY", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Search.MaxResults)
	assert.True(t, cfg.Store.InMemory)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrConfiguration)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "search: [unterminated"))
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := Load(writeConfig(t, "search:\n  threshold: 1.5\n"))
		assert.ErrorIs(t, err, core.ErrConfiguration)
		assert.ErrorIs(t, err, ErrInvalidValue)
	})
}

func TestApplyEnv(t *testing.T) {
	t.Run("overlays values", func(t *testing.T) {
		cfg := Default()
		err := cfg.applyEnv(lookupFrom(map[string]string{
			"JURIS_AI_PROVIDER":          "openai",
			"JURIS_AI_API_KEY":           "sk-test",
			"JURIS_AI_DIMENSION":         "1536",
			"JURIS_AI_EMBEDDING_TIMEOUT": "5s",
			"JURIS_STORE_BACKEND":        "postgres",
			"JURIS_STORE_DSN":            "postgres://localhost/juris",
			"JURIS_INDEX_BACKEND":        "pgvector",
			"JURIS_BLOB_KIND":            "s3",
			"JURIS_BLOB_BUCKET":          "juris-index",
			"JURIS_SEARCH_THRESHOLD":     "0.55",
			"JURIS_SEARCH_EXPLANATIONS":  "1",
			"JURIS_INGESTION_POOL_SIZE":  "4",
			"UNRELATED_SEARCH_THRESHOLD": "0.1",
		}))
		require.NoError(t, err)

		assert.Equal(t, ai.ProviderOpenAI, cfg.AI.Provider)
		assert.Equal(t, "sk-test", cfg.AI.APIKey)
		assert.Equal(t, 1536, cfg.AI.Dimension)
		assert.Equal(t, 5*time.Second, cfg.AI.EmbeddingTimeout)
		assert.Equal(t, StorePostgres, cfg.Store.Backend)
		assert.Equal(t, IndexPgvector, cfg.Index.Backend)
		assert.Equal(t, blob.KindS3, cfg.Blob.Kind)
		assert.Equal(t, "juris-index", cfg.Blob.Bucket)
		assert.Equal(t, 0.55, cfg.Search.Threshold)
		assert.True(t, cfg.Search.Explanations)
		assert.Equal(t, 4, cfg.Ingestion.PoolSize)
		require.NoError(t, cfg.Validate())
	})

	t.Run("unparseable value", func(t *testing.T) {
		cfg := Default()
		err := cfg.applyEnv(lookupFrom(map[string]string{"JURIS_SEARCH_MAX_RESULTS": "ten"}))
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrConfiguration)
		assert.ErrorIs(t, err, ErrInvalidVariable)

		e, ok := core.AsError(err)
		require.True(t, ok)
		assert.Equal(t, "JURIS_SEARCH_MAX_RESULTS", e.Details["variable"])
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"unknown store", func(c *Config) { c.Store.Backend = "mongo" }, ErrUnknownStore},
		{"badger without path", func(c *Config) { c.Store.Path = "" }, ErrStorePath},
		{"postgres without dsn", func(c *Config) { c.Store.Backend = StorePostgres }, ErrDSNRequired},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "redis" }, ErrUnknownCache},
		{"unknown index", func(c *Config) { c.Index.Backend = "hnsw" }, ErrUnknownIndex},
		{"pgvector without postgres", func(c *Config) { c.Index.Backend = IndexPgvector }, ErrPgvectorStore},
		{"s3 without bucket", func(c *Config) { c.Blob.Kind = blob.KindS3 }, blob.ErrBucketRequired},
		{"zero batch size", func(c *Config) { c.Embedding.BatchSize = 0 }, ErrInvalidValue},
		{"negative weight", func(c *Config) {
			c.Similarity.Weights = map[core.SimilarityDimension]float64{core.DimensionLegal: -0.1}
		}, ErrInvalidValue},
		{"unknown weight dimension", func(c *Config) {
			c.Similarity.Weights = map[core.SimilarityDimension]float64{"temporal": 0.1}
		}, ErrInvalidValue},
		{"zero threshold", func(c *Config) { c.Search.Threshold = 0 }, ErrInvalidValue},
		{"limit below max results", func(c *Config) { c.Search.ResultLimit = 5 }, ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrConfiguration)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	t.Run("gemini without key", func(t *testing.T) {
		cfg := Default()
		cfg.AI.Provider = ai.ProviderGemini
		err := cfg.Validate()
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})

	t.Run("transient index skips blob checks", func(t *testing.T) {
		cfg := Default()
		cfg.Index.Persist = false
		cfg.Blob.Kind = blob.KindS3
		assert.NoError(t, cfg.Validate())
	})

	t.Run("postgres with pgvector", func(t *testing.T) {
		cfg := Default()
		cfg.Store = StoreConfig{Backend: StorePostgres, DSN: "postgres://localhost/juris"}
		cfg.Index.Backend = IndexPgvector
		assert.NoError(t, cfg.Validate())
	})
}
