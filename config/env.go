package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/poiesic/juris/ai"
	"github.com/poiesic/juris/blob"
	"github.com/poiesic/juris/core"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "JURIS_"

type envVar struct {
	name string
	set  func(*Config, string) error
}

func str(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func integer(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func float(field func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*field(c) = f
		return nil
	}
}

func boolean(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

func duration(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}

var envVars = []envVar{
	{"AI_PROVIDER", func(c *Config, v string) error { c.AI.Provider = ai.ProviderKind(v); return nil }},
	{"AI_HOST", str(func(c *Config) *string { return &c.AI.Host })},
	{"AI_API_KEY", str(func(c *Config) *string { return &c.AI.APIKey })},
	{"AI_EMBEDDING_MODEL", str(func(c *Config) *string { return &c.AI.EmbeddingModel })},
	{"AI_COMPLETION_MODEL", str(func(c *Config) *string { return &c.AI.CompletionModel })},
	{"AI_DIMENSION", integer(func(c *Config) *int { return &c.AI.Dimension })},
	{"AI_EMBEDDING_TIMEOUT", duration(func(c *Config) *time.Duration { return &c.AI.EmbeddingTimeout })},
	{"AI_COMPLETION_TIMEOUT", duration(func(c *Config) *time.Duration { return &c.AI.CompletionTimeout })},

	{"STORE_BACKEND", str(func(c *Config) *string { return &c.Store.Backend })},
	{"STORE_PATH", str(func(c *Config) *string { return &c.Store.Path })},
	{"STORE_IN_MEMORY", boolean(func(c *Config) *bool { return &c.Store.InMemory })},
	{"STORE_DSN", str(func(c *Config) *string { return &c.Store.DSN })},

	{"CACHE_BACKEND", str(func(c *Config) *string { return &c.Cache.Backend })},
	{"CACHE_PATH", str(func(c *Config) *string { return &c.Cache.Path })},

	{"INDEX_BACKEND", str(func(c *Config) *string { return &c.Index.Backend })},
	{"INDEX_NAME", str(func(c *Config) *string { return &c.Index.Name })},
	{"INDEX_PERSIST", boolean(func(c *Config) *bool { return &c.Index.Persist })},

	{"BLOB_KIND", func(c *Config, v string) error { c.Blob.Kind = blob.Kind(v); return nil }},
	{"BLOB_ROOT", str(func(c *Config) *string { return &c.Blob.Root })},
	{"BLOB_BUCKET", str(func(c *Config) *string { return &c.Blob.Bucket })},
	{"BLOB_PREFIX", str(func(c *Config) *string { return &c.Blob.Prefix })},
	{"BLOB_REGION", str(func(c *Config) *string { return &c.Blob.Region })},
	{"BLOB_ENDPOINT", str(func(c *Config) *string { return &c.Blob.Endpoint })},
	{"BLOB_ACCESS_KEY", str(func(c *Config) *string { return &c.Blob.AccessKey })},
	{"BLOB_SECRET_KEY", str(func(c *Config) *string { return &c.Blob.SecretKey })},

	{"EMBEDDING_BATCH_SIZE", integer(func(c *Config) *int { return &c.Embedding.BatchSize })},
	{"EMBEDDING_MAX_ATTEMPTS", integer(func(c *Config) *int { return &c.Embedding.MaxAttempts })},

	{"SIMILARITY_MATCH_THRESHOLD", float(func(c *Config) *float64 { return &c.Similarity.MatchThreshold })},

	{"SEARCH_THRESHOLD", float(func(c *Config) *float64 { return &c.Search.Threshold })},
	{"SEARCH_MAX_RESULTS", integer(func(c *Config) *int { return &c.Search.MaxResults })},
	{"SEARCH_RESULT_LIMIT", integer(func(c *Config) *int { return &c.Search.ResultLimit })},
	{"SEARCH_POOL_SIZE", integer(func(c *Config) *int { return &c.Search.PoolSize })},
	{"SEARCH_EXPLANATIONS", boolean(func(c *Config) *bool { return &c.Search.Explanations })},

	{"INGESTION_POOL_SIZE", integer(func(c *Config) *int { return &c.Ingestion.PoolSize })},
}

// applyEnv overlays every JURIS_* variable that lookup finds.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	for _, ev := range envVars {
		v, ok := lookup(EnvPrefix + ev.name)
		if !ok {
			continue
		}
		if err := ev.set(c, v); err != nil {
			return core.ConfigurationError("invalid environment variable",
				fmt.Errorf("%w: %s%s: %w", ErrInvalidVariable, EnvPrefix, ev.name, err)).
				WithDetail("variable", EnvPrefix+ev.name)
		}
	}
	return nil
}
