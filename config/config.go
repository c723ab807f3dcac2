// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/juris/ai"
	"github.com/poiesic/juris/blob"
	"github.com/poiesic/juris/cache"
	"github.com/poiesic/juris/core"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreBadger   = "badger"
	StorePostgres = "postgres"
)

// Cache backends.
const (
	CacheBadger = "badger"
	CacheNone   = "none"
)

// Index backends.
const (
	IndexFlat     = "flat"
	IndexPgvector = "pgvector"
)

// Config is the root configuration.
type Config struct {
	AI         ai.Config        `yaml:"ai"`
	Store      StoreConfig      `yaml:"store"`
	Cache      CacheConfig      `yaml:"cache"`
	Index      IndexConfig      `yaml:"index"`
	Blob       blob.Config      `yaml:"blob"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Similarity SimilarityConfig `yaml:"similarity"`
	Search     SearchConfig     `yaml:"search"`
	Ingestion  IngestionConfig  `yaml:"ingestion"`
}

// StoreConfig selects the authoritative decision store.
type StoreConfig struct {
	Backend  string `yaml:"backend"`
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
	DSN      string `yaml:"dsn"`
}

// CacheConfig selects the cache. The badger cache shares the badger store
// when Path is empty, and opens its own database otherwise.
type CacheConfig struct {
	Backend string     `yaml:"backend"`
	Path    string     `yaml:"path"`
	TTL     cache.TTLs `yaml:"ttl"`
}

// IndexConfig selects the vector index. Name is the blob name of the flat
// index snapshot; its id map is stored next to it with an .ids suffix.
type IndexConfig struct {
	Backend string `yaml:"backend"`
	Name    string `yaml:"name"`
	Persist bool   `yaml:"persist"`
}

type EmbeddingConfig struct {
	BatchSize   int           `yaml:"batch_size"`
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

type SimilarityConfig struct {
	MatchThreshold float64 `yaml:"match_threshold"`
	// Weights overrides individual dimension weights.
	Weights map[core.SimilarityDimension]float64 `yaml:"weights"`
}

type SearchConfig struct {
	Threshold   float64 `yaml:"threshold"`
	MaxResults  int     `yaml:"max_results"`
	ResultLimit int     `yaml:"result_limit"`
	PoolSize    int     `yaml:"pool_size"`
	// Explanations enables LLM relevance explanations. The AI provider must
	// offer a completer.
	Explanations bool `yaml:"explanations"`
}

type IngestionConfig struct {
	PoolSize int `yaml:"pool_size"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		AI:    *ai.DefaultConfig(),
		Store: StoreConfig{Backend: StoreBadger, Path: "data/decisions"},
		Cache: CacheConfig{Backend: CacheBadger, TTL: cache.DefaultTTLs()},
		Index: IndexConfig{Backend: IndexFlat, Name: "index", Persist: true},
		Blob:  blob.DefaultConfig(),
		Embedding: EmbeddingConfig{
			BatchSize:   32,
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    10 * time.Second,
		},
		Similarity: SimilarityConfig{MatchThreshold: 0.7},
		Search: SearchConfig{
			Threshold:   0.7,
			MaxResults:  10,
			ResultLimit: 50,
		},
	}
}

// Load builds a validated configuration. An empty path skips the YAML file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, core.ConfigurationError("failed to read config file", err).WithDetail("path", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, core.ConfigurationError("failed to parse config file", err).WithDetail("path", path)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, core.ConfigurationError("failed to load .env", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section, normalizing the AI section first.
func (c *Config) Validate() error {
	if err := c.AI.Validate(); err != nil {
		return core.ConfigurationError("invalid ai configuration", err)
	}
	if c.AI.Dimension <= 0 {
		return invalid("ai.dimension", c.AI.Dimension)
	}

	switch c.Store.Backend {
	case StoreBadger:
		if c.Store.Path == "" && !c.Store.InMemory {
			return core.ConfigurationError("invalid store configuration", ErrStorePath)
		}
	case StorePostgres:
		if c.Store.DSN == "" {
			return core.ConfigurationError("invalid store configuration", ErrDSNRequired)
		}
	default:
		return core.ConfigurationError("invalid store configuration",
			fmt.Errorf("%w: %q", ErrUnknownStore, c.Store.Backend))
	}

	switch c.Cache.Backend {
	case CacheBadger, CacheNone:
	default:
		return core.ConfigurationError("invalid cache configuration",
			fmt.Errorf("%w: %q", ErrUnknownCache, c.Cache.Backend))
	}

	switch c.Index.Backend {
	case IndexFlat:
		if c.Index.Persist {
			if c.Index.Name == "" {
				return invalid("index.name", c.Index.Name)
			}
			if err := c.Blob.Validate(); err != nil {
				return core.ConfigurationError("invalid blob configuration", err)
			}
		}
	case IndexPgvector:
		if c.Store.Backend != StorePostgres {
			return core.ConfigurationError("invalid index configuration", ErrPgvectorStore)
		}
	default:
		return core.ConfigurationError("invalid index configuration",
			fmt.Errorf("%w: %q", ErrUnknownIndex, c.Index.Backend))
	}

	if c.Embedding.BatchSize < 1 {
		return invalid("embedding.batch_size", c.Embedding.BatchSize)
	}
	if c.Embedding.MaxAttempts < 1 {
		return invalid("embedding.max_attempts", c.Embedding.MaxAttempts)
	}
	if c.Embedding.BaseDelay < 0 || c.Embedding.MaxDelay < c.Embedding.BaseDelay {
		return invalid("embedding.max_delay", c.Embedding.MaxDelay)
	}

	if !unit(c.Similarity.MatchThreshold) {
		return invalid("similarity.match_threshold", c.Similarity.MatchThreshold)
	}
	for dim, w := range c.Similarity.Weights {
		if !dim.Valid() {
			return invalid("similarity.weights", dim)
		}
		if !unit(w) {
			return invalid("similarity.weights."+string(dim), w)
		}
	}

	if c.Search.Threshold <= 0 || !unit(c.Search.Threshold) {
		return invalid("search.threshold", c.Search.Threshold)
	}
	if c.Search.MaxResults < 1 {
		return invalid("search.max_results", c.Search.MaxResults)
	}
	if c.Search.ResultLimit < c.Search.MaxResults {
		return invalid("search.result_limit", c.Search.ResultLimit)
	}
	if c.Search.PoolSize < 0 {
		return invalid("search.pool_size", c.Search.PoolSize)
	}
	if c.Ingestion.PoolSize < 0 {
		return invalid("ingestion.pool_size", c.Ingestion.PoolSize)
	}
	return nil
}

func unit(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

func invalid(field string, value any) error {
	return core.ConfigurationError("invalid configuration",
		fmt.Errorf("%w: %s=%v", ErrInvalidValue, field, value)).WithDetail("field", field)
}
