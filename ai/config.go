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

package ai

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ProviderKind selects the embedding backend family.
type ProviderKind string

const (
	// ProviderLocal embeds in process, keyed by model name. It has no completer.
	ProviderLocal ProviderKind = "local"
	// ProviderOpenAI talks to an OpenAI-compatible hosted API.
	ProviderOpenAI ProviderKind = "openai"
	// ProviderOllama talks to a locally-hosted Ollama generation server.
	ProviderOllama ProviderKind = "ollama"
	// ProviderGemini talks to the Google Gemini API.
	ProviderGemini ProviderKind = "gemini"
)

// Config holds configuration for AI service providers.
type Config struct {
	// Provider selects the backend family.
	Provider ProviderKind `yaml:"provider"`

	// Host is the base URL of the backend.
	// Example: "https://api.openai.com/v1" or "http://localhost:11434" for Ollama.
	// Unused by the local and gemini providers.
	Host string `yaml:"host"`

	// APIKey authenticates against hosted APIs.
	APIKey string `yaml:"api_key"`

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "sentence-transformers/all-MiniLM-L6-v2", "text-embedding-3-small"
	EmbeddingModel string `yaml:"embedding_model"`

	// CompletionModel is the model identifier used for relevance explanations.
	// Example: "gpt-4o-mini", "llama3.2"
	CompletionModel string `yaml:"completion_model"`

	// Dimension is the length of the vectors produced by EmbeddingModel.
	// Default: 384
	Dimension int `yaml:"dimension"`

	// MaxLength is the maximum input length accepted by EmbeddingModel.
	// Default: 256
	MaxLength int `yaml:"max_length"`

	// EmbeddingTimeout bounds each embedding call.
	// Default: 30s
	EmbeddingTimeout time.Duration `yaml:"embedding_timeout"`

	// CompletionTimeout bounds each completion call.
	// Default: 60s
	CompletionTimeout time.Duration `yaml:"completion_timeout"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider sets the backend family.
func WithProvider(kind ProviderKind) ConfigOption {
	return func(c *Config) {
		c.Provider = kind
	}
}

// WithHost sets the backend base URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithAPIKey sets the hosted API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithCompletionModel sets the completion model identifier.
func WithCompletionModel(model string) ConfigOption {
	return func(c *Config) {
		c.CompletionModel = model
	}
}

// WithDimension sets the embedding dimension.
func WithDimension(dim int) ConfigOption {
	return func(c *Config) {
		c.Dimension = dim
	}
}

// WithTimeouts sets the per-call embedding and completion timeouts.
func WithTimeouts(embedding, completion time.Duration) ConfigOption {
	return func(c *Config) {
		c.EmbeddingTimeout = embedding
		c.CompletionTimeout = completion
	}
}

// DefaultConfig returns a Config for the in-process local provider.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderLocal,
		EmbeddingModel:    "sentence-transformers/all-MiniLM-L6-v2",
		Dimension:         384,
		MaxLength:         256,
		EmbeddingTimeout:  30 * time.Second,
		CompletionTimeout: 60 * time.Second,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithProvider(ProviderOllama),
//	    WithHost("http://localhost:11434"),
//	    WithEmbeddingModel("nomic-embed-text"),
//	    WithDimension(768),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// OpenAI-compatible hosts get the /v1 suffix most servers require; Ollama hosts
// lose it, since the native API lives at the server root.
func (c *Config) Normalize() {
	c.Provider = ProviderKind(strings.ToLower(strings.TrimSpace(string(c.Provider))))
	c.Host = strings.TrimSuffix(c.Host, "/")

	switch c.Provider {
	case ProviderOpenAI:
		if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
			c.Host = c.Host + "/v1"
		}
	case ProviderOllama:
		c.Host = strings.TrimSuffix(c.Host, "/v1")
		if c.Host == "" {
			c.Host = "http://localhost:11434"
		}
	}

	if c.EmbeddingTimeout <= 0 {
		c.EmbeddingTimeout = 30 * time.Second
	}
	if c.CompletionTimeout <= 0 {
		c.CompletionTimeout = 60 * time.Second
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Provider {
	case ProviderLocal, ProviderOllama:
	case ProviderOpenAI:
		if c.APIKey == "" && c.Host == "" {
			return errors.New("ai config: APIKey or Host is required for the openai provider")
		}
	case ProviderGemini:
		if c.APIKey == "" {
			return errors.New("ai config: APIKey is required for the gemini provider")
		}
	default:
		return fmt.Errorf("ai config: %w: %q", ErrUnknownProvider, c.Provider)
	}

	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.Dimension <= 0 {
		return errors.New("ai config: Dimension must be positive")
	}
	return nil
}
