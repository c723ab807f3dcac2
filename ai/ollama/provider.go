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

package ollama

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/juris/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// Provider talks to an Ollama server through its native API.
type Provider struct {
	config    *ai.Config
	embedder  *Embedder
	completer *Completer
	logger    *slog.Logger
}

var (
	_ ai.Provider      = (*Provider)(nil)
	_ ai.ModelSelector = (*Provider)(nil)
)

// NewProvider creates an Ollama provider. The completer is created only when
// config.CompletionModel is set.
func NewProvider(config *ai.Config) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config, config.EmbeddingModel)
	if err != nil {
		return nil, err
	}

	var completer *Completer
	if config.CompletionModel != "" {
		llm, err := ollama.New(ollama.WithModel(config.CompletionModel), ollama.WithServerURL(config.Host))
		if err != nil {
			return nil, err
		}
		completer = &Completer{
			llm:     llm,
			timeout: config.CompletionTimeout,
			logger:  slog.Default().With("component", "ollama-completer", "model", config.CompletionModel),
		}
	}

	return &Provider{
		config:    config,
		embedder:  embedder,
		completer: completer,
		logger:    slog.Default().With("component", "ollama-provider", "host", config.Host),
	}, nil
}

func (p *Provider) Name() string {
	return string(ai.ProviderOllama)
}

func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

func (p *Provider) Completer() ai.Completer {
	if p.completer == nil {
		return nil
	}
	return p.completer
}

// EmbedderFor returns an embedder for any model the server has pulled.
func (p *Provider) EmbedderFor(model string) (ai.Embedder, error) {
	if model == p.config.EmbeddingModel {
		return p.embedder, nil
	}
	return newEmbedder(p.config, model)
}

func (p *Provider) Model() ai.ModelInfo {
	return ai.ModelInfo{
		Name:      p.config.EmbeddingModel,
		Dimension: p.config.Dimension,
		MaxLength: p.config.MaxLength,
		Provider:  p.Name(),
	}
}

func (p *Provider) Close() error {
	p.logger.Debug("closing Ollama provider")
	return nil
}

// Embedder generates embeddings with an Ollama embedding model.
type Embedder struct {
	embedder embeddings.Embedder
	timeout  time.Duration
	logger   *slog.Logger
}

func newEmbedder(config *ai.Config, model string) (*Embedder, error) {
	llm, err := ollama.New(ollama.WithModel(model), ollama.WithServerURL(config.Host))
	if err != nil {
		return nil, err
	}
	embedder, err := embeddings.NewEmbedder(llm, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}
	return &Embedder{
		embedder: embedder,
		timeout:  config.EmbeddingTimeout,
		logger:   slog.Default().With("component", "ollama-embedder", "model", model),
	}, nil
}

func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, err
	}
	if len(vec) == 0 {
		return nil, ai.ErrEmptyResponse
	}
	return vec, nil
}

func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d, got %d", ai.ErrCountMismatch, len(texts), len(vectors))
	}
	return vectors, nil
}

// Completer generates text with an Ollama model.
type Completer struct {
	llm     llms.Model
	timeout time.Duration
	logger  *slog.Logger
}

func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt)
	if err != nil {
		c.logger.Error("completion failed", "err", err)
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ai.ErrEmptyResponse
	}
	return out, nil
}
