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

package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/poiesic/juris/ai"
	"google.golang.org/api/option"
)

// Provider wraps a Gemini API client.
type Provider struct {
	config    *ai.Config
	client    *genai.Client
	embedder  *Embedder
	completer *Completer
	logger    *slog.Logger
}

var (
	_ ai.Provider      = (*Provider)(nil)
	_ ai.ModelSelector = (*Provider)(nil)
)

// NewProvider connects to the Gemini API with config.APIKey.
func NewProvider(ctx context.Context, config *ai.Config) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	opts := []option.ClientOption{option.WithAPIKey(config.APIKey)}
	if config.Host != "" {
		opts = append(opts, option.WithEndpoint(config.Host))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	p := &Provider{
		config: config,
		client: client,
		logger: slog.Default().With("component", "gemini-provider"),
	}
	p.embedder = p.newEmbedder(config.EmbeddingModel)
	if config.CompletionModel != "" {
		model := client.GenerativeModel(config.CompletionModel)
		model.SetTemperature(0.2)
		p.completer = &Completer{
			model:   model,
			timeout: config.CompletionTimeout,
			logger:  slog.Default().With("component", "gemini-completer", "model", config.CompletionModel),
		}
	}
	return p, nil
}

func (p *Provider) newEmbedder(model string) *Embedder {
	return &Embedder{
		model:   p.client.EmbeddingModel(model),
		timeout: p.config.EmbeddingTimeout,
		logger:  slog.Default().With("component", "gemini-embedder", "model", model),
	}
}

func (p *Provider) Name() string {
	return string(ai.ProviderGemini)
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

func (p *Provider) EmbedderFor(model string) (ai.Embedder, error) {
	if strings.TrimSpace(model) == "" {
		return nil, ai.ErrUnknownModel
	}
	if model == p.config.EmbeddingModel {
		return p.embedder, nil
	}
	return p.newEmbedder(model), nil
}

func (p *Provider) Model() ai.ModelInfo {
	return ai.ModelInfo{
		Name:      p.config.EmbeddingModel,
		Dimension: p.config.Dimension,
		MaxLength: p.config.MaxLength,
		Provider:  p.Name(),
	}
}

// Close releases the underlying gRPC connection.
func (p *Provider) Close() error {
	p.logger.Debug("closing Gemini provider")
	return p.client.Close()
}

// Embedder generates embeddings with a Gemini embedding model.
type Embedder struct {
	model   *genai.EmbeddingModel
	timeout time.Duration
	logger  *slog.Logger
}

func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, err
	}
	if resp == nil || resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, ai.ErrEmptyResponse
	}
	return resp.Embedding.Values, nil
}

func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	batch := e.model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}
	resp, err := e.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d, got %d", ai.ErrCountMismatch, len(texts), len(resp.Embeddings))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, ai.ErrEmptyResponse
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// Completer generates text with a Gemini generative model.
type Completer struct {
	model   *genai.GenerativeModel
	timeout time.Duration
	logger  *slog.Logger
}

func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.logger.Error("completion failed", "err", err)
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ai.ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", ai.ErrEmptyResponse
	}
	return out, nil
}
