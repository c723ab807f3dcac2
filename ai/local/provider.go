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

package local

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/poiesic/juris/ai"
)

// Provider serves in-process embedders keyed by model name.
// Embedders are created on first use and cached for the provider's lifetime.
type Provider struct {
	config    *ai.Config
	mu        sync.Mutex
	embedders map[string]*Embedder
	logger    *slog.Logger
}

var (
	_ ai.Provider      = (*Provider)(nil)
	_ ai.ModelSelector = (*Provider)(nil)
)

// NewProvider creates a local provider for config.EmbeddingModel.
func NewProvider(config *ai.Config) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	p := &Provider{
		config:    config,
		embedders: make(map[string]*Embedder),
		logger:    slog.Default().With("component", "local-provider"),
	}
	p.logger.Info("using in-process embedder", "model", config.EmbeddingModel, "dimension", config.Dimension)
	return p, nil
}

// Name returns "local".
func (p *Provider) Name() string {
	return string(ai.ProviderLocal)
}

// Embedder returns the embedder for the configured model.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedderFor(p.config.EmbeddingModel)
}

// EmbedderFor returns the embedder for model. Blank names are rejected.
func (p *Provider) EmbedderFor(model string) (ai.Embedder, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("%w: empty model name", ai.ErrUnknownModel)
	}
	return p.embedderFor(model), nil
}

func (p *Provider) embedderFor(model string) *Embedder {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.embedders[model]
	if !ok {
		e = newEmbedder(model, p.config.Dimension)
		p.embedders[model] = e
	}
	return e
}

// Completer returns nil; the local provider cannot generate text.
func (p *Provider) Completer() ai.Completer {
	return nil
}

// Model describes the configured embedding model.
func (p *Provider) Model() ai.ModelInfo {
	return ai.ModelInfo{
		Name:      p.config.EmbeddingModel,
		Dimension: p.config.Dimension,
		MaxLength: p.config.MaxLength,
		Provider:  p.Name(),
	}
}

// Close releases cached embedders.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.embedders = make(map[string]*Embedder)
	p.logger.Debug("closing local provider")
	return nil
}
