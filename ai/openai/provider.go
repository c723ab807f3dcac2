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

package openai

import (
	"log/slog"

	"github.com/poiesic/juris/ai"
)

type Provider struct {
	config    *ai.Config
	embedder  *Embedder
	completer *Completer
	logger    *slog.Logger
}

var _ ai.Provider = (*Provider)(nil)

// NewProvider creates the OpenAI-compatible provider. A completer is only
// created when config.CompletionModel is set.
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
		completer, err = newCompleter(config)
		if err != nil {
			return nil, err
		}
	}

	return &Provider{
		config:    config,
		embedder:  embedder,
		completer: completer,
		logger:    slog.Default().With("component", "openai-provider"),
	}, nil
}

func (p *Provider) Name() string {
	return string(ai.ProviderOpenAI)
}

func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Completer returns nil when no completion model is configured.
func (p *Provider) Completer() ai.Completer {
	if p.completer == nil {
		return nil
	}
	return p.completer
}

// EmbedderFor creates an embedder for another embedding model on the same host.
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
	p.logger.Debug("closing OpenAI provider")
	return nil
}
