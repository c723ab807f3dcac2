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

package mock

import (
	"strings"
	"sync"

	"github.com/poiesic/juris/ai"
)

// MockProvider is a test double for ai.Provider and ai.ModelSelector.
type MockProvider struct {
	embedder  *MockEmbedder
	completer *MockCompleter
	model     ai.ModelInfo

	mu     sync.Mutex
	models map[string]*MockEmbedder
	closed bool
}

var (
	_ ai.Provider      = (*MockProvider)(nil)
	_ ai.ModelSelector = (*MockProvider)(nil)
)

// ProviderOption configures a MockProvider.
type ProviderOption func(*MockProvider)

// WithDimension sets the embedding dimension. Default: 384.
func WithDimension(dim int) ProviderOption {
	return func(p *MockProvider) {
		p.embedder = NewMockEmbedder(dim)
		p.model.Dimension = dim
	}
}

// WithEmbedder replaces the default embedder.
func WithEmbedder(e *MockEmbedder) ProviderOption {
	return func(p *MockProvider) {
		p.embedder = e
		p.model.Dimension = e.dimension
	}
}

// WithCompleter replaces the default completer.
func WithCompleter(c *MockCompleter) ProviderOption {
	return func(p *MockProvider) {
		p.completer = c
	}
}

// WithoutCompletion makes Completer return nil.
func WithoutCompletion() ProviderOption {
	return func(p *MockProvider) {
		p.completer = nil
	}
}

// NewMockProvider creates a mock provider. Returns the concrete type so tests
// can reach the mocks through GetMockEmbedder and GetMockCompleter.
func NewMockProvider(opts ...ProviderOption) *MockProvider {
	p := &MockProvider{
		embedder:  NewMockEmbedder(384),
		completer: NewMockCompleter(),
		model: ai.ModelInfo{
			Name:      "mock-embedder",
			Dimension: 384,
			MaxLength: 256,
			Provider:  "mock",
		},
		models: make(map[string]*MockEmbedder),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *MockProvider) Name() string {
	return "mock"
}

func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

func (p *MockProvider) Completer() ai.Completer {
	if p.completer == nil {
		return nil
	}
	return p.completer
}

// EmbedderFor returns a separate mock embedder per model name. Names
// starting with "unknown" are rejected with ai.ErrUnknownModel.
func (p *MockProvider) EmbedderFor(model string) (ai.Embedder, error) {
	if model == "" || strings.HasPrefix(model, "unknown") {
		return nil, ai.ErrUnknownModel
	}
	if model == p.model.Name {
		return p.embedder, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.models[model]
	if !ok {
		e = NewMockEmbedder(p.model.Dimension)
		p.models[model] = e
	}
	return e, nil
}

func (p *MockProvider) Model() ai.ModelInfo {
	return p.model
}

func (p *MockProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (p *MockProvider) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockCompleter returns the underlying mock completer, or nil.
func (p *MockProvider) GetMockCompleter() *MockCompleter {
	return p.completer
}
