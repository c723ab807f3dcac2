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

// Package ai provides abstractions for the embedding and completion backends
// used by juris.
//
// The core domain depends on these interfaces rather than on concrete clients:
//
//   - Embedder: Generates vector embeddings from text
//   - Completer: Produces free text from a prompt (relevance explanations)
//   - Provider: Aggregates one backend's capabilities with a single lifecycle
//
// # Implementation Packages
//
//   - ai/local: In-process hashed embedder, keyed by model name, no completer
//   - ai/openai: OpenAI-compatible hosted APIs through langchaingo
//   - ai/ollama: A locally-hosted Ollama server through langchaingo
//   - ai/gemini: Google Gemini through generative-ai-go
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Exactly one provider is active per deployment. It is chosen once, when the
// engine is opened, from Config.Provider. A capability the deployment requires
// but the provider lacks (for example a Completer when explanations are
// enabled) is a configuration error at startup rather than a degraded path
// discovered mid-request.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithProvider(ai.ProviderOllama), ai.WithEmbeddingModel("nomic-embed-text"))
//	provider, err := ollama.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "dano moral por negativação indevida")
package ai
