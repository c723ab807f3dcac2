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

// Package mock provides test doubles for the ai package interfaces.
//
// The mocks let tests run without a model backend and make behavior
// controllable: every method consults an optional Func field before falling
// back to a deterministic default.
//
// # Usage in Tests
//
//	// Default embedder: deterministic unit vectors derived from an FNV hash
//	provider := mock.NewMockProvider()
//	vec, err := provider.Embedder().EmbedText(ctx, "dano moral")
//
//	// Custom behavior injection
//	embedder := mock.NewMockEmbedder(3)
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{1, 0, 0}, nil
//	}
//
//	// Call counts
//	count := embedder.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: returns hash-seeded unit vectors of the configured dimension
//   - MockCompleter: echoes a fixed explanation
//   - MockProvider: aggregates both; WithoutCompletion drops the completer
package mock
