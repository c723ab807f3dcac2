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

// Package embedding turns text into vectors.
//
// Generator wraps an ai.Embedder with preprocessing, a best-effort cache,
// exponential-backoff retry, and dimension checking. Batches are processed in
// fixed-size sequential groups; within a group only cache misses reach the
// backend, in a single call. Failures surface as core.EmbeddingError and a
// placeholder vector is never substituted.
//
// The package also provides the vector helpers shared by the index and the
// similarity engine: Normalize, Dot, Norm and Similarity.
package embedding
