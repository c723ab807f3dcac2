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

// Package similarity scores how alike two cases are and how much weight a
// decision carries as precedent.
//
// Engine.Compare evaluates the requested dimensions independently:
//
//   - semantic: cosine of the embeddings of decision text plus summary
//   - legal: Jaccard overlap of legal subjects (0.7) and keywords (0.3)
//   - factual: cosine of the embeddings of the extracted facts
//   - procedural: court type and decision type agreement
//   - contextual: temporal proximity over a ten-year horizon
//
// The overall score is the weighted sum over the requested dimensions only.
// Weights are not renormalized, so a subset of dimensions yields a lower
// ceiling than the full set. A dimension that fails scores 0 and records why
// in its explanation.
package similarity
