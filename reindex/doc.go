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

// Package reindex rebuilds the vector index from the authoritative store.
//
// The flat index supports no update or delete, so a changed or removed
// decision is reflected only after a full rebuild. A Rebuilder resets the
// index, scans every stored decision in batches and re-adds its embedding.
// With Reembed set, embeddings are regenerated with the current model and
// written back to the store first, which is how a model switch is rolled out.
package reindex
