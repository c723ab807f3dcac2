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

// Package local provides an in-process embedding backend.
//
// The embedder hashes word and word-pair features into a fixed number of
// buckets, so it needs no model files or network access and is deterministic
// across runs. Each model name selects its own hash key, which lets callers
// ask for embeddings "from another model" without loading anything.
package local
