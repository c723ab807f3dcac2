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

// Package index provides nearest-neighbor search over decision embeddings.
//
// Every backend implements Index: vectors are added with their decision ids
// and searched by cosine similarity, returning at most k hits whose score is
// at or above a threshold, best first.
//
// FlatIndex is an exact in-process index over contiguous float32 storage.
// Vectors are normalized on insert and at query time, so scoring is a plain
// inner product. After every mutation it writes two artifacts through a
// blob.Store, "<name>" holding the vectors and "<name>.ids" holding the
// position to id map, and reloads them on open. It has no update or delete;
// Reset followed by re-adding everything is the rebuild path.
//
// The store-delegated pgvector backend lives in storage/postgres.
package index
