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

// Package ingestion loads legal decisions into the store and the vector index.
//
// The Pipeline type manages the ingestion workflow for decisions, including:
//   - Validating decisions and deriving ids from process numbers
//   - Generating embeddings in fixed-size batches
//   - Storing decisions in the authoritative repository
//   - Adding embeddings to the vector index
//
// The repository is authoritative: indexing failures are logged and leave the
// decision stored, to be picked up by a later index rebuild. IngestAsync runs
// the same workflow on a worker pool.
package ingestion
