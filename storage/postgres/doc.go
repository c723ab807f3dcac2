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

// Package postgres implements storage.DecisionRepository on PostgreSQL and a
// store-delegated vector index on the pgvector extension.
//
// Each decision is a row of legal_decisions: the full record is kept as a
// msgpack blob next to the columns needed for uniqueness and ordering, and
// the embedding lives in a vector(dim) column searched with the cosine
// distance operator. Migrate creates the extension, table, and indexes.
//
// Tests run only when JURIS_TEST_POSTGRES_DSN points at a database with
// pgvector available.
package postgres
