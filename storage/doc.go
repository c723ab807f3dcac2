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

// Package storage defines the authoritative store for legal decisions.
//
// The store is the source of truth: the vector index only ever holds ids and
// embeddings, and search results are always hydrated and filtered against the
// store. Two implementations exist:
//
//   - storage/badger: embedded badger database, msgpack-encoded records
//   - storage/postgres: PostgreSQL via pgx, with a pgvector-backed index
//
// # Usage
//
// Create an embedded repository:
//
//	repo, err := badger.NewRepository("/path/to/db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
// Use in tests with in-memory storage:
//
//	repo, err := badger.NewMemoryStore()
//
// # Error Handling
//
// All implementations use the sentinel errors in this package, so callers can
// test with errors.Is(err, storage.ErrNotFound) regardless of backend.
package storage
