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

// Package cache provides the best-effort result cache used for embeddings,
// search responses, and precedent analyses.
//
// Keys are derived from the request payload: the payload is msgpack-encoded
// with sorted map keys and hashed with HighwayHash-64, so equal requests map to
// equal keys across processes. Every backend failure is logged and treated as
// a miss, which means a broken cache degrades latency but never correctness.
//
// # Implementations
//
//   - BadgerCache: TTL entries in a badger database, optionally shared with the
//     decision store under a separate keyspace
//   - Nop: always misses; used when caching is disabled
//
// Layer wraps either implementation with typed helpers and per-kind TTLs.
package cache
