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

package search

import "errors"

var (
	// ErrGeneratorRequired is returned when an embedding generator is not provided.
	ErrGeneratorRequired = errors.New("embedding generator required")

	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrRepositoryRequired is returned when a decision repository is not provided.
	ErrRepositoryRequired = errors.New("decision repository required")

	// ErrEngineRequired is returned when a similarity engine is not provided.
	ErrEngineRequired = errors.New("similarity engine required")

	ErrEmptyQuery       = errors.New("query is empty")
	ErrInvalidLimit     = errors.New("max results must not be negative")
	ErrInvalidThreshold = errors.New("threshold must be within [0, 1]")
	ErrNoComparison     = errors.New("no comparison case given")

	// ErrExplanationsUnavailable is returned when explanations are requested
	// from a searcher built without a completer.
	ErrExplanationsUnavailable = errors.New("relevance explanations are not configured")
)
