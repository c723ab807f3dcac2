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

// Package search answers similarity queries over indexed legal decisions.
//
// Search is approximate-then-exact: the vector index returns twice the
// requested number of candidates above the similarity threshold, and the
// authoritative store then applies metadata filters before ranking by vector
// score. CompareCases scores cases against a base case concurrently, and
// FindPrecedents ranks search results by precedent strength.
package search
