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

// Package textproc cleans Brazilian legal text and extracts structured
// information from it.
//
// All functions are stateless and safe for concurrent use. Patterns are
// compiled once at package initialization.
//
//   - Clean strips pagination noise, collapses whitespace and canonicalizes
//     law and article citations.
//   - ExtractEntities pulls law, article, paragraph and item references,
//     process numbers, monetary amounts, dates and anonymized CPF/CNPJ numbers.
//   - ExtractFacts and ExtractKeyPhrases select sentences that cite law.
//   - Highlights cuts result snippets around query terms. Chunk splits long
//     texts for callers that embed them piecewise.
package textproc
