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

package core

import (
	"fmt"
)

// ValidateDecision validates a LegalDecision according to domain rules.
//
// Validation rules:
//   - ProcessNumber must not be empty
//   - DecisionText must not be empty
//   - CourtType and DecisionType must be recognized values
//
// NOT validated:
//   - Embedding (can be empty until ingestion embeds it, see ValidateEmbedding)
//   - ID (derived from the process number when zero)
//   - Uniqueness of ProcessNumber (enforced by the repositories)
func ValidateDecision(d *LegalDecision) error {
	if d == nil {
		return fmt.Errorf("%w: decision is nil", ErrInvalidDecision)
	}
	if d.ProcessNumber == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDecision, ErrEmptyProcessNumber)
	}
	if d.DecisionText == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDecision, ErrEmptyDecisionText)
	}
	if !d.CourtType.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidDecision, ErrInvalidCourtType, d.CourtType)
	}
	if !d.DecisionType.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidDecision, ErrInvalidDecisionType, d.DecisionType)
	}
	return nil
}

// ValidateEmbedding checks that a non-empty embedding has the expected dimension.
func ValidateEmbedding(embedding []float32, dimension int) error {
	if len(embedding) == 0 {
		return nil
	}
	if len(embedding) != dimension {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, dimension, len(embedding))
	}
	return nil
}

// Validate checks the filters for internal consistency.
func (f *SearchFilters) Validate() error {
	if f == nil {
		return nil
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		return ErrInvalidDateRange
	}
	for _, ct := range f.CourtTypes {
		if !ct.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidCourtType, ct)
		}
	}
	for _, dt := range f.DecisionTypes {
		if !dt.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidDecisionType, dt)
		}
	}
	return nil
}

// ValidateDimensions checks that every requested dimension is known.
func ValidateDimensions(dims []SimilarityDimension) error {
	for _, d := range dims {
		if !d.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidDimension, d)
		}
	}
	return nil
}
