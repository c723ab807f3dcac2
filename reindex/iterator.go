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

package reindex

import (
	"context"

	"github.com/poiesic/juris/core"
	"github.com/poiesic/juris/storage"
)

const (
	// DefaultBatchSize is the default number of decisions handed to each batch.
	DefaultBatchSize = 100
)

// DecisionIterator iterates over all stored decisions in batches.
type DecisionIterator struct {
	repo      storage.DecisionRepository
	batchSize int
}

// NewDecisionIterator creates a new decision iterator. A non-positive
// batchSize uses DefaultBatchSize.
func NewDecisionIterator(repo storage.DecisionRepository, batchSize int) *DecisionIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &DecisionIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn with consecutive batches of decisions.
// Iteration stops on first error from fn or when all decisions are processed.
// Context cancellation is checked between batches.
func (it *DecisionIterator) ForEach(ctx context.Context, fn func([]*core.LegalDecision) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Batches are collected during the scan and handed out after it, so fn
	// may write to the repository.
	var (
		batches [][]*core.LegalDecision
		batch   = make([]*core.LegalDecision, 0, it.batchSize)
	)
	err := it.repo.Scan(ctx, func(d *core.LegalDecision) error {
		batch = append(batch, d)
		if len(batch) == it.batchSize {
			batches = append(batches, batch)
			batch = make([]*core.LegalDecision, 0, it.batchSize)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(batch) > 0 {
		batches = append(batches, batch)
	}

	for _, b := range batches {
		if err := fn(b); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	return nil
}
