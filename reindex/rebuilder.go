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
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/juris/core"
	"github.com/poiesic/juris/embedding"
	"github.com/poiesic/juris/index"
	"github.com/poiesic/juris/storage"
)

// Config holds configuration for a rebuild.
type Config struct {
	// BatchSize is the number of decisions to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of decisions)
	ReportInterval int

	// Reembed regenerates every embedding before indexing it.
	Reembed bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: DefaultBatchSize,
	}
}

// Result summarizes a rebuild.
type Result struct {
	Decisions  int           `json:"decisions"`
	Indexed    int           `json:"indexed"`
	Reembedded int           `json:"reembedded"`
	Skipped    int           `json:"skipped"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Rebuilder repopulates a vector index from the decision store.
type Rebuilder struct {
	repo      storage.DecisionRepository
	index     index.Index
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *DecisionIterator
	logger    *slog.Logger
}

// NewRebuilder creates a new rebuilder. gen is only required when
// config.Reembed is set. progress receives human-readable progress and may
// be nil.
func NewRebuilder(repo storage.DecisionRepository, idx index.Index, gen *embedding.Generator, config *Config, progress io.Writer) (*Rebuilder, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Reembed && gen == nil {
		return nil, ErrGeneratorRequired
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Rebuilder{
		repo:      repo,
		index:     idx,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(repo, idx, gen, config.Reembed),
		iterator:  NewDecisionIterator(repo, config.BatchSize),
		logger:    slog.Default().With("component", "reindex"),
	}, nil
}

// Run resets the index when the backend supports it and re-adds every stored
// decision. Backends without a reset overwrite embeddings in place.
func (r *Rebuilder) Run(ctx context.Context) (*Result, error) {
	total, err := r.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count decisions: %w", err)
	}

	if rb, ok := r.index.(index.Rebuilder); ok {
		if err := rb.Reset(ctx); err != nil {
			return nil, fmt.Errorf("failed to reset index: %w", err)
		}
	}

	result := &Result{Decisions: total}
	if total == 0 {
		fmt.Fprintf(r.progress, "No decisions found in store (0 decisions)\n")
		return result, nil
	}

	fmt.Fprintf(r.progress, "Rebuilding index from %d decisions (batch size: %d, reembed: %t)\n",
		total, r.iterator.batchSize, r.config.Reembed)

	tracker := NewProgressTracker(r.progress, "Indexing", total, r.config.ReportInterval)
	tracker.Start()

	err = r.iterator.ForEach(ctx, func(batch []*core.LegalDecision) error {
		outcome, err := r.processor.Process(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		result.Indexed += outcome.Indexed
		result.Reembedded += outcome.Reembedded
		result.Skipped += outcome.Skipped
		tracker.Add(len(batch))
		return nil
	})
	if err != nil {
		r.logger.Error("index rebuild failed", "indexed", result.Indexed, "err", err)
		return result, err
	}

	tracker.Finish()
	result.Elapsed = tracker.Elapsed()

	if result.Skipped > 0 {
		r.logger.Warn("decisions without embeddings were not indexed", "count", result.Skipped)
	}
	fmt.Fprintf(r.progress, "Rebuild complete. Indexed %d of %d decisions in %v\n",
		result.Indexed, total, result.Elapsed.Round(time.Millisecond))
	return result, nil
}
