package storage

import (
	"context"
	"time"

	"github.com/poiesic/juris/core"
)

// RecentWindow is the age limit for Statistics.RecentDecisions.
const RecentWindow = 30 * 24 * time.Hour

// DecisionRepository is the authoritative store for legal decisions.
type DecisionRepository interface {
	// AddDecisions stores new decisions. Ids are derived from process numbers
	// when unset. CreatedAt and UpdatedAt are set if zero.
	// Returns ErrDuplicateKey if a process number is already stored.
	AddDecisions(ctx context.Context, decisions ...*core.LegalDecision) ([]*core.LegalDecision, error)

	// UpdateDecisions replaces existing decisions and bumps UpdatedAt.
	// Returns ErrNotFound if any decision doesn't exist.
	UpdateDecisions(ctx context.Context, decisions ...*core.LegalDecision) ([]*core.LegalDecision, error)

	// DeleteDecisions removes decisions by id.
	// Returns ErrNotFound if any decision doesn't exist.
	DeleteDecisions(ctx context.Context, ids ...core.ID) error

	// GetDecision returns ErrNotFound if the decision doesn't exist.
	GetDecision(ctx context.Context, id core.ID) (*core.LegalDecision, error)

	// GetDecisions returns the decisions that exist, in request order.
	GetDecisions(ctx context.Context, ids ...core.ID) ([]*core.LegalDecision, error)

	// GetDecisionByProcessNumber returns ErrNotFound if no decision has it.
	GetDecisionByProcessNumber(ctx context.Context, processNumber string) (*core.LegalDecision, error)

	// GetDecisionsByDateRange returns decisions with start <= DecisionDate < end,
	// ordered by decision date.
	GetDecisionsByDateRange(ctx context.Context, start, end time.Time) ([]*core.LegalDecision, error)

	// Filter returns the decisions among ids that exist and satisfy filters,
	// in request order.
	Filter(ctx context.Context, ids []core.ID, filters *core.SearchFilters) ([]*core.LegalDecision, error)

	// Scan calls fn for every stored decision. Iteration stops at the first
	// error, which Scan returns.
	Scan(ctx context.Context, fn func(*core.LegalDecision) error) error

	// Count returns the number of stored decisions.
	Count(ctx context.Context) (int, error)

	// Stats summarizes the store.
	Stats(ctx context.Context) (*core.Statistics, error)

	Close() error
}

// MatchesFilters reports whether d satisfies filters.
func MatchesFilters(d *core.LegalDecision, filters *core.SearchFilters) bool {
	return d != nil && filters.Matches(d)
}

// StatsAccumulator builds core.Statistics one decision at a time.
type StatsAccumulator struct {
	stats  core.Statistics
	cutoff time.Time
}

func NewStatsAccumulator(now time.Time) *StatsAccumulator {
	return &StatsAccumulator{
		stats: core.Statistics{
			ByCourtType:    make(map[core.CourtType]int),
			ByDecisionType: make(map[core.DecisionType]int),
			LastUpdated:    now.UTC(),
		},
		cutoff: now.Add(-RecentWindow),
	}
}

func (a *StatsAccumulator) Add(d *core.LegalDecision) {
	a.stats.TotalDecisions++
	a.stats.ByCourtType[d.CourtType]++
	a.stats.ByDecisionType[d.DecisionType]++
	if !d.CreatedAt.Before(a.cutoff) {
		a.stats.RecentDecisions++
	}
}

func (a *StatsAccumulator) Result() *core.Statistics {
	result := a.stats
	return &result
}
