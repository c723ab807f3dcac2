package search

import (
	"context"
	"slices"
	"strings"

	"github.com/poiesic/juris/core"
	"github.com/poiesic/juris/similarity"
)

const (
	// PrecedentThreshold is the similarity floor for precedent candidates.
	PrecedentThreshold = 0.6

	DefaultPrecedents = 10

	precedentsAnalysis = "precedents"
)

// PrecedentRequest asks for the strongest precedents for a case.
type PrecedentRequest struct {
	Case core.CaseData `json:"case"`
	// MaxResults of zero returns DefaultPrecedents.
	MaxResults int `json:"max_results,omitempty"`
	// CourtHierarchy restricts candidates to these courts when set.
	CourtHierarchy      []core.CourtType `json:"court_hierarchy,omitempty"`
	IncludeSimilarFacts bool             `json:"include_similar_facts"`
}

// NewPrecedentRequest returns a request with default limits that includes
// similar facts.
func NewPrecedentRequest(c core.CaseData) PrecedentRequest {
	return PrecedentRequest{Case: c, MaxResults: DefaultPrecedents, IncludeSimilarFacts: true}
}

type precedentEntry struct {
	Query        string           `msgpack:"query"`
	MaxResults   int              `msgpack:"max_results"`
	Courts       []core.CourtType `msgpack:"courts"`
	SimilarFacts bool             `msgpack:"similar_facts"`
	Precedents   []core.Precedent `msgpack:"precedents"`
}

func (e *precedentEntry) matches(query string, req PrecedentRequest) bool {
	return e.Query == query && e.MaxResults == req.MaxResults &&
		e.SimilarFacts == req.IncludeSimilarFacts && slices.Equal(e.Courts, req.CourtHierarchy)
}

// FindPrecedents searches for decisions similar to the case summary and facts
// and ranks them by precedent strength, then similarity.
func (s *Searcher) FindPrecedents(ctx context.Context, req PrecedentRequest) ([]core.Precedent, error) {
	if req.MaxResults < 0 {
		return nil, core.SearchError("invalid precedent request", ErrInvalidLimit)
	}
	if req.MaxResults == 0 {
		req.MaxResults = DefaultPrecedents
	}

	c := req.Case
	query := strings.TrimSpace(c.Summary + " " + c.Facts)
	if query == "" {
		query = strings.TrimSpace(strings.Join(c.LegalSubjects, " "))
	}
	if query == "" {
		return nil, core.SearchError("invalid precedent request", ErrEmptyQuery)
	}

	filters := &core.SearchFilters{CourtTypes: req.CourtHierarchy, LegalSubjects: c.LegalSubjects}
	if err := filters.Validate(); err != nil {
		return nil, core.SearchError("invalid precedent request", err)
	}
	if filters.IsZero() {
		filters = nil
	}

	cacheable := s.cache != nil && c.ID != ""
	if cacheable {
		var entry precedentEntry
		if s.cache.GetAnalysis(ctx, c.ID, precedentsAnalysis, &entry) && entry.matches(query, req) {
			return entry.Precedents, nil
		}
	}

	results, err := s.search(ctx, SearchRequest{
		Query:      query,
		Filters:    filters,
		MaxResults: candidateFactor * req.MaxResults,
		Threshold:  PrecedentThreshold,
	})
	if err != nil {
		return nil, err
	}

	precedents := make([]core.Precedent, 0, len(results))
	for _, r := range results {
		p := core.Precedent{
			Decision:          r.Decision,
			SimilarityScore:   r.SimilarityScore,
			PrecedentStrength: similarity.PrecedentStrength(r.Decision),
		}
		if req.IncludeSimilarFacts {
			p.SimilarFacts = s.engine.SimilarFacts(ctx, c.Facts, r.Decision.DecisionText)
		}
		precedents = append(precedents, p)
	}
	similarity.RankPrecedents(precedents)
	if len(precedents) > req.MaxResults {
		precedents = precedents[:req.MaxResults]
	}

	if cacheable {
		s.cache.SetAnalysis(ctx, c.ID, precedentsAnalysis, precedentEntry{
			Query:        query,
			MaxResults:   req.MaxResults,
			Courts:       req.CourtHierarchy,
			SimilarFacts: req.IncludeSimilarFacts,
			Precedents:   precedents,
		})
	}
	return precedents, nil
}
