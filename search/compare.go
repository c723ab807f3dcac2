package search

import (
	"context"
	"errors"
	"sync"

	"github.com/poiesic/juris/core"
)

// CompareRequest compares Base against either a single case or a list.
// Other takes precedence over Others.
type CompareRequest struct {
	Base               core.CaseData              `json:"base"`
	Other              *core.CaseData             `json:"other,omitempty"`
	Others             []core.CaseData            `json:"others,omitempty"`
	Dimensions         []core.SimilarityDimension `json:"dimensions,omitempty"`
	IncludeExplanation bool                       `json:"include_explanation,omitempty"`
}

// CompareCases returns one result per comparison case, in input order. List
// comparisons run concurrently on the searcher's pool.
func (s *Searcher) CompareCases(ctx context.Context, req CompareRequest) ([]*core.CaseSimilarityResult, error) {
	if err := core.ValidateDimensions(req.Dimensions); err != nil {
		return nil, core.SearchError("invalid similarity dimensions", err)
	}

	if req.Other != nil {
		result, err := s.engine.Compare(ctx, req.Base, *req.Other, req.Dimensions, req.IncludeExplanation)
		if err != nil {
			return nil, err
		}
		return []*core.CaseSimilarityResult{result}, nil
	}
	if len(req.Others) == 0 {
		return nil, core.SearchError("invalid comparison request", ErrNoComparison)
	}

	results := make([]*core.CaseSimilarityResult, len(req.Others))
	errs := make([]error, len(req.Others))
	var wg sync.WaitGroup
	for i := range req.Others {
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			results[i], errs[i] = s.engine.Compare(ctx, req.Base, req.Others[i], req.Dimensions, req.IncludeExplanation)
		})
		if err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		s.logger.Error("case comparison failed", "count", len(req.Others), "err", err)
		return nil, core.SearchError("case comparison failed", err)
	}
	return results, nil
}
