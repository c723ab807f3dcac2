package similarity

import (
	"cmp"
	"slices"

	"github.com/poiesic/juris/core"
)

// CourtHierarchyWeight is the authority of a court within the Brazilian
// judicial hierarchy.
func CourtHierarchyWeight(ct core.CourtType) float64 {
	switch ct {
	case core.CourtSTF:
		return 1.0
	case core.CourtSTJ, core.CourtTST, core.CourtTSE, core.CourtSTM:
		return 0.8
	case core.CourtTRF1, core.CourtTRF2, core.CourtTRF3, core.CourtTRF4, core.CourtTRF5, core.CourtTRF6:
		return 0.6
	case core.CourtTRT:
		return 0.5
	case core.CourtTJ:
		return 0.4
	case core.CourtTRE:
		return 0.3
	default:
		return 0.2
	}
}

// PrecedentStrength combines court authority, citation count (saturating at
// 100 citations) and the decision's relevance score, clamped to [0, 1].
func PrecedentStrength(d *core.LegalDecision) float64 {
	strength := CourtHierarchyWeight(d.CourtType)
	strength += min(1.0, float64(max(d.CitationCount, 0))/100) * 0.3
	strength += d.RelevanceScore * 0.2
	return clamp(strength)
}

// RankPrecedents sorts by strength, then similarity, both descending. Ties
// keep their input order.
func RankPrecedents(precedents []core.Precedent) {
	slices.SortStableFunc(precedents, func(a, b core.Precedent) int {
		if c := cmp.Compare(b.PrecedentStrength, a.PrecedentStrength); c != 0 {
			return c
		}
		return cmp.Compare(b.SimilarityScore, a.SimilarityScore)
	})
}

func clamp(v float64) float64 {
	return min(1.0, max(0.0, v))
}
