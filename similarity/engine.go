package similarity

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/poiesic/juris/core"
	"github.com/poiesic/juris/embedding"
	"github.com/poiesic/juris/textproc"
)

const (
	// DefaultMatchThreshold is the overall score at which a case counts as a
	// legal precedent match.
	DefaultMatchThreshold = 0.7

	// FactMatchThreshold is the minimum cosine for two fact sentences to be
	// reported as similar.
	FactMatchThreshold = 0.7

	subjectWeight = 0.7
	keywordWeight = 0.3

	// contextualHorizon is the date distance, in days, at which contextual
	// similarity reaches zero.
	contextualHorizon = 3650.0
	secondsPerDay     = 86400.0

	maxCaseFacts    = 5
	maxSimilarFacts = 3
)

// Recommended actions by overall similarity band.
const (
	ActionDirectPrecedent = "cite as direct precedent"
	ActionPersuasive      = "review as persuasive authority"
	ActionAnalogous       = "consider for analogous reasoning"
	ActionNotRecommended  = "not recommended as precedent"
)

// DefaultWeights are the per-dimension contributions to the overall score.
var DefaultWeights = map[core.SimilarityDimension]float64{
	core.DimensionSemantic:   0.3,
	core.DimensionLegal:      0.25,
	core.DimensionFactual:    0.25,
	core.DimensionProcedural: 0.1,
	core.DimensionContextual: 0.1,
}

// DefaultDimensions are compared when a request names none.
var DefaultDimensions = []core.SimilarityDimension{
	core.DimensionSemantic, core.DimensionLegal, core.DimensionFactual,
}

// Engine compares cases across similarity dimensions.
type Engine struct {
	gen       *embedding.Generator
	weights   map[core.SimilarityDimension]float64
	threshold float64
	logger    *slog.Logger
}

type Option func(*Engine) error

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger.With("component", "similarity-engine")
		return nil
	}
}

// WithWeights replaces individual dimension weights. Dimensions not named
// keep their default weight.
func WithWeights(weights map[core.SimilarityDimension]float64) Option {
	return func(e *Engine) error {
		for dim, w := range weights {
			if !dim.Valid() {
				return fmt.Errorf("%w: %q", core.ErrInvalidDimension, dim)
			}
			if w < 0 || w > 1 || math.IsNaN(w) {
				return fmt.Errorf("%w: %s=%v", ErrInvalidWeight, dim, w)
			}
			e.weights[dim] = w
		}
		return nil
	}
}

func WithMatchThreshold(threshold float64) Option {
	return func(e *Engine) error {
		if threshold < 0 || threshold > 1 || math.IsNaN(threshold) {
			return ErrInvalidThreshold
		}
		e.threshold = threshold
		return nil
	}
}

func NewEngine(gen *embedding.Generator, opts ...Option) (*Engine, error) {
	if gen == nil {
		return nil, ErrGeneratorRequired
	}
	e := &Engine{
		gen:       gen,
		weights:   make(map[core.SimilarityDimension]float64, len(DefaultWeights)),
		threshold: DefaultMatchThreshold,
		logger:    slog.Default().With("component", "similarity-engine"),
	}
	for dim, w := range DefaultWeights {
		e.weights[dim] = w
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Weight returns the configured weight of a dimension.
func (e *Engine) Weight(dim core.SimilarityDimension) float64 {
	return e.weights[dim]
}

// Compare scores b against a on the requested dimensions. A dimension that
// fails scores 0 rather than failing the comparison; only an unknown
// dimension is an error.
func (e *Engine) Compare(ctx context.Context, a, b core.CaseData, dims []core.SimilarityDimension, explain bool) (*core.CaseSimilarityResult, error) {
	if len(dims) == 0 {
		dims = DefaultDimensions
	}
	if err := core.ValidateDimensions(dims); err != nil {
		return nil, core.SearchError("invalid similarity dimensions", err)
	}

	result := &core.CaseSimilarityResult{
		CaseID:          b.ID,
		DimensionScores: make(map[core.SimilarityDimension]float64, len(dims)),
	}
	if result.CaseID == "" {
		result.CaseID = "unknown"
	}
	if explain {
		result.Explanations = make(map[core.SimilarityDimension]string, len(dims))
	}

	for _, dim := range dims {
		if _, done := result.DimensionScores[dim]; done {
			continue
		}
		score, note, err := e.score(ctx, dim, a, b)
		if err != nil {
			e.logger.Warn("dimension scoring failed", "dimension", dim, "case_id", result.CaseID, "err", err)
			score, note = 0, fmt.Sprintf("Error calculating %s similarity: %v", dim, err)
		}
		result.DimensionScores[dim] = score
		result.OverallSimilarity += score * e.weights[dim]
		if explain {
			result.Explanations[dim] = note
		}
	}

	result.LegalPrecedentMatch = result.OverallSimilarity >= e.threshold
	result.RecommendedAction = RecommendedAction(result.OverallSimilarity)
	return result, nil
}

// RecommendedAction maps an overall similarity to a recommendation.
func RecommendedAction(overall float64) string {
	switch {
	case overall >= 0.8:
		return ActionDirectPrecedent
	case overall >= 0.6:
		return ActionPersuasive
	case overall >= 0.4:
		return ActionAnalogous
	default:
		return ActionNotRecommended
	}
}

func (e *Engine) score(ctx context.Context, dim core.SimilarityDimension, a, b core.CaseData) (float64, string, error) {
	switch dim {
	case core.DimensionSemantic:
		return e.semantic(ctx, a, b)
	case core.DimensionLegal:
		s, note := Legal(a, b)
		return s, note, nil
	case core.DimensionFactual:
		return e.factual(ctx, a, b)
	case core.DimensionProcedural:
		s, note := Procedural(a, b)
		return s, note, nil
	case core.DimensionContextual:
		s, note := Contextual(a, b)
		return s, note, nil
	}
	return 0, "Unknown dimension", nil
}

func (e *Engine) semantic(ctx context.Context, a, b core.CaseData) (float64, string, error) {
	textA := a.DecisionText + " " + a.Summary
	textB := b.DecisionText + " " + b.Summary
	if strings.TrimSpace(textA) == "" || strings.TrimSpace(textB) == "" {
		return 0, "Insufficient text for semantic comparison", nil
	}
	sim, err := e.cosine(ctx, textA, textB)
	if err != nil {
		return 0, "", err
	}
	return sim, fmt.Sprintf("Semantic similarity based on text embeddings: %.3f", sim), nil
}

func (e *Engine) factual(ctx context.Context, a, b core.CaseData) (float64, string, error) {
	factsA := caseFacts(a)
	factsB := caseFacts(b)
	if len(factsA) == 0 || len(factsB) == 0 {
		return 0, "Insufficient factual information for comparison", nil
	}
	sim, err := e.cosine(ctx, strings.Join(factsA, " "), strings.Join(factsB, " "))
	if err != nil {
		return 0, "", err
	}
	return sim, fmt.Sprintf("Factual similarity based on extracted facts: %.3f", sim), nil
}

func (e *Engine) cosine(ctx context.Context, textA, textB string) (float64, error) {
	vecs, err := e.gen.GenerateBatch(ctx, []string{textA, textB}, embedding.GenerateOptions{Preprocess: true})
	if err != nil {
		return 0, err
	}
	return embedding.Similarity(vecs[0], vecs[1]), nil
}

func caseFacts(c core.CaseData) []string {
	if strings.TrimSpace(c.Facts) != "" {
		return textproc.ExtractFacts(c.Facts)
	}
	return textproc.ExtractFacts(c.DecisionText)
}

// Legal blends the Jaccard overlap of legal subjects and keywords.
func Legal(a, b core.CaseData) (float64, string) {
	if len(a.LegalSubjects) == 0 && len(b.LegalSubjects) == 0 &&
		len(a.Keywords) == 0 && len(b.Keywords) == 0 {
		return 0, "No legal subjects or keywords for comparison"
	}
	subjects := Jaccard(a.LegalSubjects, b.LegalSubjects)
	keywords := Jaccard(a.Keywords, b.Keywords)
	score := subjects*subjectWeight + keywords*keywordWeight
	return score, fmt.Sprintf("Legal similarity based on subjects (%.3f) and keywords (%.3f): %.3f", subjects, keywords, score)
}

// Procedural averages court type and decision type agreement.
func Procedural(a, b core.CaseData) (float64, string) {
	court := boolScore(a.CourtType == b.CourtType)
	decision := boolScore(a.DecisionType == b.DecisionType)
	score := (court + decision) / 2
	return score, fmt.Sprintf("Procedural similarity based on court type match (%.1f) and decision type match (%.1f): %.3f", court, decision, score)
}

// Contextual decays linearly with the distance between decision dates and
// reaches zero at ten years. A missing date scores 0.5.
func Contextual(a, b core.CaseData) (float64, string) {
	score := 0.5
	if dated(a.DecisionDate) && dated(b.DecisionDate) {
		secs := math.Abs(float64(a.DecisionDate.Unix() - b.DecisionDate.Unix()))
		days := math.Floor(secs / secondsPerDay)
		score = math.Max(0, 1-days/contextualHorizon)
	}
	return score, fmt.Sprintf("Contextual similarity based on temporal proximity: %.3f", score)
}

// Jaccard is |a∩b| / |a∪b| over distinct values, or 0 when both are empty.
func Jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, v := range b {
		setB[v] = struct{}{}
	}
	union := len(setA)
	inter := 0
	for v := range setB {
		if _, ok := setA[v]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// SimilarFacts pairs each of the first case facts with its closest decision
// fact above FactMatchThreshold and returns at most three matches. Failures
// yield no facts.
func (e *Engine) SimilarFacts(ctx context.Context, facts, decisionText string) []string {
	queryFacts := textproc.ExtractFacts(facts)
	decisionFacts := textproc.ExtractFacts(decisionText)
	if len(queryFacts) == 0 || len(decisionFacts) == 0 {
		return nil
	}
	if len(queryFacts) > maxCaseFacts {
		queryFacts = queryFacts[:maxCaseFacts]
	}

	texts := make([]string, 0, len(queryFacts)+len(decisionFacts))
	texts = append(texts, queryFacts...)
	texts = append(texts, decisionFacts...)
	vecs, err := e.gen.GenerateBatch(ctx, texts, embedding.GenerateOptions{})
	if err != nil {
		e.logger.Warn("similar fact extraction failed", "err", err)
		return nil
	}
	caseVecs, decisionVecs := vecs[:len(queryFacts)], vecs[len(queryFacts):]

	var matches []string
	for _, cv := range caseVecs {
		best := FactMatchThreshold
		match := ""
		for j, dv := range decisionVecs {
			if sim := embedding.Similarity(cv, dv); sim > best {
				best, match = sim, decisionFacts[j]
			}
		}
		if match != "" {
			matches = append(matches, match)
		}
		if len(matches) == maxSimilarFacts {
			break
		}
	}
	return matches
}

func boolScore(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// dated reports whether t holds a real date. The zero time counts as missing.
func dated(t *time.Time) bool {
	return t != nil && !t.IsZero()
}
