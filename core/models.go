package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored decisions.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Decisions derive their ID from the process number, so re-ingesting the same
// process always lands on the same record.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// CourtType identifies the issuing court of a decision.
type CourtType string

const (
	CourtSTF  CourtType = "STF"
	CourtSTJ  CourtType = "STJ"
	CourtTST  CourtType = "TST"
	CourtTSE  CourtType = "TSE"
	CourtSTM  CourtType = "STM"
	CourtTRF1 CourtType = "TRF1"
	CourtTRF2 CourtType = "TRF2"
	CourtTRF3 CourtType = "TRF3"
	CourtTRF4 CourtType = "TRF4"
	CourtTRF5 CourtType = "TRF5"
	CourtTRF6 CourtType = "TRF6"
	CourtTJ   CourtType = "TJ"  // state courts
	CourtTRT  CourtType = "TRT" // labor courts
	CourtTRE  CourtType = "TRE" // electoral courts
)

// CourtTypes lists every recognized court type.
var CourtTypes = []CourtType{
	CourtSTF, CourtSTJ, CourtTST, CourtTSE, CourtSTM,
	CourtTRF1, CourtTRF2, CourtTRF3, CourtTRF4, CourtTRF5, CourtTRF6,
	CourtTJ, CourtTRT, CourtTRE,
}

// Valid reports whether c is a recognized court type.
func (c CourtType) Valid() bool {
	for _, ct := range CourtTypes {
		if ct == c {
			return true
		}
	}
	return false
}

// ParseCourtType converts a string into a CourtType.
func ParseCourtType(s string) (CourtType, error) {
	c := CourtType(s)
	if !c.Valid() {
		return "", ErrInvalidCourtType
	}
	return c, nil
}

// DecisionType classifies the kind of judicial act.
type DecisionType string

const (
	DecisionAcordao           DecisionType = "acordao"
	DecisionMonocratica       DecisionType = "decisao_monocratica"
	DecisionDespacho          DecisionType = "despacho"
	DecisionSentenca          DecisionType = "sentenca"
	DecisionSumula            DecisionType = "sumula"
	DecisionSumulaVinculante  DecisionType = "sumula_vinculante"
	DecisionRepercussaoGeral  DecisionType = "repercussao_geral"
	DecisionRecursoRepetitivo DecisionType = "recurso_repetitivo"
)

// DecisionTypes lists every recognized decision type.
var DecisionTypes = []DecisionType{
	DecisionAcordao, DecisionMonocratica, DecisionDespacho, DecisionSentenca,
	DecisionSumula, DecisionSumulaVinculante, DecisionRepercussaoGeral, DecisionRecursoRepetitivo,
}

// Valid reports whether d is a recognized decision type.
func (d DecisionType) Valid() bool {
	for _, dt := range DecisionTypes {
		if dt == d {
			return true
		}
	}
	return false
}

// ParseDecisionType converts a string into a DecisionType.
func ParseDecisionType(s string) (DecisionType, error) {
	d := DecisionType(s)
	if !d.Valid() {
		return "", ErrInvalidDecisionType
	}
	return d, nil
}

// LegalDecision is a judicial decision as held by the authoritative store.
type LegalDecision struct {
	Id              ID                `msgpack:"id" json:"id"`
	CourtName       string            `msgpack:"court_name" json:"court_name"`
	CourtType       CourtType         `msgpack:"court_type" json:"court_type"`
	DecisionDate    time.Time         `msgpack:"decision_date" json:"decision_date"`
	PublicationDate *time.Time        `msgpack:"publication_date,omitempty" json:"publication_date,omitempty"`
	ProcessNumber   string            `msgpack:"process_number" json:"process_number"`
	CaseType        string            `msgpack:"case_type" json:"case_type,omitempty"`
	LegalSubjects   []string          `msgpack:"legal_subjects" json:"legal_subjects,omitempty"`
	DecisionType    DecisionType      `msgpack:"decision_type" json:"decision_type"`
	Rapporteur      string            `msgpack:"rapporteur" json:"rapporteur,omitempty"`
	DecisionText    string            `msgpack:"decision_text" json:"decision_text"`
	Summary         string            `msgpack:"summary" json:"summary,omitempty"`
	LegalReferences []string          `msgpack:"legal_references" json:"legal_references,omitempty"`
	CitedCases      []string          `msgpack:"cited_cases" json:"cited_cases,omitempty"`
	Keywords        []string          `msgpack:"keywords" json:"keywords,omitempty"`
	CitationCount   int               `msgpack:"citation_count" json:"citation_count"`
	RelevanceScore  float64           `msgpack:"relevance_score" json:"relevance_score"`
	Embedding       []float32         `msgpack:"embedding" json:"embedding,omitempty"`
	Metadata        map[string]string `msgpack:"metadata" json:"metadata,omitempty"`
	SourceURL       string            `msgpack:"source_url" json:"source_url,omitempty"`
	CreatedAt       time.Time         `msgpack:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `msgpack:"updated_at" json:"updated_at"`
}

// EmbeddingText returns the text a decision is indexed under.
func (d *LegalDecision) EmbeddingText() string {
	if d.Summary == "" {
		return d.DecisionText
	}
	return d.Summary + " " + d.DecisionText
}

// CaseData returns the decision viewed as a comparable case. An undated
// decision has a nil DecisionDate.
func (d *LegalDecision) CaseData() CaseData {
	cd := CaseData{
		ID:            d.ProcessNumber,
		DecisionText:  d.DecisionText,
		Summary:       d.Summary,
		LegalSubjects: d.LegalSubjects,
		Keywords:      d.Keywords,
		CourtType:     d.CourtType,
		DecisionType:  d.DecisionType,
	}
	if !d.DecisionDate.IsZero() {
		date := d.DecisionDate
		cd.DecisionDate = &date
	}
	return cd
}

// CaseData is a case supplied by a caller for comparison or precedent search.
// Any field may be empty; scoring degrades per dimension.
type CaseData struct {
	ID            string       `json:"id,omitempty"`
	DecisionText  string       `json:"decision_text,omitempty"`
	Summary       string       `json:"summary,omitempty"`
	Facts         string       `json:"facts,omitempty"`
	LegalSubjects []string     `json:"legal_subjects,omitempty"`
	Keywords      []string     `json:"keywords,omitempty"`
	CourtType     CourtType    `json:"court_type,omitempty"`
	DecisionType  DecisionType `json:"decision_type,omitempty"`
	DecisionDate  *time.Time   `json:"decision_date,omitempty"`
}

// SimilarityDimension is one independently scored axis of case similarity.
type SimilarityDimension string

const (
	DimensionSemantic   SimilarityDimension = "semantic"
	DimensionLegal      SimilarityDimension = "legal"
	DimensionFactual    SimilarityDimension = "factual"
	DimensionProcedural SimilarityDimension = "procedural"
	DimensionContextual SimilarityDimension = "contextual"
)

// Dimensions lists every similarity dimension in canonical order.
var Dimensions = []SimilarityDimension{
	DimensionSemantic, DimensionLegal, DimensionFactual, DimensionProcedural, DimensionContextual,
}

// Valid reports whether d is a known dimension.
func (d SimilarityDimension) Valid() bool {
	for _, dim := range Dimensions {
		if dim == d {
			return true
		}
	}
	return false
}

// CaseSimilarityResult is the outcome of comparing a base case with one other case.
type CaseSimilarityResult struct {
	CaseID              string                          `json:"case_id"`
	OverallSimilarity   float64                         `json:"overall_similarity"`
	DimensionScores     map[SimilarityDimension]float64 `json:"dimension_scores"`
	Explanations        map[SimilarityDimension]string  `json:"explanations,omitempty"`
	LegalPrecedentMatch bool                            `json:"legal_precedent_match"`
	RecommendedAction   string                          `json:"recommended_action,omitempty"`
}

// SearchResult is a decision returned by similarity search.
type SearchResult struct {
	Decision             *LegalDecision `msgpack:"decision" json:"decision"`
	SimilarityScore      float64        `msgpack:"similarity_score" json:"similarity_score"`
	Highlights           []string       `msgpack:"highlights" json:"highlights,omitempty"`
	RelevanceExplanation string         `msgpack:"relevance_explanation" json:"relevance_explanation,omitempty"`
}

// Precedent is a ranked candidate precedent.
type Precedent struct {
	Decision          *LegalDecision `msgpack:"decision" json:"decision"`
	SimilarityScore   float64        `msgpack:"similarity_score" json:"similarity_score"`
	PrecedentStrength float64        `msgpack:"precedent_strength" json:"precedent_strength"`
	SimilarFacts      []string       `msgpack:"similar_facts" json:"similar_facts,omitempty"`
}

// SearchFilters restrict search candidates by metadata. Empty fields match everything.
type SearchFilters struct {
	CourtTypes    []CourtType    `msgpack:"court_types" json:"court_types,omitempty"`
	DecisionTypes []DecisionType `msgpack:"decision_types" json:"decision_types,omitempty"`
	DateFrom      *time.Time     `msgpack:"date_from" json:"date_from,omitempty"`
	DateTo        *time.Time     `msgpack:"date_to" json:"date_to,omitempty"`
	LegalSubjects []string       `msgpack:"legal_subjects" json:"legal_subjects,omitempty"`
}

// IsZero reports whether no filter is set.
func (f *SearchFilters) IsZero() bool {
	return f == nil || (len(f.CourtTypes) == 0 && len(f.DecisionTypes) == 0 &&
		f.DateFrom == nil && f.DateTo == nil && len(f.LegalSubjects) == 0)
}

// Matches reports whether the decision satisfies every set filter.
// Legal subjects match when the decision shares at least one subject.
func (f *SearchFilters) Matches(d *LegalDecision) bool {
	if f.IsZero() {
		return true
	}
	if len(f.CourtTypes) > 0 && !contains(f.CourtTypes, d.CourtType) {
		return false
	}
	if len(f.DecisionTypes) > 0 && !contains(f.DecisionTypes, d.DecisionType) {
		return false
	}
	if f.DateFrom != nil && d.DecisionDate.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && d.DecisionDate.After(*f.DateTo) {
		return false
	}
	if len(f.LegalSubjects) > 0 {
		found := false
		for _, s := range d.LegalSubjects {
			if contains(f.LegalSubjects, s) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func contains[T comparable](items []T, v T) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}

// Statistics summarizes the authoritative store.
type Statistics struct {
	TotalDecisions  int                  `json:"total_decisions"`
	ByCourtType     map[CourtType]int    `json:"by_court_type"`
	ByDecisionType  map[DecisionType]int `json:"by_decision_type"`
	RecentDecisions int                  `json:"recent_decisions_30d"`
	LastUpdated     time.Time            `json:"last_updated"`
}
