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
	"errors"
	"fmt"
)

// Domain validation errors
var (
	// ErrInvalidDecision indicates a LegalDecision failed validation.
	ErrInvalidDecision = errors.New("invalid legal decision")

	// ErrEmptyProcessNumber indicates the ProcessNumber field is empty.
	ErrEmptyProcessNumber = errors.New("process number cannot be empty")

	// ErrEmptyDecisionText indicates the DecisionText field is empty.
	ErrEmptyDecisionText = errors.New("decision text cannot be empty")

	// ErrInvalidCourtType indicates an unrecognized CourtType value.
	ErrInvalidCourtType = errors.New("invalid court type")

	// ErrInvalidDecisionType indicates an unrecognized DecisionType value.
	ErrInvalidDecisionType = errors.New("invalid decision type")

	// ErrDimensionMismatch indicates an embedding of the wrong length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrInvalidDateRange indicates DateTo precedes DateFrom.
	ErrInvalidDateRange = errors.New("date_to must be after date_from")

	// ErrInvalidDimension indicates an unknown similarity dimension.
	ErrInvalidDimension = errors.New("invalid similarity dimension")
)

// Kind classifies errors that cross component boundaries.
type Kind int

const (
	KindInternal Kind = iota
	KindEmbedding
	KindSearch
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindEmbedding:
		return "embedding"
	case KindSearch:
		return "search"
	case KindConfiguration:
		return "configuration"
	default:
		return "internal"
	}
}

// Sentinels matching each Kind through errors.Is.
var (
	ErrEmbedding     = errors.New("embedding error")
	ErrSearch        = errors.New("search error")
	ErrConfiguration = errors.New("configuration error")
	ErrInternal      = errors.New("internal error")
)

// Error is a typed error carrying a machine-readable code and structured details.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrEmbedding:
		return e.Kind == KindEmbedding
	case ErrSearch:
		return e.Kind == KindSearch
	case ErrConfiguration:
		return e.Kind == KindConfiguration
	case ErrInternal:
		return e.Kind == KindInternal
	}
	return false
}

// WithDetail returns e after recording a structured detail.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// EmbeddingError reports a generation or embedding backend failure.
func EmbeddingError(message string, cause error) *Error {
	return &Error{Kind: KindEmbedding, Code: "EMBEDDING_ERROR", Message: message, Err: cause}
}

// SearchError reports an index or query failure.
func SearchError(message string, cause error) *Error {
	return &Error{Kind: KindSearch, Code: "SEARCH_ERROR", Message: message, Err: cause}
}

// ConfigurationError reports an invalid setup detected at startup.
func ConfigurationError(message string, cause error) *Error {
	return &Error{Kind: KindConfiguration, Code: "CONFIGURATION_ERROR", Message: message, Err: cause}
}

// AsError extracts a typed Error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Internal passes typed errors through and collapses anything else into a
// generic internal error.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsError(err); ok {
		return err
	}
	return &Error{Kind: KindInternal, Code: "INTERNAL_ERROR", Message: "internal error", Err: err}
}
