package models

import "strings"

// SearchQuery represents a retrieval request. TopK and the weights are
// optional; zero TopK and nil weights mean "use configured defaults", resolved
// freshly on every Validate call.
type SearchQuery struct {
	Query          string   `json:"query"`
	TopK           int      `json:"top_k,omitempty"`
	LexicalWeight  *float64 `json:"lexical_weight,omitempty"`
	SemanticWeight *float64 `json:"semantic_weight,omitempty"`
}

// Validate checks the query parameters and fills in defaults. Invalid
// parameters produce a QueryError; the query is otherwise normalized in place
// so callers downstream see concrete values.
func (q *SearchQuery) Validate(defaultTopK int, defaultLexical, defaultSemantic float64) error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return &QueryError{Reason: "query cannot be empty"}
	}
	if q.TopK < 0 {
		return NewQueryError("top_k must be positive, got %d", q.TopK)
	}
	if q.TopK == 0 {
		q.TopK = defaultTopK
	}
	if q.LexicalWeight == nil {
		w := defaultLexical
		q.LexicalWeight = &w
	}
	if q.SemanticWeight == nil {
		w := defaultSemantic
		q.SemanticWeight = &w
	}
	if *q.LexicalWeight < 0 || *q.SemanticWeight < 0 {
		return &QueryError{Reason: "weights cannot be negative"}
	}
	if *q.LexicalWeight == 0 && *q.SemanticWeight == 0 {
		return &QueryError{Reason: "at least one weight must be positive"}
	}
	return nil
}
