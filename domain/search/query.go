// Package search provides domain types for semantic product search.
package search

import "strings"

// Default query parameters.
const (
	DefaultLimit     = 20
	DefaultThreshold = 0.1
)

// Query represents a validated product search query.
type Query struct {
	text      string
	limit     int
	threshold float64
}

// NewQuery creates a Query, applying defaults for out-of-range parameters.
// The text is trimmed; emptiness is checked by Valid.
func NewQuery(text string, limit int, threshold float64) Query {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if threshold < 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return Query{
		text:      strings.TrimSpace(text),
		limit:     limit,
		threshold: threshold,
	}
}

// Text returns the trimmed query text.
func (q Query) Text() string { return q.text }

// Limit returns the maximum number of results.
func (q Query) Limit() int { return q.limit }

// Threshold returns the minimum similarity for vector matches.
func (q Query) Threshold() float64 { return q.threshold }

// Valid reports whether the query has non-empty text.
func (q Query) Valid() bool { return q.text != "" }
