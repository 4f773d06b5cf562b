package models

import "fmt"

// SearchQuery represents a search request with optional filters.
type SearchQuery struct {
	Query            string  `json:"query"`
	MaxResults       *int    `json:"max_results,omitempty"`
	CategoryFilter   string  `json:"category_filter,omitempty"`
	DifficultyFilter string  `json:"difficulty_filter,omitempty"`
	MinSimilarity    float64 `json:"min_similarity,omitempty"`
	// DisableExpansion searches the query text alone, without generated variants.
	DisableExpansion bool `json:"disable_expansion,omitempty"`
}

// Limit returns the effective result limit. Validate must have been called.
func (q *SearchQuery) Limit() int {
	if q.MaxResults == nil {
		return 0
	}
	return *q.MaxResults
}

// Validate ensures the search query has valid fields and sets defaults.
// Returns an error if the query is empty; an unset or negative max_results becomes
// defaultLimit and anything above maxLimit is capped. Zero is kept and yields no results.
func (q *SearchQuery) Validate(defaultLimit, maxLimit int) error {
	if q.Query == "" {
		return fmt.Errorf("%w: query cannot be empty", ErrValidation)
	}
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	if maxLimit <= 0 {
		maxLimit = 100
	}
	n := defaultLimit
	if q.MaxResults != nil && *q.MaxResults >= 0 {
		n = *q.MaxResults
	}
	if n > maxLimit {
		n = maxLimit
	}
	q.MaxResults = &n
	return nil
}

// Filters returns the exact-match metadata constraints carried by the query.
func (q *SearchQuery) Filters() map[string]string {
	f := make(map[string]string, 2)
	if q.CategoryFilter != "" {
		f["category"] = q.CategoryFilter
	}
	if q.DifficultyFilter != "" {
		f["difficulty"] = q.DifficultyFilter
	}
	return f
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int {
	return &n
}
