package models

// SearchResult is a content item matched by a search, with its similarity and enrichment.
type SearchResult struct {
	ContentItem
	SimilarityScore      float64 `json:"similarity_score"`
	Summary              string  `json:"summary,omitempty"`
	RelevanceExplanation string  `json:"relevance_explanation,omitempty"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Query        string          `json:"query"`
	Results      []*SearchResult `json:"results"`
	TotalResults int             `json:"total_results"`
	// SearchTime is the wall-clock duration of the pipeline in seconds.
	SearchTime float64 `json:"search_time"`
}

// QueryCount is a query string and how often it was searched.
type QueryCount struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// Stats summarizes stored content and search traffic.
type Stats struct {
	TotalContent      int            `json:"total_content"`
	Categories        map[string]int `json:"categories"`
	TotalSearches     int            `json:"total_searches"`
	AverageSearchTime float64        `json:"average_search_time"`
	PopularQueries    []QueryCount   `json:"popular_queries"`
}

// Intent is a heuristic classification of a query.
type Intent struct {
	QueryType    string `json:"query_type"`
	LikelyDomain string `json:"likely_domain"`
	QueryLength  int    `json:"query_length"`
	Complexity   string `json:"complexity"`
}

// Suggestions holds alternative queries derived from search results plus the query's intent.
type Suggestions struct {
	Query          string   `json:"query"`
	Suggestions    []string `json:"suggestions"`
	IntentAnalysis Intent   `json:"intent_analysis"`
}
