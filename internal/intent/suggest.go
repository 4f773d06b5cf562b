package intent

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/pkg/utils"
)

const (
	// MaxSuggestions caps the suggestion list.
	MaxSuggestions = 5
	sampleResults  = 5
	topTags        = 5
)

// Searcher runs a search.
type Searcher interface {
	Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error)
}

// Suggester proposes related queries from the categories and tags of the
// closest matches.
type Suggester struct {
	searcher Searcher
	logger   *zap.Logger
}

// NewSuggester creates a suggester backed by searcher.
func NewSuggester(searcher Searcher, logger *zap.Logger) *Suggester {
	return &Suggester{searcher: searcher, logger: utils.OrNop(logger)}
}

// Suggest returns suggestions and the intent of query. Search failures
// yield an empty suggestion list.
func (s *Suggester) Suggest(ctx context.Context, query string) *models.Suggestions {
	out := &models.Suggestions{
		Query:          query,
		Suggestions:    []string{},
		IntentAnalysis: Analyze(query),
	}
	resp, err := s.searcher.Search(ctx, &models.SearchQuery{
		Query:            query,
		MaxResults:       models.IntPtr(sampleResults),
		DisableExpansion: true,
	})
	if err != nil {
		s.logger.Warn("suggestion search failed", zap.String("query", query), zap.Error(err))
		return out
	}
	out.Suggestions = FromResults(query, resp.Results)
	return out
}

// FromResults builds suggestions for query: one per category in first-seen
// order, then one per frequent tag not already contained in the query.
// Tags differing only in case produce one suggestion.
func FromResults(query string, results []*models.SearchResult) []string {
	suggestions := []string{}
	if len(results) == 0 {
		return suggestions
	}
	lowerQuery := strings.ToLower(query)

	seenCategory := make(map[string]bool)
	for _, r := range results {
		if r.Category == "" || seenCategory[r.Category] {
			continue
		}
		seenCategory[r.Category] = true
		suggestions = append(suggestions, query+" in "+strings.ToLower(r.Category))
	}

	seenTag := make(map[string]bool)
	for _, tag := range rankTags(results) {
		lowerTag := strings.ToLower(tag)
		if seenTag[lowerTag] || strings.Contains(lowerQuery, lowerTag) {
			continue
		}
		seenTag[lowerTag] = true
		suggestions = append(suggestions, query+" "+lowerTag)
	}

	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}
	return suggestions
}

// rankTags returns the most frequent tags, ties in first-seen order.
func rankTags(results []*models.SearchResult) []string {
	counts := make(map[string]int)
	var order []string
	for _, r := range results {
		for _, tag := range r.Tags {
			if tag == "" {
				continue
			}
			if counts[tag] == 0 {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > topTags {
		order = order[:topTags]
	}
	return order
}
