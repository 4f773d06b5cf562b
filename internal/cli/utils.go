// Package cli provides output formatting and an HTTP client for the tansaku CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/pkg/utils"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputCompact prints one line per result.
	OutputCompact SearchOutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

const rule = "─────────────────────────────────────────────────────────"

// ParseFormat validates a --output value.
func ParseFormat(s string) (SearchOutputFormat, error) {
	switch f := SearchOutputFormat(strings.ToLower(s)); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		return WriteJSON(w, response)
	case OutputCompact:
		for i, r := range response.Results {
			fmt.Fprintf(w, "%2d. %.4f  %s  [%s/%s]  %s\n", i+1, r.SimilarityScore, r.Title, r.Category, r.Difficulty, r.ID)
		}
		return nil
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d results for %q in %.4fs\n\n", response.TotalResults, response.Query, response.SearchTime)
	for i, r := range response.Results {
		writeOneResult(w, i+1, r)
	}
}

func writeOneResult(w io.Writer, rank int, r *models.SearchResult) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Rank: %d | Score: %.4f | %s\n", rank, r.SimilarityScore, r.RelevanceExplanation)
	fmt.Fprintf(w, "ID: %s\n", r.ID)
	fmt.Fprintf(w, "Title: %s\n", r.Title)
	fmt.Fprintf(w, "Category: %s | Difficulty: %s | %d min read", r.Category, r.Difficulty, r.ReadTime)
	if r.Author != "" {
		fmt.Fprintf(w, " | by %s", r.Author)
	}
	fmt.Fprintln(w)
	if len(r.Tags) > 0 {
		fmt.Fprintf(w, "Tags: %s\n", strings.Join(r.Tags, ", "))
	}
	summary := r.Summary
	if summary == "" {
		summary = utils.Truncate(r.Content, 200)
	}
	fmt.Fprintf(w, "\n%s\n\n", summary)
}

// WriteContent prints one content item.
func WriteContent(w io.Writer, item *models.ContentItem) {
	fmt.Fprintf(w, "ID: %s\nTitle: %s\nCategory: %s\nDifficulty: %s\nRead time: %d min\nAuthor: %s\nCreated: %s\n",
		item.ID, item.Title, item.Category, item.Difficulty, item.ReadTime, item.Author, item.CreatedAt)
	if len(item.Tags) > 0 {
		fmt.Fprintf(w, "Tags: %s\n", strings.Join(item.Tags, ", "))
	}
	fmt.Fprintf(w, "\n%s\n", item.Content)
}

// WriteSimilar prints items similar to id.
func WriteSimilar(w io.Writer, id string, results []*models.SearchResult) {
	fmt.Fprintf(w, "\n%d items similar to %s\n\n", len(results), id)
	for i, r := range results {
		fmt.Fprintf(w, "%2d. %.4f  %s  [%s]  %s\n", i+1, r.SimilarityScore, r.Title, r.Category, r.ID)
	}
}

// WriteStats prints content and search statistics. Categories are sorted by name.
func WriteStats(w io.Writer, st *models.Stats) {
	fmt.Fprintf(w, "Total content:       %d\n", st.TotalContent)
	fmt.Fprintf(w, "Total searches:      %d\n", st.TotalSearches)
	fmt.Fprintf(w, "Average search time: %.4fs\n", st.AverageSearchTime)
	if len(st.Categories) > 0 {
		names := make([]string, 0, len(st.Categories))
		for name := range st.Categories {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintln(w, "\nCategories:")
		for _, name := range names {
			fmt.Fprintf(w, "  %-24s %d\n", name, st.Categories[name])
		}
	}
	if len(st.PopularQueries) > 0 {
		fmt.Fprintln(w, "\nPopular queries:")
		for _, q := range st.PopularQueries {
			fmt.Fprintf(w, "  %-24s %d\n", q.Query, q.Count)
		}
	}
}

// WriteSuggestions prints suggestions and intent analysis.
func WriteSuggestions(w io.Writer, s *models.Suggestions) {
	in := s.IntentAnalysis
	fmt.Fprintf(w, "Query: %s\n", s.Query)
	fmt.Fprintf(w, "Intent: %s | Domain: %s | Words: %d | Complexity: %s\n",
		in.QueryType, in.LikelyDomain, in.QueryLength, in.Complexity)
	if len(s.Suggestions) == 0 {
		fmt.Fprintln(w, "\nNo suggestions.")
		return
	}
	fmt.Fprintln(w, "\nSuggestions:")
	for _, sug := range s.Suggestions {
		fmt.Fprintf(w, "  - %s\n", sug)
	}
}
