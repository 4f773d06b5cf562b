// Package intent derives query suggestions from search results and
// classifies queries with keyword heuristics.
package intent

import (
	"strings"

	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/pkg/utils"
)

// Query types.
const (
	TypeQuestion = "Question"
	TypeTopic    = "Topic"
)

// Complexity levels.
const (
	ComplexityLow    = "Low"
	ComplexityMedium = "Medium"
	ComplexityHigh   = "High"
)

// DomainGeneral is reported when no domain keyword matches.
const DomainGeneral = "General"

var questionWords = []string{"what", "how", "why", "when", "where", "who"}

type domain struct {
	name     string
	keywords []string
}

// Checked in order; the first bucket with a matching keyword wins.
var domains = []domain{
	{"Technology", []string{"ai", "machine learning", "programming", "software", "technology", "computer"}},
	{"Science", []string{"research", "study", "experiment", "biology", "physics", "chemistry"}},
	{"Business", []string{"marketing", "management", "strategy", "finance", "business"}},
	{"Health", []string{"health", "medical", "medicine", "wellness", "fitness"}},
}

// Analyze classifies query. Keywords match as substrings of the lowercased
// query, so "ai" also matches inside "explain".
func Analyze(query string) models.Intent {
	lower := strings.ToLower(query)
	words := utils.WordCount(query)
	return models.Intent{
		QueryType:    queryType(lower),
		LikelyDomain: likelyDomain(lower),
		QueryLength:  words,
		Complexity:   complexity(words),
	}
}

func queryType(lower string) string {
	if containsAny(lower, questionWords) {
		return TypeQuestion
	}
	return TypeTopic
}

func likelyDomain(lower string) string {
	for _, d := range domains {
		if containsAny(lower, d.keywords) {
			return d.name
		}
	}
	return DomainGeneral
}

func complexity(words int) string {
	switch {
	case words > 5:
		return ComplexityHigh
	case words > 2:
		return ComplexityMedium
	default:
		return ComplexityLow
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
