// Package expand rewrites a search query into alternative phrasings with a
// generative model so that semantically close content is found.
package expand

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/pkg/utils"
)

const (
	// MaxAlternatives caps the alternatives taken from one model reply.
	MaxAlternatives = 5
	minLineLength   = 5
)

var numberedPrefix = regexp.MustCompile(`^\d+\.\s*`)

// Generator completes a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Result holds the queries to search with. Queries[0] is always the
// original query.
type Result struct {
	Queries []string
	Status  models.Status
	Reason  string
	err     error
}

// Err returns a non-nil error only when Status is StatusFailed.
func (r Result) Err() error {
	if r.Status != models.StatusFailed {
		return nil
	}
	return fmt.Errorf("query expansion failed: %w", r.err)
}

// Expander produces query variants. A nil generator always degrades to the
// original query.
type Expander struct {
	gen    Generator
	logger *zap.Logger
}

// New creates an expander. gen may be nil.
func New(gen Generator, logger *zap.Logger) *Expander {
	return &Expander{gen: gen, logger: utils.OrNop(logger)}
}

// Expand returns the original query followed by up to MaxAlternatives
// distinct alternatives.
func (e *Expander) Expand(ctx context.Context, query string) Result {
	if err := ctx.Err(); err != nil {
		return Result{Status: models.StatusFailed, Reason: err.Error(), err: err}
	}
	original := []string{query}
	if e.gen == nil {
		return Result{Queries: original, Status: models.StatusDegraded, Reason: "no generative model configured"}
	}
	reply, err := e.gen.Generate(ctx, Prompt(query))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{Status: models.StatusFailed, Reason: ctxErr.Error(), err: ctxErr}
		}
		e.logger.Warn("query expansion failed, searching original query only", zap.Error(err))
		return Result{Queries: original, Status: models.StatusDegraded, Reason: err.Error()}
	}
	alternatives := ParseAlternatives(reply)
	if len(alternatives) == 0 {
		return Result{Queries: original, Status: models.StatusDegraded, Reason: "model reply contained no usable alternatives"}
	}
	return Result{Queries: merge(query, alternatives), Status: models.StatusOK}
}

// Prompt builds the expansion prompt for query.
func Prompt(query string) string {
	return fmt.Sprintf(`Given the search query: "%s"

Generate 3-5 alternative search queries that would help find similar or related content.
The queries should capture different aspects, synonyms, and related concepts.

Original query: %s

Alternative queries:`, query, query)
}

// ParseAlternatives extracts candidate queries from a model reply: one per
// line, bullets and numbering removed, entries of five characters or fewer
// dropped, at most MaxAlternatives kept.
func ParseAlternatives(reply string) []string {
	var out []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, "-•* ")
		line = numberedPrefix.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if len(line) <= minLineLength {
			continue
		}
		out = append(out, line)
		if len(out) == MaxAlternatives {
			break
		}
	}
	return out
}

func merge(query string, alternatives []string) []string {
	seen := map[string]bool{query: true}
	out := []string{query}
	for _, alt := range alternatives {
		if seen[alt] {
			continue
		}
		seen[alt] = true
		out = append(out, alt)
	}
	return out
}
