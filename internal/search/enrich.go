package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/pkg/utils"
)

// Relevance labels by similarity score.
const (
	LabelHigh     = "Highly relevant - strong semantic match"
	LabelModerate = "Moderately relevant - good conceptual match"
	LabelPartial  = "Somewhat relevant - partial match"
	LabelLimited  = "Limited relevance - weak match"
)

// Summarizer completes a prompt.
type Summarizer interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Enricher adds summaries and relevance labels to results.
type Enricher struct {
	gen         Summarizer
	threshold   int
	words       int
	concurrency int
	logger      *zap.Logger
}

// NewEnricher creates an enricher. Bodies longer than threshold words are
// summarized to about words words; gen may be nil.
func NewEnricher(gen Summarizer, threshold, words, concurrency int, logger *zap.Logger) *Enricher {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Enricher{
		gen:         gen,
		threshold:   threshold,
		words:       words,
		concurrency: concurrency,
		logger:      utils.OrNop(logger),
	}
}

// Enrich fills Summary and RelevanceExplanation on every result in place.
// It fails only when ctx is done.
func (en *Enricher) Enrich(ctx context.Context, results []*models.SearchResult) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(en.concurrency)
	for _, r := range results {
		g.Go(func() error {
			summary, err := en.Summary(gctx, r.Content)
			if err != nil {
				return err
			}
			r.Summary = summary
			r.RelevanceExplanation = Explain(r.SimilarityScore)
			return nil
		})
	}
	return g.Wait()
}

// Summary returns body unchanged when short, otherwise a model summary.
// Without a model it uses the first two sentences; on model failure the first words.
func (en *Enricher) Summary(ctx context.Context, body string) (string, error) {
	if utils.WordCount(body) <= en.threshold {
		return body, nil
	}
	if en.gen == nil {
		return utils.FirstSentences(body, 2), nil
	}
	out, err := en.gen.Generate(ctx, SummaryPrompt(body, en.words))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		en.logger.Warn("summarization failed, truncating", zap.Error(err))
		return utils.FirstWords(body, en.words), nil
	}
	return out, nil
}

// SummaryPrompt builds the summarization prompt.
func SummaryPrompt(body string, words int) string {
	return fmt.Sprintf(`Summarize the following content in approximately %d words.
Focus on the key points and main ideas while maintaining clarity and readability.

Content: %s

Summary:`, words, body)
}

// Explain maps a similarity score to a relevance label.
func Explain(score float64) string {
	switch {
	case score > 0.8:
		return LabelHigh
	case score > 0.6:
		return LabelModerate
	case score > 0.4:
		return LabelPartial
	default:
		return LabelLimited
	}
}
