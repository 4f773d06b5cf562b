// Package search runs semantic search: query expansion, per-variant vector
// queries, merging, and result enrichment.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/tansaku/internal/config"
	"github.com/hyperjump/tansaku/internal/embedding"
	"github.com/hyperjump/tansaku/internal/expand"
	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/observability"
	"github.com/hyperjump/tansaku/internal/vector"
	"github.com/hyperjump/tansaku/pkg/utils"
)

// ErrSearchTimeout is returned (wrapping the context error) when the search
// deadline passes or the caller cancels. No partial results are returned.
var ErrSearchTimeout = errors.New("search timed out")

// Embedder embeds query text.
type Embedder interface {
	Embed(ctx context.Context, text string) embedding.Result
}

// Expander produces query variants.
type Expander interface {
	Expand(ctx context.Context, query string) expand.Result
}

// Recorder records completed searches.
type Recorder interface {
	Record(query string, resultsCount int, elapsedSeconds float64)
}

// Engine runs semantic search over a vector store.
type Engine struct {
	store    vector.Store
	embedder Embedder
	expander Expander
	enricher *Enricher
	recorder Recorder
	config   *config.SearchConfig
	logger   *zap.Logger
}

// NewEngine creates a search engine. expander, summarizer and recorder may be nil.
func NewEngine(
	store vector.Store,
	embedder Embedder,
	expander Expander,
	summarizer Summarizer,
	recorder Recorder,
	cfg *config.SearchConfig,
	logger *zap.Logger,
) *Engine {
	logger = utils.OrNop(logger)
	return &Engine{
		store:    store,
		embedder: embedder,
		expander: expander,
		enricher: NewEnricher(summarizer, cfg.SummaryWordThreshold, cfg.SummaryWords, cfg.VariantConcurrency, logger),
		recorder: recorder,
		config:   cfg,
		logger:   logger,
	}
}

// Search runs the pipeline for query. Validation errors wrap
// models.ErrValidation. Timeouts return ErrSearchTimeout. Any other failure
// is logged and yields an empty result list.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := ProcessQuery(query, e.config); err != nil {
		return nil, err
	}
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}
	ctx, span := observability.StartSearchSpan(ctx, query.Query, query.Limit())
	defer span.End()

	run, err := e.run(ctx, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ErrSearchTimeout, ctxErr)
			observability.RecordError(span, err)
			e.logger.Warn("search timed out", zap.String("query", query.Query), zap.Error(ctxErr))
			return nil, err
		}
		observability.RecordError(span, err)
		e.logger.Error("search failed", zap.String("query", query.Query), zap.Error(err))
		return &models.SearchResponse{
			Query:      query.Query,
			Results:    []*models.SearchResult{},
			SearchTime: utils.Round(time.Since(startTime).Seconds(), 4),
		}, nil
	}

	elapsed := time.Since(startTime).Seconds()
	if e.recorder != nil {
		e.recorder.Record(query.Query, len(run.results), elapsed)
	}
	observability.RecordSearchResult(span, run.variants, len(run.results), run.degraded)
	e.logger.Debug("search completed",
		zap.String("query", query.Query),
		zap.Int("variants", run.variants),
		zap.Int("results", len(run.results)),
		zap.Float64("elapsed", elapsed),
	)
	return &models.SearchResponse{
		Query:        query.Query,
		Results:      run.results,
		TotalResults: len(run.results),
		SearchTime:   utils.Round(elapsed, 4),
	}, nil
}

type runResult struct {
	results  []*models.SearchResult
	variants int
	degraded []string
}

func (e *Engine) run(ctx context.Context, query *models.SearchQuery) (*runResult, error) {
	out := &runResult{results: []*models.SearchResult{}}
	limit := query.Limit()
	if limit == 0 {
		return out, nil
	}

	queries := []string{query.Query}
	if !query.DisableExpansion && e.expander != nil {
		res := e.expander.Expand(ctx, query.Query)
		if err := res.Err(); err != nil {
			return nil, err
		}
		if res.Status == models.StatusDegraded {
			out.degraded = append(out.degraded, "expansion: "+res.Reason)
		}
		if len(res.Queries) > 0 {
			queries = res.Queries
		}
	}
	out.variants = len(queries)

	filters := vector.Filters(query.Filters())
	slots := make([][]*models.SearchResult, len(queries))
	reasons := make([]string, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.config.VariantConcurrency, 1))
	for i, text := range queries {
		g.Go(func() error {
			vctx, span := observability.StartVariantSpan(gctx, i)
			defer span.End()
			emb := e.embedder.Embed(vctx, text)
			if err := emb.Err(); err != nil {
				observability.RecordError(span, err)
				return err
			}
			if emb.Status == models.StatusDegraded {
				reasons[i] = "embedding: " + emb.Reason
			}
			hits, err := e.store.Query(vctx, emb.Vector, limit, filters)
			if err != nil {
				observability.RecordError(span, err)
				return fmt.Errorf("query variant %d: %w", i, err)
			}
			slots[i] = ScoreHits(hits, query.MinSimilarity)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, r := range reasons {
		if r != "" {
			out.degraded = append(out.degraded, r)
		}
	}

	merged := Merge(slots)
	if len(merged) > limit {
		merged = merged[:limit]
	}
	if err := e.enricher.Enrich(ctx, merged); err != nil {
		return nil, err
	}
	out.results = merged
	return out, nil
}
