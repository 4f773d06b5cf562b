// Package app wires the store, providers and search pipeline from config.
// The HTTP server, the MCP server and direct CLI commands share it.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/tansaku/internal/config"
	"github.com/hyperjump/tansaku/internal/content"
	"github.com/hyperjump/tansaku/internal/embedding"
	"github.com/hyperjump/tansaku/internal/expand"
	"github.com/hyperjump/tansaku/internal/importer"
	"github.com/hyperjump/tansaku/internal/intent"
	"github.com/hyperjump/tansaku/internal/llm"
	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/observability"
	"github.com/hyperjump/tansaku/internal/ratelimit"
	"github.com/hyperjump/tansaku/internal/search"
	"github.com/hyperjump/tansaku/internal/stats"
	"github.com/hyperjump/tansaku/internal/storage"
	"github.com/hyperjump/tansaku/internal/vector"
	"github.com/hyperjump/tansaku/pkg/utils"
)

// Version is the release version, overridden at build time with -ldflags.
var Version = "1.0.0"

// App holds the wired components.
type App struct {
	Config    *config.Config
	Store     vector.Store
	Embedder  *embedding.Provider
	Limits    *ratelimit.Set
	Repo      *content.Repository
	Engine    *search.Engine
	Tracker   *stats.Tracker
	Suggester *intent.Suggester
	Importer  *importer.Importer

	llmEnabled bool
	tracing    *observability.TracerProvider
	logger     *zap.Logger
}

// New opens the configured store and builds every component. Missing
// credentials are not an error: embeddings fall back to placeholders and
// generation is disabled.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	logger = utils.OrNop(logger)
	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Tracing.Endpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(&cfg.Store, cfg.Embedding.Dimensions, logger)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	a, err := NewWithStore(cfg, store, logger)
	if err != nil {
		_ = store.Close()
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	a.tracing = tp
	return a, nil
}

// NewWithStore builds the components around an already open store.
func NewWithStore(cfg *config.Config, store vector.Store, logger *zap.Logger) (*App, error) {
	logger = utils.OrNop(logger)
	limits := ratelimit.NewSet(cfg.Embedding.RateLimit, cfg.LLM.RateLimit, ratelimit.WithLogger(logger))

	backend, err := embeddingBackend(cfg)
	if err != nil {
		return nil, err
	}
	provider, err := embedding.NewProvider(embedding.ProviderConfig{
		Backend:    backend,
		Limiter:    limits.For(ratelimit.ClassEmbedding),
		Dimensions: cfg.Embedding.Dimensions,
		CacheSize:  cfg.Embedding.CacheSize,
		Timeout:    cfg.Embedding.Timeout,
		Logger:     logger.Named("embedding"),
	})
	if err != nil {
		return nil, err
	}

	var gen expand.Generator
	if cfg.LLMEnabled() {
		g, err := llm.New(llm.Config{
			BaseURL:     cfg.Provider.BaseURL,
			APIKey:      cfg.Provider.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
		}, limits.For(ratelimit.ClassGenerative), logger.Named("llm"))
		if err != nil {
			return nil, err
		}
		gen = g
	}

	tracker := stats.NewTracker(store, logger.Named("stats"))
	engine := search.NewEngine(
		store,
		provider,
		expand.New(gen, logger.Named("expand")),
		gen,
		tracker,
		&cfg.Search,
		logger.Named("search"),
	)
	repo := content.NewRepository(store, provider, cfg.Content.MaxLength, logger.Named("content"),
		content.WithSearchLimit(cfg.Search.MaxLimit))

	return &App{
		Config:     cfg,
		Store:      store,
		Embedder:   provider,
		Limits:     limits,
		Repo:       repo,
		Engine:     engine,
		Tracker:    tracker,
		Suggester:  intent.NewSuggester(engine, logger.Named("intent")),
		Importer:   importer.New(repo, cfg.Import.Workers, cfg.Content.MaxLength, logger.Named("import")),
		llmEnabled: gen != nil,
		logger:     logger,
	}, nil
}

func embeddingBackend(cfg *config.Config) (embedding.Embedder, error) {
	switch {
	case cfg.Embedding.Provider == config.EmbeddingProviderMock:
		return embedding.NewMockEmbedder(cfg.Embedding.Dimensions), nil
	case cfg.Provider.APIKey == "":
		return nil, nil
	}
	remote, err := embedding.NewRemoteEmbedder(embedding.RemoteConfig{
		BaseURL:    cfg.Provider.BaseURL,
		APIKey:     cfg.Provider.APIKey,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		return nil, err
	}
	return remote, nil
}

// LLMEnabled reports whether a generative model is wired.
func (a *App) LLMEnabled() bool {
	return a.llmEnabled
}

// Similar returns up to maxResults items closest to the item with id.
func (a *App) Similar(ctx context.Context, id string, maxResults int) ([]*models.SearchResult, error) {
	return a.Repo.FindSimilar(ctx, a.Engine, id, maxResults)
}

// Stats summarizes stored content and search traffic.
func (a *App) Stats(ctx context.Context) *models.Stats {
	return a.Tracker.Stats(ctx)
}

// Close releases the store, the embedding backend and the tracer.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Embedder.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.tracing != nil {
		if err := a.tracing.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
