package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/hyperjump/tansaku/internal/app"
	"github.com/hyperjump/tansaku/internal/cli"
	"github.com/hyperjump/tansaku/internal/models"
)

// backend is what the query commands need, served either over HTTP or by
// components opened in-process.
type backend interface {
	Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error)
	AddContent(ctx context.Context, input *models.ContentInput) (string, error)
	GetContent(ctx context.Context, id string) (*models.ContentItem, error)
	Similar(ctx context.Context, id string, maxResults int) ([]*models.SearchResult, error)
	Stats(ctx context.Context) (*models.Stats, error)
	Suggest(ctx context.Context, query string) (*models.Suggestions, error)
}

// directBackend serves commands from an in-process App.
type directBackend struct {
	app *app.App
}

func (d directBackend) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	return d.app.Engine.Search(ctx, query)
}

func (d directBackend) AddContent(ctx context.Context, input *models.ContentInput) (string, error) {
	return d.app.Repo.Add(ctx, input)
}

func (d directBackend) GetContent(ctx context.Context, id string) (*models.ContentItem, error) {
	return d.app.Repo.GetByID(ctx, id)
}

func (d directBackend) Similar(ctx context.Context, id string, maxResults int) ([]*models.SearchResult, error) {
	return d.app.Similar(ctx, id, maxResults)
}

func (d directBackend) Stats(ctx context.Context) (*models.Stats, error) {
	return d.app.Stats(ctx), nil
}

func (d directBackend) Suggest(ctx context.Context, query string) (*models.Suggestions, error) {
	return d.app.Suggester.Suggest(ctx, query), nil
}

// withBackend runs fn against the server when --server is set, otherwise
// against components opened from the config.
func (g *globals) withBackend(ctx context.Context, fn func(backend) error) error {
	if g.serverURL != "" {
		return fn(cli.NewClient(g.serverURL))
	}
	a, logger, err := g.openApp(ctx)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer func() {
		if err := a.Close(ctx); err != nil {
			logger.Warn("close failed", zap.Error(err))
		}
	}()
	return fn(directBackend{app: a})
}
