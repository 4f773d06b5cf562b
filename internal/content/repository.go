// Package content stores and retrieves content items in the vector store.
package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/tansaku/internal/embedding"
	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/vector"
	"github.com/hyperjump/tansaku/pkg/utils"
)

// ErrNotFound is returned when no content item has the requested id.
var ErrNotFound = fmt.Errorf("content not found: %w", vector.ErrNotFound)

// DefaultSimilarResults is the number of neighbours FindSimilar returns by default.
const DefaultSimilarResults = 5

// Embedder embeds text.
type Embedder interface {
	Embed(ctx context.Context, text string) embedding.Result
}

// Searcher runs a semantic search.
type Searcher interface {
	Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error)
}

// Repository adds and fetches content items.
type Repository struct {
	store     vector.Store
	embedder  Embedder
	maxLength int
	// searchLimit is the searcher's result cap; 0 means uncapped.
	searchLimit int
	now         func() time.Time
	logger      *zap.Logger
}

// Option configures a Repository.
type Option func(*Repository)

// WithSearchLimit tells FindSimilar the searcher caps results at n, so at
// most n-1 neighbours can be returned once the item itself is dropped.
func WithSearchLimit(n int) Option {
	return func(r *Repository) { r.searchLimit = n }
}

// NewRepository creates a repository. maxLength bounds the content body; 0 disables the check.
func NewRepository(store vector.Store, embedder Embedder, maxLength int, logger *zap.Logger, opts ...Option) *Repository {
	r := &Repository{
		store:     store,
		embedder:  embedder,
		maxLength: maxLength,
		now:       time.Now,
		logger:    utils.OrNop(logger),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add validates input, assigns a new id and stores the item.
func (r *Repository) Add(ctx context.Context, input *models.ContentInput) (string, error) {
	if err := input.Validate(r.maxLength); err != nil {
		return "", err
	}
	item := input.Item(uuid.New().String())
	if item.CreatedAt == "" {
		item.CreatedAt = r.now().Format(models.DateLayout)
	}
	if err := r.Put(ctx, item); err != nil {
		return "", err
	}
	r.logger.Info("added content", zap.String("id", item.ID), zap.String("title", item.Title))
	return item.ID, nil
}

// Put embeds and upserts item under its own id. Bulk loaders use it with
// caller-supplied ids.
func (r *Repository) Put(ctx context.Context, item *models.ContentItem) error {
	res := r.embedder.Embed(ctx, item.EmbeddingText())
	if err := res.Err(); err != nil {
		return err
	}
	if res.Status == models.StatusDegraded {
		r.logger.Debug("storing content with placeholder embedding",
			zap.String("id", item.ID),
			zap.String("reason", res.Reason),
		)
	}
	if err := r.store.Upsert(ctx, item.ID, res.Vector, item.Content, Metadata(item)); err != nil {
		return fmt.Errorf("store content %s: %w", item.ID, err)
	}
	return nil
}

// GetByID returns the item with id or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.ContentItem, error) {
	rec, err := r.store.GetByID(ctx, id)
	if errors.Is(err, vector.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ItemFromRecord(rec.ID, rec.Document, rec.Metadata), nil
}

// Count returns the number of stored items.
func (r *Repository) Count(ctx context.Context) (int, error) {
	return r.store.Count(ctx)
}

// FindSimilar returns up to maxResults items closest to the item with id,
// excluding the item itself. maxResults <= 0 uses DefaultSimilarResults.
// With a search limit set, maxResults is clamped to limit-1 so the extra
// slot for the item itself always fits.
func (r *Repository) FindSimilar(ctx context.Context, searcher Searcher, id string, maxResults int) ([]*models.SearchResult, error) {
	if maxResults <= 0 {
		maxResults = DefaultSimilarResults
	}
	if r.searchLimit > 1 && maxResults > r.searchLimit-1 {
		maxResults = r.searchLimit - 1
	}
	item, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp, err := searcher.Search(ctx, &models.SearchQuery{
		Query:            item.EmbeddingText(),
		MaxResults:       models.IntPtr(maxResults + 1),
		DisableExpansion: true,
	})
	if err != nil {
		return nil, err
	}
	similar := make([]*models.SearchResult, 0, maxResults)
	for _, res := range resp.Results {
		if res.ID == id {
			continue
		}
		similar = append(similar, res)
		if len(similar) == maxResults {
			break
		}
	}
	return similar, nil
}
