package search

import (
	"github.com/hyperjump/tansaku/internal/config"
	"github.com/hyperjump/tansaku/internal/models"
)

// ProcessQuery validates the query and applies the configured result limits.
func ProcessQuery(query *models.SearchQuery, cfg *config.SearchConfig) error {
	return query.Validate(cfg.DefaultMaxResults, cfg.MaxLimit)
}
