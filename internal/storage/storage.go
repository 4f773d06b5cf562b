// Package storage provides persistent vector store backends and
// disk usage helpers for their paths.
package storage

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/tansaku/internal/config"
	"github.com/hyperjump/tansaku/internal/vector"
)

// Open creates the vector store selected by cfg.Backend.
func Open(cfg *config.StoreConfig, dimensions int, logger *zap.Logger) (vector.Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite, "":
		return NewSQLiteStore(cfg.Path)
	case config.BackendBadger:
		return NewBadgerStore(cfg.Path)
	case config.BackendQdrant:
		return NewQdrantStore(QdrantConfig{
			Host:       cfg.Qdrant.Host,
			Port:       cfg.Qdrant.Port,
			Collection: cfg.Collection,
			Dimensions: dimensions,
		}, logger)
	case config.BackendMemory:
		return vector.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
