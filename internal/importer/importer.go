// Package importer loads content items from JSON files into the repository
// using a bounded worker pool.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/hyperjump/tansaku/internal/fileid"
	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/watcher"
	"github.com/hyperjump/tansaku/pkg/utils"
)

// DefaultWorkers is the pool size when none is configured.
const DefaultWorkers = 4

// Repository stores items under their own ids.
type Repository interface {
	Put(ctx context.Context, item *models.ContentItem) error
	Count(ctx context.Context) (int, error)
}

// ItemError describes one item that could not be imported.
type ItemError struct {
	Index int    `json:"index"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error"`
}

// Result summarizes an import.
type Result struct {
	Source   string      `json:"source"`
	Imported int         `json:"imported"`
	Failed   int         `json:"failed"`
	Errors   []ItemError `json:"errors,omitempty"`
}

// Importer embeds and stores batches of items.
type Importer struct {
	repo      Repository
	workers   int
	maxLength int
	now       func() time.Time
	logger    *zap.Logger
}

// New creates an importer. workers <= 0 uses DefaultWorkers; maxLength bounds
// item bodies as for single adds.
func New(repo Repository, workers, maxLength int, logger *zap.Logger) *Importer {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Importer{
		repo:      repo,
		workers:   workers,
		maxLength: maxLength,
		now:       time.Now,
		logger:    utils.OrNop(logger),
	}
}

// Decode reads a JSON array of content items.
func Decode(r io.Reader) ([]models.ContentItem, error) {
	var items []models.ContentItem
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode content items: %w", err)
	}
	return items, nil
}

// ImportFile imports every item in the JSON file at path.
func (im *Importer) ImportFile(ctx context.Context, path string) (*Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()
	items, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}
	return im.Import(ctx, abs, items)
}

// Import stores items. Items without an id get a deterministic id derived
// from source, their position and title. Per-item failures are reported in
// the result; the returned error is non-nil only if ctx ends or the pool
// cannot be created.
func (im *Importer) Import(ctx context.Context, source string, items []models.ContentItem) (*Result, error) {
	res := &Result{Source: source}
	if len(items) == 0 {
		return res, nil
	}
	pool, err := ants.NewPool(im.workers)
	if err != nil {
		return nil, fmt.Errorf("create import pool: %w", err)
	}
	defer pool.Release()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	record := func(index int, id string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, ItemError{Index: index, ID: id, Error: err.Error()})
			return
		}
		res.Imported++
	}

	for i := range items {
		item := im.prepare(source, i, items[i])
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				record(i, item.ID, err)
				return
			}
			if err := item.Input().Validate(im.maxLength); err != nil {
				record(i, item.ID, err)
				return
			}
			record(i, item.ID, im.repo.Put(ctx, item))
		})
		if submitErr != nil {
			wg.Done()
			record(i, item.ID, submitErr)
		}
	}
	wg.Wait()

	sort.Slice(res.Errors, func(i, j int) bool { return res.Errors[i].Index < res.Errors[j].Index })
	im.logger.Info("import finished",
		zap.String("source", source),
		zap.Int("imported", res.Imported),
		zap.Int("failed", res.Failed),
	)
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

func (im *Importer) prepare(source string, index int, in models.ContentItem) *models.ContentItem {
	item := in
	item.Tags = append([]string(nil), in.Tags...)
	if item.ID == "" {
		item.ID = fileid.ItemID(source, index, item.Title)
	}
	if item.CreatedAt == "" {
		item.CreatedAt = im.now().Format(models.DateLayout)
	}
	return &item
}

// LoadIfEmpty imports path only when the repository holds no items. An empty
// path or a non-empty repository returns a nil result.
func (im *Importer) LoadIfEmpty(ctx context.Context, path string) (*Result, error) {
	if path == "" {
		return nil, nil
	}
	n, err := im.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count content: %w", err)
	}
	if n > 0 {
		im.logger.Debug("store not empty, skipping sample data", zap.Int("items", n))
		return nil, nil
	}
	return im.ImportFile(ctx, path)
}

// Watch imports .json files dropped into dir, including files already there.
// The returned watcher stops when ctx ends.
func (im *Importer) Watch(ctx context.Context, dir string) (*watcher.Watcher, error) {
	w := watcher.New(dir, func(path string) {
		res, err := im.ImportFile(ctx, path)
		if err != nil {
			im.logger.Warn("drop import failed", zap.String("path", path), zap.Error(err))
			return
		}
		for _, e := range res.Errors {
			im.logger.Warn("drop import item failed",
				zap.String("path", path),
				zap.Int("index", e.Index),
				zap.String("error", e.Error),
			)
		}
	}, watcher.WithExtensions(".json"), watcher.WithLogger(im.logger))
	if err := w.Start(ctx); err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	go func() {
		if err := w.SyncExisting(); err != nil {
			im.logger.Warn("drop directory sync failed", zap.String("dir", dir), zap.Error(err))
		}
	}()
	return w, nil
}

