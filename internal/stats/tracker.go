// Package stats records search activity and summarizes it together with
// the content held in the vector store.
package stats

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/tansaku/internal/content"
	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/vector"
	"github.com/hyperjump/tansaku/pkg/utils"
)

const (
	recentWindow   = 100
	popularQueries = 10
)

// Entry is one recorded search.
type Entry struct {
	Query        string
	ResultsCount int
	SearchTime   float64
	Timestamp    time.Time
}

// Store is the read side of the vector store the tracker summarizes.
type Store interface {
	Count(ctx context.Context) (int, error)
	GetAll(ctx context.Context) ([]*vector.Record, error)
}

// Tracker keeps the in-memory search log. It is safe for concurrent use.
type Tracker struct {
	store  Store
	logger *zap.Logger

	mu      sync.Mutex
	entries []Entry
}

// NewTracker creates a tracker reading content figures from store.
func NewTracker(store Store, logger *zap.Logger) *Tracker {
	return &Tracker{store: store, logger: utils.OrNop(logger)}
}

// Record appends a search to the log.
func (t *Tracker) Record(query string, resultsCount int, elapsedSeconds float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, Entry{
		Query:        query,
		ResultsCount: resultsCount,
		SearchTime:   elapsedSeconds,
		Timestamp:    time.Now(),
	})
}

// Entries returns a copy of the log.
func (t *Tracker) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Entry(nil), t.entries...)
}

// Stats summarizes stored content and recorded searches. Store errors zero
// the content figures; search figures are still reported.
func (t *Tracker) Stats(ctx context.Context) *models.Stats {
	out := &models.Stats{Categories: map[string]int{}, PopularQueries: []models.QueryCount{}}

	if err := t.contentStats(ctx, out); err != nil {
		t.logger.Error("failed to read content stats", zap.Error(err))
		out.TotalContent = 0
		out.Categories = map[string]int{}
	}

	entries := t.Entries()
	out.TotalSearches = len(entries)
	var total float64
	for _, e := range entries {
		total += e.SearchTime
	}
	out.AverageSearchTime = utils.Round(total/float64(max(len(entries), 1)), 4)
	out.PopularQueries = popular(entries)
	return out
}

func (t *Tracker) contentStats(ctx context.Context, out *models.Stats) error {
	n, err := t.store.Count(ctx)
	if err != nil {
		return err
	}
	records, err := t.store.GetAll(ctx)
	if err != nil {
		return err
	}
	out.TotalContent = n
	for _, rec := range records {
		out.Categories[rec.Metadata[content.KeyCategory]]++
	}
	return nil
}

// popular counts queries over the most recent entries; ties keep the order
// in which each query was first seen.
func popular(entries []Entry) []models.QueryCount {
	if len(entries) > recentWindow {
		entries = entries[len(entries)-recentWindow:]
	}
	index := map[string]int{}
	counts := []models.QueryCount{}
	for _, e := range entries {
		if i, ok := index[e.Query]; ok {
			counts[i].Count++
			continue
		}
		index[e.Query] = len(counts)
		counts = append(counts, models.QueryCount{Query: e.Query, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	if len(counts) > popularQueries {
		counts = counts[:popularQueries]
	}
	return counts
}
