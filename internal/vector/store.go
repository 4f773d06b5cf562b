// Package vector defines the vector store contract used for semantic
// search and provides an in-memory implementation.
package vector

import (
	"context"
	"errors"
	"sort"
)

// ErrNotFound is returned by GetByID when no record has the given id.
var ErrNotFound = errors.New("vector: record not found")

// Record is one stored item: its embedding, the document text and flat string metadata.
type Record struct {
	ID       string
	Vector   []float32
	Document string
	Metadata map[string]string
}

// Hit is a query match. Distance is cosine distance (1 - cosine similarity);
// lower is closer.
type Hit struct {
	ID       string
	Document string
	Metadata map[string]string
	Distance float64
}

// Filters constrains a query to records whose metadata equals every
// non-empty value. An empty value imposes no constraint.
type Filters map[string]string

// Match reports whether metadata satisfies f.
func (f Filters) Match(metadata map[string]string) bool {
	for k, v := range f {
		if v == "" {
			continue
		}
		if metadata[k] != v {
			return false
		}
	}
	return true
}

// Active returns the filters with empty values removed.
func (f Filters) Active() Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Store persists records and answers nearest-neighbour queries.
// Implementations must be safe for concurrent use.
type Store interface {
	// Upsert inserts or replaces the record with the given id.
	Upsert(ctx context.Context, id string, vec []float32, document string, metadata map[string]string) error
	// GetByID returns the record or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Record, error)
	// Query returns at most k hits passing filters, ordered by ascending distance.
	Query(ctx context.Context, vec []float32, k int, filters Filters) ([]Hit, error)
	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
	// GetAll returns every stored record.
	GetAll(ctx context.Context) ([]*Record, error)
	Close() error
}

// SortHits orders hits by ascending distance, keeping input order for ties,
// and truncates to k.
func SortHits(hits []Hit, k int) []Hit {
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits
}

// CloneMetadata returns a shallow copy of m that never aliases the caller's map.
func CloneMetadata(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
