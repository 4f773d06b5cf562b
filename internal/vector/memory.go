package vector

import (
	"context"
	"sync"
)

// MemoryStore is a non-persistent Store using brute-force cosine search.
// Suitable for tests and small datasets.
type MemoryStore struct {
	mu      sync.RWMutex
	order   []string
	records map[string]*Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Upsert stores copies of vec and metadata under id.
func (m *MemoryStore) Upsert(ctx context.Context, id string, vec []float32, document string, metadata map[string]string) error {
	rec := &Record{
		ID:       id,
		Vector:   append([]float32(nil), vec...),
		Document: document,
		Metadata: CloneMetadata(metadata),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		m.order = append(m.order, id)
	}
	m.records[id] = rec
	return nil
}

// GetByID returns a copy of the record with id.
func (m *MemoryStore) GetByID(ctx context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(rec), nil
}

// Query returns the k nearest records passing filters.
func (m *MemoryStore) Query(ctx context.Context, vec []float32, k int, filters Filters) ([]Hit, error) {
	if k <= 0 {
		return []Hit{}, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	hits := make([]Hit, 0, len(m.order))
	for _, id := range m.order {
		rec := m.records[id]
		if !filters.Match(rec.Metadata) {
			continue
		}
		hits = append(hits, Hit{
			ID:       rec.ID,
			Document: rec.Document,
			Metadata: CloneMetadata(rec.Metadata),
			Distance: CosineDistance(vec, rec.Vector),
		})
	}
	return SortHits(hits, k), nil
}

// Count returns the number of records.
func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

// GetAll returns copies of all records in insertion order.
func (m *MemoryStore) GetAll(ctx context.Context) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Record, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, cloneRecord(m.records[id]))
	}
	return out, nil
}

// Close is a no-op for MemoryStore.
func (m *MemoryStore) Close() error {
	return nil
}

func cloneRecord(r *Record) *Record {
	return &Record{
		ID:       r.ID,
		Vector:   append([]float32(nil), r.Vector...),
		Document: r.Document,
		Metadata: CloneMetadata(r.Metadata),
	}
}
