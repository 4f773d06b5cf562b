package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/hyperjump/tansaku/internal/vector"
)

// maxConflictRetries bounds how often a write transaction is retried after
// badger.ErrConflict.
const maxConflictRetries = 10

var (
	recordPrefix = []byte("rec:")
	sequenceKey  = []byte("meta:seq")
)

// badgerRecord is the msgpack value stored per record key.
type badgerRecord struct {
	ID       string            `msgpack:"id"`
	Seq      uint64            `msgpack:"seq"`
	Document string            `msgpack:"doc"`
	Metadata map[string]string `msgpack:"meta"`
	Vector   []float32         `msgpack:"vec"`
}

// BadgerStore implements vector.Store on an embedded BadgerDB key-value store.
type BadgerStore struct {
	db  *badger.DB
	seq *badger.Sequence
}

// NewBadgerStore opens a store in dir. An empty dir opens an in-memory database.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create badger directory: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	db, err := badger.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	seq, err := db.GetSequence(sequenceKey, 100)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open sequence: %w", err)
	}
	return &BadgerStore{db: db, seq: seq}, nil
}

func recordKey(id string) []byte {
	return append(append([]byte{}, recordPrefix...), id...)
}

// Upsert inserts or replaces a record. Replacing keeps the original insertion position.
func (s *BadgerStore) Upsert(ctx context.Context, id string, vec []float32, document string, metadata map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next, err := s.seq.Next()
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	return retryOnConflict(ctx, func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			return upsertRecord(txn, id, next, document, metadata, vec)
		})
	})
}

// retryOnConflict runs update again while it fails with badger.ErrConflict,
// up to maxConflictRetries extra attempts or until ctx is done.
func retryOnConflict(ctx context.Context, update func() error) error {
	var err error
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		if err = update(); !errors.Is(err, badger.ErrConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return fmt.Errorf("upsert kept conflicting: %w", err)
}

func upsertRecord(txn *badger.Txn, id string, next uint64, document string, metadata map[string]string, vec []float32) error {
	key := recordKey(id)
	rec := badgerRecord{
		ID:       id,
		Seq:      next,
		Document: document,
		Metadata: vector.CloneMetadata(metadata),
		Vector:   vec,
	}
	existing, err := getRecord(txn, key)
	switch {
	case err == nil:
		rec.Seq = existing.Seq
	case !errors.Is(err, badger.ErrKeyNotFound):
		return err
	}
	data, err := msgpack.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	return txn.Set(key, data)
}

// GetByID returns the record with id or vector.ErrNotFound.
func (s *BadgerStore) GetByID(ctx context.Context, id string) (*vector.Record, error) {
	var out *vector.Record
	err := s.db.View(func(txn *badger.Txn) error {
		rec, err := getRecord(txn, recordKey(id))
		if err != nil {
			return err
		}
		out = rec.toVector()
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, vector.ErrNotFound
	}
	return out, err
}

// Query returns the k nearest records passing filters.
func (s *BadgerStore) Query(ctx context.Context, vec []float32, k int, filters vector.Filters) ([]vector.Hit, error) {
	if k <= 0 {
		return []vector.Hit{}, nil
	}
	recs, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	hits := make([]vector.Hit, 0, len(recs))
	for _, rec := range recs {
		if !filters.Match(rec.Metadata) {
			continue
		}
		hits = append(hits, vector.Hit{
			ID:       rec.ID,
			Document: rec.Document,
			Metadata: rec.Metadata,
			Distance: vector.CosineDistance(vec, rec.Vector),
		})
	}
	return vector.SortHits(hits, k), nil
}

// Count returns the number of records.
func (s *BadgerStore) Count(ctx context.Context) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = recordPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// GetAll returns every record in insertion order.
func (s *BadgerStore) GetAll(ctx context.Context) ([]*vector.Record, error) {
	recs, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*vector.Record, len(recs))
	for i, rec := range recs {
		out[i] = rec.toVector()
	}
	return out, nil
}

// Close releases the sequence and closes the database.
func (s *BadgerStore) Close() error {
	if err := s.seq.Release(); err != nil {
		_ = s.db.Close()
		return err
	}
	return s.db.Close()
}

// scan decodes all records ordered by insertion sequence.
func (s *BadgerStore) scan(ctx context.Context) ([]*badgerRecord, error) {
	var recs []*badgerRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = recordPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec badgerRecord
			if err := it.Item().Value(func(val []byte) error {
				return msgpack.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("failed to decode record %q: %w", it.Item().Key(), err)
			}
			recs = append(recs, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Seq < recs[j].Seq })
	return recs, nil
}

func getRecord(txn *badger.Txn, key []byte) (*badgerRecord, error) {
	item, err := txn.Get(key)
	if err != nil {
		return nil, err
	}
	var rec badgerRecord
	if err := item.Value(func(val []byte) error {
		return msgpack.Unmarshal(val, &rec)
	}); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return &rec, nil
}

func (r *badgerRecord) toVector() *vector.Record {
	meta := r.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	return &vector.Record{
		ID:       r.ID,
		Vector:   r.Vector,
		Document: r.Document,
		Metadata: meta,
	}
}
