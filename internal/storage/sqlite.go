package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/tansaku/internal/vector"
)

var metadataKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// SQLiteStore implements vector.Store on a single SQLite file. Queries are
// brute-force cosine over rows that pass the metadata filters.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite store path is required")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		document TEXT NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}',
		vector BLOB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_records_category ON records(json_extract(metadata, '$.category'));
	`
	_, err := db.Exec(schema)
	return err
}

// Upsert inserts or replaces a record. Replacing keeps the original insertion position.
func (s *SQLiteStore) Upsert(ctx context.Context, id string, vec []float32, document string, metadata map[string]string) error {
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (id, document, metadata, vector) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			document = excluded.document,
			metadata = excluded.metadata,
			vector = excluded.vector,
			updated_at = CURRENT_TIMESTAMP`,
		id, document, string(metadataJSON), vector.EncodeVector(vec),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}
	return nil
}

// GetByID returns the record with id or vector.ErrNotFound.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*vector.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, document, metadata, vector FROM records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, vector.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Query returns the k nearest records passing filters.
func (s *SQLiteStore) Query(ctx context.Context, vec []float32, k int, filters vector.Filters) ([]vector.Hit, error) {
	if k <= 0 {
		return []vector.Hit{}, nil
	}
	where, args, err := filterClause(filters)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document, metadata, vector FROM records`+where+` ORDER BY rowid`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []vector.Hit
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		hits = append(hits, vector.Hit{
			ID:       rec.ID,
			Document: rec.Document,
			Metadata: rec.Metadata,
			Distance: vector.CosineDistance(vec, rec.Vector),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if hits == nil {
		return []vector.Hit{}, nil
	}
	return vector.SortHits(hits, k), nil
}

// Count returns the number of records.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n)
	return n, err
}

// GetAll returns every record in insertion order.
func (s *SQLiteStore) GetAll(ctx context.Context) ([]*vector.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document, metadata, vector FROM records ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*vector.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*vector.Record, error) {
	var rec vector.Record
	var metadataJSON string
	var blob []byte
	if err := row.Scan(&rec.ID, &rec.Document, &metadataJSON, &blob); err != nil {
		return nil, err
	}
	rec.Metadata = map[string]string{}
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	vec, err := vector.DecodeVector(blob)
	if err != nil {
		return nil, err
	}
	rec.Vector = vec
	return &rec, nil
}

// filterClause renders active filters as a WHERE clause over the JSON metadata column.
func filterClause(filters vector.Filters) (string, []any, error) {
	active := filters.Active()
	if len(active) == 0 {
		return "", nil, nil
	}
	keys := make([]string, 0, len(active))
	for k := range active {
		if !metadataKeyPattern.MatchString(k) {
			return "", nil, fmt.Errorf("invalid metadata filter key %q", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	conds := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		conds = append(conds, "json_extract(metadata, ?) = ?")
		args = append(args, "$."+k, active[k])
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}
