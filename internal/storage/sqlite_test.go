package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStore_contract(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	testStoreContract(t, store)
}

func TestSQLiteStore_persistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Upsert(ctx, "x", []float32{0.25, 0.5}, "persisted", map[string]string{"title": "T"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	store, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	rec, err := store.GetByID(ctx, "x")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Document != "persisted" || rec.Metadata["title"] != "T" || rec.Vector[1] != 0.5 {
		t.Errorf("unexpected record after reopen: %+v", rec)
	}
}

func TestSQLiteStore_rejectsBadFilterKey(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if _, err := store.Query(context.Background(), []float32{1}, 5, map[string]string{"a') OR 1=1 --": "x"}); err == nil {
		t.Error("expected error for invalid filter key")
	}
}

func TestNewSQLiteStore_requiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(""); err == nil {
		t.Error("expected error for empty path")
	}
}
