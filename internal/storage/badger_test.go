package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerStore_contract(t *testing.T) {
	store, err := NewBadgerStore("")
	require.NoError(t, err)
	defer store.Close()
	testStoreContract(t, store)
}

func TestBadgerStore_persistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "badger")
	ctx := context.Background()

	store, err := NewBadgerStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Upsert(ctx, "first", []float32{1, 0}, "one", nil))
	require.NoError(t, store.Upsert(ctx, "second", []float32{0, 1}, "two", map[string]string{"category": "AI"}))
	require.NoError(t, store.Close())

	store, err = NewBadgerStore(dir)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Upsert(ctx, "third", []float32{1, 1}, "three", nil))
	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, "AI", all[1].Metadata["category"])
	assert.NotNil(t, all[0].Metadata)
}

func TestRetryOnConflict(t *testing.T) {
	ctx := context.Background()
	calls := 0
	err := retryOnConflict(ctx, func() error {
		calls++
		if calls < 3 {
			return badger.ErrConflict
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = retryOnConflict(ctx, func() error {
		calls++
		return badger.ErrConflict
	})
	assert.ErrorIs(t, err, badger.ErrConflict)
	assert.Equal(t, maxConflictRetries+1, calls)

	other := errors.New("disk full")
	calls = 0
	err = retryOnConflict(ctx, func() error {
		calls++
		return other
	})
	assert.ErrorIs(t, err, other)
	assert.Equal(t, 1, calls, "only conflicts are retried")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = retryOnConflict(cancelled, func() error { return badger.ErrConflict })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBadgerStore_concurrentUpsertSameID(t *testing.T) {
	store, err := NewBadgerStore("")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = store.Upsert(ctx, "same", []float32{1, float32(i)}, "doc", map[string]string{"category": "AI"})
		}()
	}
	wg.Wait()
	for i, err := range errs {
		assert.NoError(t, err, "upsert %d", i)
	}
	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
