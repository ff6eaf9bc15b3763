package badger

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/hybridrag/core"
	"github.com/poiesic/hybridrag/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntry(content string, vector ...float32) *core.IndexEntry {
	return core.NewIndexEntry(core.Passage{
		Content:  content,
		Metadata: map[string]string{"Header2": content},
	}, vector)
}

func TestIndexStore_EmptyLifecycle(t *testing.T) {
	store, err := NewMemoryIndexStore()
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	assert.False(t, store.Exists())

	empty, err := store.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)

	results, err := store.FindNearest(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestIndexStore_CreateAndFindNearest(t *testing.T) {
	store, err := NewMemoryIndexStore()
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	entries := []*core.IndexEntry{
		newEntry("east", 1, 0),
		newEntry("north", 0, 1),
		newEntry("northeast", 1, 1),
		newEntry("west", -1, 0),
	}
	require.NoError(t, store.Create(ctx, entries, core.MetricCosine))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	results, err := store.FindNearest(ctx, []float32{1, 0.1}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "east", results[0].Entry.Content)
	assert.Equal(t, "northeast", results[1].Entry.Content)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
	assert.Equal(t, "east", results[0].Entry.Metadata["Header2"])
}

func TestIndexStore_FindNearestReturnsAllWhenKExceedsCount(t *testing.T) {
	store, err := NewMemoryIndexStore()
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, []*core.IndexEntry{newEntry("only", 1, 0)}, core.MetricCosine))

	results, err := store.FindNearest(ctx, []float32{0, 1}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 0, results[0].Score, 1e-6)
}

func TestIndexStore_FindNearestInvalidQuery(t *testing.T) {
	store, err := NewMemoryIndexStore()
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	_, err = store.FindNearest(ctx, []float32{1}, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)

	_, err = store.FindNearest(ctx, nil, 3)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestIndexStore_DimensionMismatch(t *testing.T) {
	store, err := NewMemoryIndexStore()
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, []*core.IndexEntry{newEntry("a", 1, 0, 0)}, core.MetricCosine))
	_, err = store.FindNearest(ctx, []float32{1, 0}, 1)
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
}

func TestIndexStore_CreateRejectsPopulatedStore(t *testing.T) {
	store, err := NewMemoryIndexStore()
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, []*core.IndexEntry{newEntry("a", 1)}, core.MetricCosine))
	err = store.Create(ctx, []*core.IndexEntry{newEntry("b", 1)}, core.MetricCosine)
	assert.ErrorIs(t, err, storage.ErrNotEmpty)
}

func TestIndexStore_CreateRejectsUnknownMetric(t *testing.T) {
	store, err := NewMemoryIndexStore()
	require.NoError(t, err)
	defer store.Close()

	err = store.Create(context.Background(), nil, core.Metric("euclidean"))
	assert.ErrorIs(t, err, core.ErrUnsupportedMetric)
}

func TestIndexStore_DuplicateContentKeepsBothEntries(t *testing.T) {
	store, err := NewMemoryIndexStore()
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, []*core.IndexEntry{
		newEntry("same", 1, 0),
		newEntry("same", 1, 0),
	}, core.MetricCosine))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

// cancelAfter is a context whose Err starts reporting cancellation after n calls.
type cancelAfter struct {
	context.Context
	calls atomic.Int32
	n     int32
}

func (c *cancelAfter) Err() error {
	if c.calls.Add(1) > c.n {
		return context.Canceled
	}
	return nil
}

func TestIndexStore_FailedCreateLeavesStoreEmpty(t *testing.T) {
	store, err := NewMemoryIndexStore()
	require.NoError(t, err)
	defer store.Close()

	// Large enough that the write batch commits several times before failing
	const total, dims = 3000, 1024
	entries := make([]*core.IndexEntry, total)
	for i := range entries {
		vec := make([]float32, dims)
		vec[i%dims] = 1
		entries[i] = newEntry(fmt.Sprintf("passage %d", i), vec...)
	}

	ctx := &cancelAfter{Context: context.Background(), n: total - 100}
	err = store.Create(ctx, entries, core.MetricCosine)
	require.ErrorIs(t, err, context.Canceled)

	bg := context.Background()
	empty, err := store.IsEmpty(bg)
	require.NoError(t, err)
	assert.True(t, empty, "partial entries must not survive a failed create")

	require.NoError(t, store.Create(bg, entries[:3], core.MetricCosine))
	require.NoError(t, store.Load(bg, core.MetricCosine))
	count, err := store.Count(bg)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestIndexStore_Clear(t *testing.T) {
	store, err := NewMemoryIndexStore()
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, []*core.IndexEntry{newEntry("a", 1)}, core.MetricCosine))
	require.NoError(t, store.Clear(ctx))

	empty, err := store.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)

	err = store.Load(ctx, core.MetricCosine)
	assert.ErrorIs(t, err, storage.ErrMetricMissing)
}

func TestIndexStore_PersistAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vector_db")
	ctx := context.Background()

	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	store, err := NewIndexStore(backend)
	require.NoError(t, err)
	assert.False(t, store.Exists())
	require.NoError(t, store.Create(ctx, []*core.IndexEntry{
		newEntry("藜麦", 1, 0),
		newEntry("燕麦", 0, 1),
	}, core.MetricCosine))
	require.NoError(t, store.Close())

	backend, err = OpenBackend(dir, false)
	require.NoError(t, err)
	reopened, err := NewIndexStore(backend)
	require.NoError(t, err)
	defer reopened.Close()

	assert.True(t, reopened.Exists())
	require.NoError(t, reopened.Load(ctx, core.MetricCosine))

	results, err := reopened.FindNearest(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "藜麦", results[0].Entry.Content)
}

func TestIndexStore_LoadMetricMismatch(t *testing.T) {
	store, err := NewMemoryIndexStore()
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, []*core.IndexEntry{newEntry("a", 1)}, core.MetricCosine))

	// Only cosine is a valid metric, so simulate a foreign record directly
	s := store.(*IndexStore)
	require.NoError(t, s.backend.WithTx(func(tx *badger.Txn) error {
		return tx.Set([]byte(indexMetricKey), storage.MarshalMetric(core.Metric("dot")))
	}, true))

	err = store.Load(ctx, core.MetricCosine)
	assert.ErrorIs(t, err, storage.ErrMetricMismatch)
}

func TestIndexStore_ClosedStore(t *testing.T) {
	store, err := NewMemoryIndexStore()
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.IsEmpty(context.Background())
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.NoError(t, store.Close())
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{2, 0}, []float32{5, 0}), 1e-6)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 1}, []float32{-1, -1}), 1e-6)
	assert.Equal(t, float32(0), cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}
