package badger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/hybridrag/core"
	"github.com/poiesic/hybridrag/storage"
)

// IndexStore implements storage.IndexStore for BadgerDB.
type IndexStore struct {
	backend *Backend
	metric  core.Metric
}

var _ storage.IndexStore = (*IndexStore)(nil)

// NewIndexStore creates a new IndexStore on top of an open backend.
// The store takes ownership of the backend and closes it on Close.
func NewIndexStore(backend *Backend) (storage.IndexStore, error) {
	if backend == nil || backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	return &IndexStore{backend: backend}, nil
}

// Exists reports whether the backing directory held data before it was opened.
func (s *IndexStore) Exists() bool {
	return s.backend.Existed()
}

// IsEmpty reports whether the store holds no entries.
func (s *IndexStore) IsEmpty(ctx context.Context) (bool, error) {
	empty := true
	err := s.view(ctx, func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(indexEntryPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		iter.Rewind()
		empty = !iter.Valid()
		return nil
	})
	return empty, err
}

// Count returns the number of stored entries.
func (s *IndexStore) Count(ctx context.Context) (int, error) {
	count := 0
	err := s.view(ctx, func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(indexEntryPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Create persists entries in build order and records the metric.
func (s *IndexStore) Create(ctx context.Context, entries []*core.IndexEntry, metric core.Metric) error {
	if err := core.ValidateMetric(metric); err != nil {
		return err
	}
	empty, err := s.IsEmpty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		return storage.ErrNotEmpty
	}

	err = s.backend.WriteBatch(func(wb *badger.WriteBatch) error {
		for i, entry := range entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := wb.Set(makeIndexEntryKey(uint64(i)), storage.MarshalIndexEntry(entry)); err != nil {
				return err
			}
		}
		return wb.Set([]byte(indexMetricKey), storage.MarshalMetric(metric))
	})
	if err != nil {
		// The write batch commits as it fills; drop whatever already landed
		if dropErr := s.backend.DropAll(); dropErr != nil {
			s.backend.logger.Error("failed to discard partial index", "err", dropErr)
			return errors.Join(err, dropErr)
		}
		return err
	}

	s.metric = metric
	s.backend.logger.Debug("index entries written", "count", len(entries), "metric", metric)
	return nil
}

// Load verifies the recorded metric matches the requested one.
func (s *IndexStore) Load(ctx context.Context, metric core.Metric) error {
	if err := core.ValidateMetric(metric); err != nil {
		return err
	}
	var recorded core.Metric
	err := s.view(ctx, func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(indexMetricKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrMetricMissing
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			recorded, err = storage.UnmarshalMetric(val)
			return err
		})
	})
	if err != nil {
		return err
	}
	if recorded != metric {
		return fmt.Errorf("%w: stored %q, requested %q", storage.ErrMetricMismatch, recorded, metric)
	}
	s.metric = recorded
	return nil
}

// Clear drops all entries and the recorded metric.
func (s *IndexStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if err := s.backend.DropAll(); err != nil {
		return err
	}
	s.metric = ""
	return nil
}

// FindNearest scans all entries and returns the k with the highest cosine similarity.
func (s *IndexStore) FindNearest(ctx context.Context, vector []float32, k int) ([]*core.ScoredEntry, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", storage.ErrInvalidQuery, k)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", storage.ErrInvalidQuery)
	}

	results := make([]*core.ScoredEntry, 0, k)
	err := s.view(ctx, func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(indexEntryPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var entry *core.IndexEntry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalIndexEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			if len(entry.Vector) != len(vector) {
				return fmt.Errorf("%w: entry has %d dimensions, query has %d",
					storage.ErrDimensionMismatch, len(entry.Vector), len(vector))
			}
			results = append(results, &core.ScoredEntry{
				Entry: entry,
				Score: cosineSimilarity(vector, entry.Vector),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Stable so equal scores keep build order
	slices.SortStableFunc(results, func(a, b *core.ScoredEntry) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Close closes the underlying backend.
func (s *IndexStore) Close() error {
	if s.backend.IsClosed() {
		return nil
	}
	return s.backend.Close()
}

func (s *IndexStore) view(ctx context.Context, fn func(tx *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return s.backend.WithTx(fn, false)
}

// cosineSimilarity returns the cosine of the angle between a and b.
// Zero-magnitude vectors score 0.
func cosineSimilarity(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
