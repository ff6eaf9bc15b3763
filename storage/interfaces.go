package storage

import (
	"context"

	"github.com/poiesic/hybridrag/core"
)

// IndexStore persists embedded passages and answers nearest-neighbor queries.
// Implementations must be safe for concurrent readers.
type IndexStore interface {
	// Exists reports whether persisted storage was present at the configured
	// location before this store was opened.
	Exists() bool

	// IsEmpty reports whether the store holds no entries.
	IsEmpty(ctx context.Context) (bool, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Create persists entries and records metric alongside them.
	// Returns ErrNotEmpty if the store already holds entries.
	Create(ctx context.Context, entries []*core.IndexEntry, metric core.Metric) error

	// Load verifies that the store was built with metric and prepares it for queries.
	// Returns ErrMetricMismatch if a different metric was recorded.
	Load(ctx context.Context, metric core.Metric) error

	// Clear irreversibly discards all entries and the recorded metric.
	Clear(ctx context.Context) error

	// FindNearest returns up to k entries closest to vector under the recorded
	// metric, ordered by score descending (higher is closer).
	// Returns an empty slice when the store is empty.
	FindNearest(ctx context.Context, vector []float32, k int) ([]*core.ScoredEntry, error)

	// Close releases resources held by the store.
	Close() error
}
