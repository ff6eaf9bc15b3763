package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/hybridrag/ai"
	"github.com/poiesic/hybridrag/core"
	"github.com/poiesic/hybridrag/storage"
)

// DefaultBatchSize is the number of passages sent per embedding call.
const DefaultBatchSize = 32

// State is the lifecycle state of an index.
type State int

const (
	// StateEmpty means no passages are indexed; queries return nothing.
	StateEmpty State = iota
	// StatePopulated means the index holds entries and answers queries.
	StatePopulated
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePopulated:
		return "populated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// PassageSource produces the passages an index is built from.
type PassageSource func(ctx context.Context) ([]core.Passage, error)

// Index is a persistent embedding index over passages.
type Index struct {
	mu        sync.RWMutex
	store     storage.IndexStore
	embedder  ai.Embedder
	source    PassageSource
	lock      *buildLock
	batchSize int
	poolSize  int
	progress  Progress
	logger    *slog.Logger
	state     State
}

// Option configures an Index.
type Option func(*Index) error

// WithBatchSize sets how many passages are embedded per call.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(idx *Index) error {
		if size < 1 {
			return ErrInvalidBatchSize
		}
		idx.batchSize = size
		return nil
	}
}

// WithPoolSize sets the number of batches embedded concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(idx *Index) error {
		idx.poolSize = max(size, 1)
		return nil
	}
}

// WithLockFile serializes builds across processes using a lock file at path.
func WithLockFile(path string) Option {
	return func(idx *Index) error {
		idx.lock = newBuildLock(path)
		return nil
	}
}

// WithProgress reports build progress.
func WithProgress(p Progress) Option {
	return func(idx *Index) error {
		if p == nil {
			p = noopProgress{}
		}
		idx.progress = p
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) error {
		if logger == nil {
			logger = slog.Default()
		}
		idx.logger = logger
		return nil
	}
}

// Open returns an index backed by store. When the store is absent or empty
// the index is built from source; otherwise the persisted entries are loaded
// and the embedder is not called.
func Open(ctx context.Context, store storage.IndexStore, embedder ai.Embedder, source PassageSource, opts ...Option) (*Index, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	idx := &Index{
		store:     store,
		embedder:  embedder,
		source:    source,
		lock:      newBuildLock(""),
		batchSize: DefaultBatchSize,
		poolSize:  max(runtime.NumCPU()/2, 1),
		progress:  noopProgress{},
		logger:    slog.Default().With("component", "index"),
	}
	for _, opt := range opts {
		if err := opt(idx); err != nil {
			return nil, err
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err := idx.lock.acquire(ctx); err != nil {
		return nil, err
	}
	defer idx.releaseLock()

	empty, err := store.IsEmpty(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrIndexBuild, err)
	}

	if !store.Exists() || empty {
		idx.logger.Info("index not found, building", "existed", store.Exists())
		if err := idx.build(ctx); err != nil {
			return nil, err
		}
		return idx, nil
	}

	err = store.Load(ctx, core.MetricCosine)
	if errors.Is(err, storage.ErrMetricMissing) {
		// Entries without a metric are the remains of an interrupted build
		idx.logger.Warn("discarding incomplete index, rebuilding")
		if err := store.Clear(ctx); err != nil {
			return nil, fmt.Errorf("%w: clearing incomplete index: %w", core.ErrIndexBuild, err)
		}
		if err := idx.build(ctx); err != nil {
			return nil, err
		}
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: loading persisted index: %w", core.ErrIndexBuild, err)
	}
	idx.state = StatePopulated
	idx.logger.Info("index loaded")
	return idx, nil
}

// State returns the current lifecycle state.
func (idx *Index) State() State {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.state
}

// Count returns the number of indexed passages.
func (idx *Index) Count(ctx context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.store.Count(ctx)
}

// Query returns up to k passages nearest to text whose similarity is at
// least threshold, ordered by similarity descending. An Empty index returns
// an empty slice without calling the embedder.
func (idx *Index) Query(ctx context.Context, text string, k int, threshold float32) ([]core.Passage, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrQuery, k)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.state == StateEmpty {
		return []core.Passage{}, nil
	}

	vector, err := idx.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %w", ErrQuery, err)
	}

	matches, err := idx.store.FindNearest(ctx, NormalizeVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}

	passages := make([]core.Passage, 0, len(matches))
	for _, m := range matches {
		if m.Score < threshold {
			continue
		}
		p := m.Entry.Passage()
		p.Score = m.Score
		passages = append(passages, p)
	}
	idx.logger.Debug("index queried", "candidates", len(matches), "kept", len(passages), "threshold", threshold)
	return passages, nil
}

// Rebuild re-embeds the passage source. With force the store is cleared
// first, which cannot be undone. Without force it only builds an Empty index
// and leaves a Populated one untouched.
func (idx *Index) Rebuild(ctx context.Context, force bool) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if !force && idx.state == StatePopulated {
		idx.logger.Debug("rebuild skipped, index populated")
		return nil
	}

	if err := idx.lock.acquire(ctx); err != nil {
		return err
	}
	defer idx.releaseLock()

	if force {
		idx.logger.Warn("clearing index for forced rebuild")
		if err := idx.store.Clear(ctx); err != nil {
			return fmt.Errorf("%w: clearing store: %w", core.ErrIndexBuild, err)
		}
		idx.state = StateEmpty
	}
	return idx.build(ctx)
}

// build embeds every passage from the source and persists them.
// Must be called with the write lock held.
func (idx *Index) build(ctx context.Context) error {
	if idx.source == nil {
		return fmt.Errorf("%w: %w", core.ErrIndexBuild, ErrSourceRequired)
	}

	passages, err := idx.source(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrIndexBuild, err)
	}
	if len(passages) == 0 {
		return fmt.Errorf("%w: source produced no passages", core.ErrIndexBuild)
	}

	pool, err := ants.NewPool(idx.poolSize)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrIndexBuild, err)
	}
	defer pool.Release()

	be := &batchEmbedder{
		embedder:  idx.embedder,
		pool:      pool,
		batchSize: idx.batchSize,
		progress:  idx.progress,
	}
	entries, err := be.embed(ctx, passages)
	if err != nil {
		return fmt.Errorf("%w: embedding passages: %w", core.ErrIndexBuild, err)
	}

	if err := idx.store.Create(ctx, entries, core.MetricCosine); err != nil {
		if errors.Is(err, storage.ErrNotEmpty) {
			// Another process finished a build first
			if loadErr := idx.store.Load(ctx, core.MetricCosine); loadErr == nil {
				idx.state = StatePopulated
				return nil
			}
		}
		return fmt.Errorf("%w: persisting entries: %w", core.ErrIndexBuild, err)
	}

	idx.state = StatePopulated
	idx.logger.Info("index built", "passages", len(entries), "batch_size", idx.batchSize)
	return nil
}

func (idx *Index) releaseLock() {
	if err := idx.lock.release(); err != nil {
		idx.logger.Warn("failed to release build lock", "err", err)
	}
}

// Close releases the underlying store.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.store.Close()
}
