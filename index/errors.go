package index

import "errors"

var (
	// ErrStoreRequired is returned when no index store is provided.
	ErrStoreRequired = errors.New("index store required")

	// ErrEmbedderRequired is returned when no embedder is provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrSourceRequired is returned when an index must be built but has no passage source.
	ErrSourceRequired = errors.New("passage source required")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("batch size must be greater than 0")

	// ErrQuery wraps failures while answering a query.
	ErrQuery = errors.New("index query failed")

	// ErrEmbeddingCount is returned when the embedder returns the wrong number of vectors.
	ErrEmbeddingCount = errors.New("embedding count mismatch")
)
