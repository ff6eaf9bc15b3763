package ai

import "errors"

var (
	// ErrEmbedding indicates the embedding service failed or returned an
	// unusable response.
	ErrEmbedding = errors.New("embedding failed")

	// ErrInconsistentDimensions indicates one response mixed vector sizes.
	ErrInconsistentDimensions = errors.New("inconsistent embedding dimensions")
)
