package ai

import "context"

// Embedder maps text to vectors. It must be safe for concurrent use and, for
// a fixed model version, deterministic.
type Embedder interface {
	// EmbedText embeds one text. Used at query time.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts embeds a batch; result i belongs to texts[i].
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// AIProvider owns an Embedder and whatever connections back it.
type AIProvider interface {
	Embedder() Embedder

	// Close releases the provider. The Embedder must not be used afterwards.
	Close() error
}
