package index

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/hybridrag/ai"
	"github.com/poiesic/hybridrag/core"
)

// batchEmbedder turns passages into index entries, one embedder call per batch.
type batchEmbedder struct {
	embedder  ai.Embedder
	pool      *ants.Pool
	batchSize int
	progress  Progress
}

// embed returns one entry per passage, in passage order, with normalized vectors.
// The first failing batch cancels the rest.
func (b *batchEmbedder) embed(ctx context.Context, passages []core.Passage) ([]*core.IndexEntry, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	entries := make([]*core.IndexEntry, len(passages))
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	b.progress.Start(len(passages))
	for start := 0; start < len(passages); start += b.batchSize {
		end := min(start+b.batchSize, len(passages))
		batch := passages[start:end]
		offset := start

		wg.Add(1)
		err := b.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			if err := b.process(ctx, batch, entries[offset:offset+len(batch)]); err != nil {
				fail(err)
				return
			}
			b.progress.Increment(len(batch))
		})
		if err != nil {
			wg.Done()
			fail(fmt.Errorf("submitting batch at %d: %w", offset, err))
			break
		}
	}
	wg.Wait()

	if firstErr == nil {
		firstErr = ctx.Err()
	}
	if firstErr != nil {
		return nil, firstErr
	}
	b.progress.Finish()
	return entries, nil
}

func (b *batchEmbedder) process(ctx context.Context, batch []core.Passage, out []*core.IndexEntry) error {
	texts := make([]string, len(batch))
	for i, p := range batch {
		texts[i] = p.Content
	}

	vectors, err := b.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCount, len(batch), len(vectors))
	}

	for i, p := range batch {
		out[i] = core.NewIndexEntry(p, NormalizeVector(vectors[i]))
	}
	return nil
}
