package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/hybridrag/core"
)

// Pipeline loads and chunks source documents into passages.
// Documents are loaded concurrently; passages come back in source order.
type Pipeline struct {
	sources  []string
	loader   *Loader
	chunker  *Chunker
	poolSize int
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLoader sets the document loader.
func WithLoader(loader *Loader) Option {
	return func(p *Pipeline) error {
		p.loader = loader
		return nil
	}
}

// WithChunker sets the passage chunker.
func WithChunker(chunker *Chunker) Option {
	return func(p *Pipeline) error {
		p.chunker = chunker
		return nil
	}
}

// WithPoolSize sets the number of documents loaded concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.poolSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a pipeline over the given source paths.
func NewPipeline(sources []string, opts ...Option) (*Pipeline, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	p := &Pipeline{
		sources:  append([]string(nil), sources...),
		poolSize: poolSize,
		logger:   slog.Default().With("component", "ingestion"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	if p.loader == nil {
		loader, err := NewLoader(WithLoaderLogger(p.logger))
		if err != nil {
			return nil, err
		}
		p.loader = loader
	}
	if p.chunker == nil {
		chunker, err := NewChunker()
		if err != nil {
			return nil, err
		}
		p.chunker = chunker
	}
	return p, nil
}

// Sources returns the configured source paths.
func (p *Pipeline) Sources() []string {
	return append([]string(nil), p.sources...)
}

// Passages loads every source and returns the passages of all of them.
// A load failure on any source fails the whole run. Zero passages overall
// returns ErrNoPassages.
func (p *Pipeline) Passages(ctx context.Context) ([]core.Passage, error) {
	pool, err := ants.NewPool(min(p.poolSize, len(p.sources)))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	results := make([][]core.Passage, len(p.sources))
	errs := make([]error, len(p.sources))
	var wg sync.WaitGroup

	for i, source := range p.sources {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			break
		}
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			doc, err := p.loader.Load(source)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = p.chunker.Split(doc.Text)
			p.logger.Debug("document chunked", "source", source, "passages", len(results[i]))
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = fmt.Errorf("submitting %s: %w", source, submitErr)
		}
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	var passages []core.Passage
	for _, r := range results {
		passages = append(passages, r...)
	}
	if len(passages) == 0 {
		return nil, fmt.Errorf("%w from %d source(s)", ErrNoPassages, len(p.sources))
	}
	p.logger.Info("passages prepared", "sources", len(p.sources), "passages", len(passages))
	return passages, nil
}
