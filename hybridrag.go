// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package hybridrag wires the loader, chunker, embedding index, web search
// adapter and fusion engine into one retrieval system.
package hybridrag

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/poiesic/hybridrag/ai"
	"github.com/poiesic/hybridrag/ai/openai"
	"github.com/poiesic/hybridrag/config"
	"github.com/poiesic/hybridrag/core"
	"github.com/poiesic/hybridrag/index"
	"github.com/poiesic/hybridrag/ingestion"
	"github.com/poiesic/hybridrag/search"
	"github.com/poiesic/hybridrag/storage/badger"
	"github.com/poiesic/hybridrag/websearch"
)

// System is an opened retrieval system.
type System struct {
	cfg      config.Config
	provider ai.AIProvider
	index    *index.Index
	web      *websearch.Adapter
	engine   *search.Engine
	logger   *slog.Logger
}

// Option configures Open.
type Option func(*systemOptions)

type systemOptions struct {
	provider   ai.AIProvider
	httpClient *http.Client
	progress   index.Progress
	logger     *slog.Logger
	inMemory   bool
}

// WithProvider supplies the embedding provider instead of building one from
// the embedding configuration. The system takes ownership and closes it.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *systemOptions) {
		o.provider = provider
	}
}

// WithHTTPClient sets the client used to reach the search aggregator.
func WithHTTPClient(client *http.Client) Option {
	return func(o *systemOptions) {
		o.httpClient = client
	}
}

// WithProgress reports index build progress.
func WithProgress(p index.Progress) Option {
	return func(o *systemOptions) {
		o.progress = p
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *systemOptions) {
		o.logger = logger
	}
}

// WithInMemoryIndex keeps the index in memory. Nothing is persisted.
func WithInMemoryIndex() Option {
	return func(o *systemOptions) {
		o.inMemory = true
	}
}

// Open validates cfg and brings up every component. A missing or empty
// index is built from the configured sources before Open returns.
func Open(ctx context.Context, cfg config.Config, opts ...Option) (*System, error) {
	options := &systemOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := options.logger

	provider := options.provider
	if provider == nil {
		embeddingCfg := cfg.Embedding
		p, err := openai.NewProvider(&embeddingCfg)
		if err != nil {
			return nil, err
		}
		provider = p
	}

	sys := &System{cfg: cfg, provider: provider, logger: logger}
	if err := sys.open(ctx, options); err != nil {
		if closeErr := sys.Close(); closeErr != nil {
			logger.Error("error closing partially opened system", "err", closeErr)
		}
		return nil, err
	}
	return sys, nil
}

func (s *System) open(ctx context.Context, options *systemOptions) error {
	cfg := s.cfg

	loader, err := ingestion.NewLoader(
		ingestion.WithEncodings(cfg.Processing.Encodings...),
		ingestion.WithLoaderLogger(s.logger.With("component", "loader")),
	)
	if err != nil {
		return err
	}
	chunker, err := ingestion.NewChunker(cfg.Processing.Headings...)
	if err != nil {
		return err
	}
	pipeline, err := ingestion.NewPipeline(cfg.Paths.Sources,
		ingestion.WithLoader(loader),
		ingestion.WithChunker(chunker),
		ingestion.WithLogger(s.logger.With("component", "ingestion")),
	)
	if err != nil {
		return err
	}

	backend, err := badger.OpenBackend(cfg.Paths.IndexDir, options.inMemory)
	if err != nil {
		return err
	}
	store, err := badger.NewIndexStore(backend)
	if err != nil {
		backend.Close()
		return err
	}

	indexOpts := []index.Option{
		index.WithBatchSize(cfg.Embedding.BatchSize),
		index.WithProgress(options.progress),
		index.WithLogger(s.logger.With("component", "index")),
	}
	if cfg.Index.PoolSize > 0 {
		indexOpts = append(indexOpts, index.WithPoolSize(cfg.Index.PoolSize))
	}
	if !options.inMemory {
		indexOpts = append(indexOpts, index.WithLockFile(cfg.LockPath()))
	}
	idx, err := index.Open(ctx, store, s.provider.Embedder(), pipeline.Passages, indexOpts...)
	if err != nil {
		store.Close()
		return err
	}
	s.index = idx

	engineOpts := []search.Option{
		search.WithConfig(cfg.Fusion),
		search.WithLogger(s.logger.With("component", "search")),
	}
	if cfg.Web.Enabled {
		web, err := websearch.NewAdapter(ctx, cfg.Web.Config,
			websearch.WithHTTPClient(options.httpClient),
			websearch.WithLogger(s.logger.With("component", "websearch")),
		)
		if err != nil {
			return err
		}
		s.web = web
		engineOpts = append(engineOpts, search.WithWebSearcher(web))
	}

	engine, err := search.NewEngine(idx, engineOpts...)
	if err != nil {
		return err
	}
	s.engine = engine
	return nil
}

// Retrieve returns fused passages in the configured mode: hybrid when web
// search is enabled, local-only otherwise.
func (s *System) Retrieve(ctx context.Context, query string) ([]core.Passage, error) {
	return s.engine.Retrieve(ctx, query)
}

// RetrieveMode returns fused passages in the given mode. Hybrid mode on a
// system without web search degrades to local-only.
func (s *System) RetrieveMode(ctx context.Context, query string, mode search.Mode) ([]core.Passage, error) {
	if mode == search.ModeHybrid && s.web == nil {
		mode = search.ModeLocalOnly
	}
	return s.engine.RetrieveMode(ctx, query, mode)
}

// Rebuild re-indexes the sources. See index.Index.Rebuild.
func (s *System) Rebuild(ctx context.Context, force bool) error {
	return s.index.Rebuild(ctx, force)
}

// Engine returns the fusion engine.
func (s *System) Engine() *search.Engine {
	return s.engine
}

// Index returns the embedding index.
func (s *System) Index() *index.Index {
	return s.index
}

// Config returns the configuration the system was opened with.
func (s *System) Config() config.Config {
	return s.cfg
}

// WebEnabled reports whether hybrid retrieval is available.
func (s *System) WebEnabled() bool {
	return s.web != nil
}

// Close releases the index and the embedding provider.
func (s *System) Close() error {
	var errs []error
	if s.index != nil {
		if err := s.index.Close(); err != nil {
			s.logger.Error("error closing index", "err", err)
			errs = append(errs, err)
		}
	}
	if s.provider != nil {
		if err := s.provider.Close(); err != nil {
			s.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
