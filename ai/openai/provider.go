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


package openai

import (
	"log/slog"

	"github.com/poiesic/hybridrag/ai"
)

// Provider serves embeddings from an OpenAI-compatible endpoint.
type Provider struct {
	config   *ai.Config
	embedder ai.Embedder
	logger   *slog.Logger
}

var _ ai.AIProvider = (*Provider)(nil)

// NewProvider validates config and builds the embedder. A positive
// config.CacheSize puts an ai.CachedEmbedder in front of query embeddings.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	base, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	var embedder ai.Embedder = base
	if config.CacheSize > 0 {
		embedder = ai.NewCachedEmbedder(base, config.CacheSize)
	}

	logger := slog.Default().With("component", "openai-provider")
	logger.Debug("embedding provider ready",
		"host", config.EmbeddingHost, "model", config.EmbeddingModel,
		"batch_size", config.BatchSize, "cache_size", config.CacheSize)

	return &Provider{
		config:   config,
		embedder: embedder,
		logger:   logger,
	}, nil
}

func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Close drops any cached query embeddings. The HTTP client needs no cleanup.
func (p *Provider) Close() error {
	if cached, ok := p.embedder.(*ai.CachedEmbedder); ok {
		cached.Purge()
	}
	p.logger.Debug("closing embedding provider")
	return nil
}
