// Package config assembles the static configuration of a hybridrag system.
//
// Values come from built-in defaults, then an optional YAML file, then
// environment overrides. The resulting Config is validated once and passed
// by value into constructors; nothing mutates it afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/poiesic/hybridrag/ai"
	"github.com/poiesic/hybridrag/ingestion"
	"github.com/poiesic/hybridrag/search"
	"github.com/poiesic/hybridrag/websearch"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvEmbeddingHost  = "HYBRIDRAG_EMBEDDING_HOST"
	EnvEmbeddingModel = "HYBRIDRAG_EMBEDDING_MODEL"
	EnvEmbeddingToken = "HYBRIDRAG_EMBEDDING_TOKEN"
	EnvSearchURL      = "HYBRIDRAG_SEARCH_URL"
	EnvWebEnabled     = "HYBRIDRAG_WEB_ENABLED"
)

// ErrInvalid is returned by Validate for any unusable setting.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete system configuration.
type Config struct {
	Paths      PathsConfig      `yaml:"paths"`
	Processing ProcessingConfig `yaml:"processing"`
	Embedding  ai.Config        `yaml:"embedding"`
	Index      IndexConfig      `yaml:"index"`
	Fusion     search.Config    `yaml:"fusion"`
	Web        WebConfig        `yaml:"web"`
	Server     ServerConfig     `yaml:"server"`
}

// PathsConfig locates the source documents and the persisted index.
type PathsConfig struct {
	Sources  []string `yaml:"sources"`
	IndexDir string   `yaml:"index_dir"`
}

// ProcessingConfig controls decoding and chunking.
type ProcessingConfig struct {
	Encodings []string                  `yaml:"encodings"`
	Headings  []ingestion.HeadingMarker `yaml:"headings"`
}

// IndexConfig controls index builds.
type IndexConfig struct {
	// PoolSize is the number of embedding batches in flight. Zero picks a default.
	PoolSize int `yaml:"pool_size"`
}

// WebConfig controls the aggregator.
type WebConfig struct {
	Enabled          bool `yaml:"enabled"`
	websearch.Config `yaml:",inline"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Paths: PathsConfig{
			Sources:  []string{filepath.Join("data", "藜.md")},
			IndexDir: filepath.Join("storage", "vector_db"),
		},
		Processing: ProcessingConfig{
			Encodings: append([]string(nil), ingestion.DefaultEncodings...),
			Headings:  append([]ingestion.HeadingMarker(nil), ingestion.DefaultHeadings...),
		},
		Embedding: *ai.DefaultConfig(),
		Fusion:    search.DefaultConfig(),
		Web: WebConfig{
			Enabled: true,
			Config:  websearch.DefaultConfig(),
		},
		Server: ServerConfig{Addr: "127.0.0.1:8000"},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and environment overrides, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvEmbeddingHost); v != "" {
		c.Embedding.EmbeddingHost = v
	}
	if v := os.Getenv(EnvEmbeddingModel); v != "" {
		c.Embedding.EmbeddingModel = v
	}
	if v := os.Getenv(EnvEmbeddingToken); v != "" {
		c.Embedding.Token = v
	}
	if v := os.Getenv(EnvSearchURL); v != "" {
		c.Web.BaseURL = v
	}
	if v := os.Getenv(EnvWebEnabled); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalid, EnvWebEnabled, v, err)
		}
		c.Web.Enabled = enabled
	}
	return nil
}

// Validate checks every section. The embedding section is normalized in place.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Paths.Sources) == 0 {
		errs = append(errs, errors.New("paths.sources must list at least one document"))
	}
	for _, s := range c.Paths.Sources {
		if strings.TrimSpace(s) == "" {
			errs = append(errs, errors.New("paths.sources contains an empty path"))
		}
	}
	if c.Paths.IndexDir == "" {
		errs = append(errs, errors.New("paths.index_dir is required"))
	}
	if len(c.Processing.Encodings) == 0 {
		errs = append(errs, errors.New("processing.encodings must not be empty"))
	}
	if len(c.Processing.Headings) == 0 {
		errs = append(errs, errors.New("processing.headings must not be empty"))
	}
	if c.Index.PoolSize < 0 {
		errs = append(errs, errors.New("index.pool_size must not be negative"))
	}
	if err := c.Embedding.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Fusion.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Web.Enabled {
		if err := c.Web.Config.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("web: %w", err))
		}
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// LockPath returns the cross-process build lock file for the index.
func (c Config) LockPath() string {
	return filepath.Clean(c.Paths.IndexDir) + ".lock"
}

// YAML renders the configuration as YAML.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
