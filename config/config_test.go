package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/hybridrag/ingestion"
	"github.com/poiesic/hybridrag/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hybridrag.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"utf-8-sig", "utf-8", "gb18030", "gbk", "latin1"}, cfg.Processing.Encodings)
	assert.Equal(t, ingestion.DefaultHeadings, cfg.Processing.Headings)
	assert.Equal(t, 32, cfg.Embedding.BatchSize)
	assert.Equal(t, 5, cfg.Fusion.LocalCandidates)
	assert.Equal(t, 3, cfg.Fusion.LocalKeep)
	assert.Equal(t, float32(0.6), cfg.Fusion.ScoreThreshold)
	assert.Equal(t, 12, cfg.Fusion.MaxResults)
	assert.True(t, cfg.Web.Enabled)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Paths, cfg.Paths)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
paths:
  sources: [docs/a.md, docs/b.md]
  index_dir: /tmp/idx
processing:
  encodings: [utf-8, gbk]
  headings:
    - {marker: "#", key: Title}
    - {marker: "##", key: Section}
embedding:
  host: http://embedder:8080
  model: bge-small
  batch_size: 16
fusion:
  web_top_k: 3
  score_threshold: 0.5
web:
  enabled: true
  base_url: http://searx:8888
  engines: [duckduckgo]
  timeout: 3s
  requests_per_second: 2
server:
  addr: ":9000"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"docs/a.md", "docs/b.md"}, cfg.Paths.Sources)
	assert.Equal(t, "/tmp/idx", cfg.Paths.IndexDir)
	assert.Equal(t, []string{"utf-8", "gbk"}, cfg.Processing.Encodings)
	assert.Equal(t, []ingestion.HeadingMarker{
		{Marker: "#", Key: "Title"},
		{Marker: "##", Key: "Section"},
	}, cfg.Processing.Headings)
	assert.Equal(t, "http://embedder:8080/v1", cfg.Embedding.EmbeddingHost, "host is normalized")
	assert.Equal(t, "bge-small", cfg.Embedding.EmbeddingModel)
	assert.Equal(t, 16, cfg.Embedding.BatchSize)
	assert.Equal(t, 3, cfg.Fusion.WebTopK)
	assert.Equal(t, 5, cfg.Fusion.LocalCandidates, "unset fields keep defaults")
	assert.Equal(t, float32(0.5), cfg.Fusion.ScoreThreshold)
	assert.Equal(t, "http://searx:8888", cfg.Web.BaseURL)
	assert.Equal(t, []string{"duckduckgo"}, cfg.Web.Engines)
	assert.Equal(t, 3*time.Second, cfg.Web.Timeout)
	assert.Equal(t, 2.0, cfg.Web.RequestsPerSecond)
	assert.Equal(t, ":9000", cfg.Server.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvEmbeddingHost, "http://env-embedder/v1")
	t.Setenv(EnvEmbeddingModel, "env-model")
	t.Setenv(EnvEmbeddingToken, "secret")
	t.Setenv(EnvSearchURL, "http://env-searx")
	t.Setenv(EnvWebEnabled, "false")

	cfg, err := Load(writeConfig(t, "web:\n  base_url: http://file-searx\n"))
	require.NoError(t, err)

	assert.Equal(t, "http://env-embedder/v1", cfg.Embedding.EmbeddingHost)
	assert.Equal(t, "env-model", cfg.Embedding.EmbeddingModel)
	assert.Equal(t, "secret", cfg.Embedding.Token)
	assert.Equal(t, "http://env-searx", cfg.Web.BaseURL)
	assert.False(t, cfg.Web.Enabled)
}

func TestLoad_BadEnvBool(t *testing.T) {
	t.Setenv(EnvWebEnabled, "maybe")
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "paths: [not, a, map"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "fusion:\n  max_results: 0\n"))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load(writeConfig(t, "fusion:\n  max_results: 20\n"))
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorIs(t, err, search.ErrInvalidConfig)
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Paths.Sources = nil
	cfg.Paths.IndexDir = ""
	cfg.Server.Addr = ""

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "paths.sources")
	assert.Contains(t, err.Error(), "paths.index_dir")
	assert.Contains(t, err.Error(), "server.addr")
}

func TestValidate_WebSkippedWhenDisabled(t *testing.T) {
	cfg := Default()
	cfg.Web.Enabled = false
	cfg.Web.BaseURL = ""
	assert.NoError(t, cfg.Validate())

	cfg.Web.Enabled = true
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
}

func TestLockPath(t *testing.T) {
	cfg := Default()
	cfg.Paths.IndexDir = "/var/lib/hybridrag/index/"
	assert.Equal(t, "/var/lib/hybridrag/index.lock", cfg.LockPath())
}

func TestYAML_RoundTrip(t *testing.T) {
	cfg := Default()
	data, err := cfg.YAML()
	require.NoError(t, err)

	var decoded Config
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, cfg, decoded)
}
