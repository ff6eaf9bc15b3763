package hybridrag

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/hybridrag/ai/mock"
	"github.com/poiesic/hybridrag/config"
	"github.com/poiesic/hybridrag/core"
	"github.com/poiesic/hybridrag/index"
	"github.com/poiesic/hybridrag/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quinoaDoc = `# 藜
## 营养价值
藜麦富含蛋白质、膳食纤维和多种矿物质，营养价值很高。
## 种植环境
藜麦适合在高海拔冷凉地区种植，耐旱耐寒。
## 食用方法
藜麦可以煮粥，也可以做沙拉。
`

var terms = []string{"营养", "种植", "食用", "蛋白质"}

func termEmbedder() *mock.MockEmbedder {
	m := mock.NewMockEmbedder()
	m.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		v := make([]float32, len(terms)+1)
		for i, term := range terms {
			v[i] = float32(strings.Count(text, term))
		}
		v[len(terms)] = 0.05
		return v, nil
	}
	return m
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	doc := filepath.Join(dir, "藜.md")
	require.NoError(t, os.WriteFile(doc, []byte(quinoaDoc), 0o644))

	cfg := config.Default()
	cfg.Paths.Sources = []string{doc}
	cfg.Paths.IndexDir = filepath.Join(dir, "vector_db")
	cfg.Web.Enabled = false
	return cfg
}

func searxServer(t *testing.T, n int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var results []string
		for i := 1; i <= n; i++ {
			results = append(results, fmt.Sprintf(
				`{"title":"藜麦新闻%d","url":"https://news.example/%d","content":"第%d条藜麦报道","engine":"bing","rank":%d}`,
				i, i, i, i))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"results":[%s]}`, strings.Join(results, ","))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func openSystem(t *testing.T, cfg config.Config, embedder *mock.MockEmbedder, opts ...Option) (*System, *mock.MockProvider) {
	t.Helper()
	provider := mock.NewMockProviderWithEmbedder(embedder).(*mock.MockProvider)
	opts = append([]Option{WithProvider(provider)}, opts...)
	sys, err := Open(context.Background(), cfg, opts...)
	require.NoError(t, err)
	return sys, provider
}

func TestOpen_LocalOnly(t *testing.T) {
	cfg := testConfig(t)
	sys, provider := openSystem(t, cfg, termEmbedder(), WithInMemoryIndex())

	assert.False(t, sys.WebEnabled())
	assert.Equal(t, search.ModeLocalOnly, sys.Engine().Mode())
	assert.Equal(t, index.StatePopulated, sys.Index().State())

	results, err := sys.Retrieve(context.Background(), "藜麦有哪些营养价值")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, core.SourceLocal, results[0].Source)
	assert.Equal(t, "营养价值", results[0].Meta("Header2"))
	assert.Equal(t, core.SentinelURL, results[0].Meta(core.MetaURL))

	require.NoError(t, sys.Close())
	assert.True(t, provider.Closed())
}

func TestOpen_Hybrid(t *testing.T) {
	srv := searxServer(t, 5)
	cfg := testConfig(t)
	cfg.Web.Enabled = true
	cfg.Web.BaseURL = srv.URL
	cfg.Web.Timeout = 2 * time.Second
	cfg.Web.CanaryQuery = ""

	sys, _ := openSystem(t, cfg, termEmbedder(), WithInMemoryIndex(), WithHTTPClient(srv.Client()))
	defer sys.Close()

	assert.True(t, sys.WebEnabled())
	assert.Equal(t, search.ModeHybrid, sys.Engine().Mode())

	results, err := sys.Retrieve(context.Background(), "藜麦有哪些营养价值")
	require.NoError(t, err)
	require.Len(t, results, 6)

	for i := 0; i < 5; i++ {
		assert.Equal(t, core.SourceWeb, results[i].Source)
		assert.Equal(t, 5-i, results[i].Rank)
	}
	assert.Equal(t, core.SourceLocal, results[5].Source)

	local, err := sys.RetrieveMode(context.Background(), "藜麦有哪些营养价值", search.ModeLocalOnly)
	require.NoError(t, err)
	require.Len(t, local, 1)
	assert.Equal(t, core.SourceLocal, local[0].Source)
}

func TestRetrieveMode_HybridWithoutWebDegrades(t *testing.T) {
	sys, _ := openSystem(t, testConfig(t), termEmbedder(), WithInMemoryIndex())
	defer sys.Close()

	results, err := sys.RetrieveMode(context.Background(), "藜麦有哪些营养价值", search.ModeHybrid)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, core.SourceLocal, results[0].Source)
}

func TestOpen_ReusesPersistedIndex(t *testing.T) {
	cfg := testConfig(t)

	first := termEmbedder()
	sys, _ := openSystem(t, cfg, first)
	assert.Equal(t, 4, first.TextCount())
	require.NoError(t, sys.Close())

	second := termEmbedder()
	sys, _ = openSystem(t, cfg, second)
	defer sys.Close()

	assert.Zero(t, second.TextCount(), "persisted index must load without embedding")
	count, err := sys.Index().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	require.NoError(t, sys.Rebuild(context.Background(), false))
	assert.Zero(t, second.TextCount())

	require.NoError(t, sys.Rebuild(context.Background(), true))
	assert.Equal(t, 4, second.TextCount())
	count, err = sys.Index().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.Sources = nil

	provider := mock.NewMockProvider()
	_, err := Open(context.Background(), cfg, WithProvider(provider))
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestOpen_MissingSourceFailsBuild(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.Sources = []string{filepath.Join(t.TempDir(), "missing.md")}

	provider := mock.NewMockProvider().(*mock.MockProvider)
	_, err := Open(context.Background(), cfg, WithProvider(provider), WithInMemoryIndex())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrIndexBuild)
	assert.True(t, provider.Closed(), "a failed open releases the provider")
}
