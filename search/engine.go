package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/hybridrag/core"
	"github.com/poiesic/hybridrag/websearch"
	"golang.org/x/sync/errgroup"
)

// Retriever returns the fused passages for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]core.Passage, error)
}

// LocalSearcher answers nearest-neighbor queries over indexed passages.
type LocalSearcher interface {
	Query(ctx context.Context, text string, k int, threshold float32) ([]core.Passage, error)
}

// WebSearcher queries the search aggregator. It reports failure in the
// outcome rather than as an error.
type WebSearcher interface {
	Search(ctx context.Context, query string, req websearch.Request) websearch.Outcome
}

// Mode selects which sources a retrieval consults.
type Mode int

const (
	// ModeLocalOnly consults only the embedding index.
	ModeLocalOnly Mode = iota
	// ModeHybrid consults the index and the web aggregator.
	ModeHybrid
)

func (m Mode) String() string {
	switch m {
	case ModeLocalOnly:
		return "local"
	case ModeHybrid:
		return "hybrid"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "local" or "hybrid".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local", "local-only", "local_only":
		return ModeLocalOnly, nil
	case "hybrid", "web":
		return ModeHybrid, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Engine fuses local and web retrieval.
type Engine struct {
	local      LocalSearcher
	web        WebSearcher
	mode       Mode
	cfg        Config
	webRequest websearch.Request
	logger     *slog.Logger
}

var _ Retriever = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine) error

// WithWebSearcher enables hybrid retrieval through web.
// Setting a web searcher switches the default mode to ModeHybrid.
func WithWebSearcher(web WebSearcher) Option {
	return func(e *Engine) error {
		e.web = web
		if web != nil {
			e.mode = ModeHybrid
		}
		return nil
	}
}

// WithMode sets the default retrieval mode.
func WithMode(mode Mode) Option {
	return func(e *Engine) error {
		if mode != ModeLocalOnly && mode != ModeHybrid {
			return fmt.Errorf("%w: %v", ErrUnknownMode, mode)
		}
		e.mode = mode
		return nil
	}
}

// WithConfig replaces the fusion parameters.
func WithConfig(cfg Config) Option {
	return func(e *Engine) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		e.cfg = cfg
		return nil
	}
}

// WithWebRequest sets the categories, engines and page sent to the aggregator.
func WithWebRequest(req websearch.Request) Option {
	return func(e *Engine) error {
		e.webRequest = req
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a fusion engine over a local index.
func NewEngine(local LocalSearcher, opts ...Option) (*Engine, error) {
	if local == nil {
		return nil, ErrLocalSearcherRequired
	}

	e := &Engine{
		local:  local,
		mode:   ModeLocalOnly,
		cfg:    DefaultConfig(),
		logger: slog.Default().With("component", "search"),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if e.mode == ModeHybrid && e.web == nil {
		return nil, ErrWebSearcherRequired
	}
	return e, nil
}

// Mode returns the engine's default mode.
func (e *Engine) Mode() Mode {
	return e.mode
}

// Config returns the fusion parameters.
func (e *Engine) Config() Config {
	return e.cfg
}

// Retrieve runs a retrieval in the engine's default mode.
func (e *Engine) Retrieve(ctx context.Context, query string) ([]core.Passage, error) {
	return e.RetrieveWithMonitor(ctx, query, e.mode, nil)
}

// RetrieveMode runs a retrieval in the given mode.
func (e *Engine) RetrieveMode(ctx context.Context, query string, mode Mode) ([]core.Passage, error) {
	return e.RetrieveWithMonitor(ctx, query, mode, nil)
}

// RetrieveWithMonitor runs a retrieval, reporting each stage to monitor.
// Local and web candidates are gathered concurrently. The result holds at
// most MaxResults passages, each tagged with its source.
func (e *Engine) RetrieveWithMonitor(ctx context.Context, query string, mode Mode, monitor RetrievalMonitor) ([]core.Passage, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if mode == ModeHybrid && e.web == nil {
		return nil, ErrWebSearcherRequired
	}

	monitor.Start(query, mode)

	var (
		local      []core.Passage
		web        []core.Passage
		webOutcome websearch.Outcome
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		local, err = e.localCandidates(gctx, query)
		return err
	})
	if mode == ModeHybrid {
		g.Go(func() error {
			webOutcome, web = e.webCandidates(gctx, query)
			return nil
		})
	}
	err := g.Wait()

	// Cancellation by the caller discards everything gathered so far
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		e.logger.Error("local retrieval failed", "query", query, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrLocalRetrieval, err)
	}

	monitor.AfterLocalSearch(local)
	if mode == ModeHybrid {
		monitor.AfterWebSearch(webOutcome, web)
	}

	combined := merge(local, web)
	Rank(combined)
	monitor.AfterRanking(combined)

	results, dropped := Dedup(combined, e.cfg.TitlePrefix, e.cfg.ContentPrefix)
	if len(dropped) > 0 {
		monitor.DuplicatesDropped(dropped)
	}
	if limit := min(e.cfg.MaxResults, MaxFusedResults); len(results) > limit {
		results = results[:limit]
	}

	e.logger.Debug("retrieval complete",
		"query", query, "mode", mode,
		"local", len(local), "web", len(web),
		"duplicates", len(dropped), "results", len(results))
	monitor.Finish(results)
	return results, nil
}

// localCandidates queries the index and keeps at most LocalKeep passages
// at or above the score threshold.
func (e *Engine) localCandidates(ctx context.Context, query string) ([]core.Passage, error) {
	if e.cfg.LocalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.LocalTimeout)
		defer cancel()
	}

	passages, err := e.local.Query(ctx, query, e.cfg.LocalCandidates, e.cfg.ScoreThreshold)
	if err != nil {
		return nil, err
	}

	kept := make([]core.Passage, 0, min(len(passages), e.cfg.LocalKeep))
	for _, p := range passages {
		if len(kept) == e.cfg.LocalKeep {
			break
		}
		if p.Score < e.cfg.ScoreThreshold {
			continue
		}
		kept = append(kept, p)
	}
	return kept, nil
}

// webCandidates never fails; an unsuccessful outcome yields no passages.
func (e *Engine) webCandidates(ctx context.Context, query string) (websearch.Outcome, []core.Passage) {
	outcome := e.web.Search(ctx, query, e.webRequest)
	if !outcome.OK() {
		e.logger.Warn("web retrieval unavailable, continuing with local results", "err", outcome.Err)
		return outcome, nil
	}

	passages := websearch.ToPassages(outcome.Hits)
	if len(passages) > e.cfg.WebTopK {
		passages = passages[:e.cfg.WebTopK]
	}
	return outcome, passages
}
