package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/hybridrag/core"
	"golang.org/x/time/rate"
)

// defaultBackoff applies when a 429 response carries no usable Retry-After.
const defaultBackoff = 30 * time.Second

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 8 << 20

// Request selects what to search. Zero values fall back to the adapter defaults.
type Request struct {
	Categories []string
	Engines    []string
	Page       int
}

// Outcome is the result of one aggregator call.
// On failure Hits is empty and Err wraps core.ErrAdapter.
type Outcome struct {
	Hits []core.SearchHit
	Err  error
}

// OK reports whether the call succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Adapter talks to the aggregator. It is safe for concurrent use.
type Adapter struct {
	endpoint string
	defaults Request
	timeout  time.Duration
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger

	mu      sync.Mutex
	retryAt time.Time
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(a *Adapter) {
		if client != nil {
			a.client = client
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAdapter validates cfg and runs the canary query. A failing canary is
// logged and does not prevent construction.
func NewAdapter(ctx context.Context, cfg Config, opts ...Option) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	categories := cfg.Categories
	if len(categories) == 0 {
		categories = []string{"general"}
	}

	a := &Adapter{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/search",
		defaults: Request{
			Categories: append([]string(nil), categories...),
			Engines:    append([]string(nil), cfg.Engines...),
			Page:       1,
		},
		timeout: cfg.Timeout,
		client:  http.DefaultClient,
		logger:  slog.Default().With("component", "websearch"),
	}
	if cfg.RequestsPerSecond > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(cfg.Burst, 1))
	}
	for _, opt := range opts {
		opt(a)
	}

	if cfg.CanaryQuery != "" {
		a.canary(ctx, cfg.CanaryQuery)
	}
	return a, nil
}

func (a *Adapter) canary(ctx context.Context, query string) {
	outcome := a.Search(ctx, query, Request{})
	switch {
	case !outcome.OK():
		a.logger.Warn("aggregator connectivity check failed", "endpoint", a.endpoint, "err", outcome.Err)
	case len(outcome.Hits) == 0:
		a.logger.Warn("aggregator reachable but returned no results", "endpoint", a.endpoint, "query", query)
	default:
		a.logger.Info("aggregator connectivity ok", "endpoint", a.endpoint, "sample_title", outcome.Hits[0].Title)
	}
}

// Search performs one aggregator call. It never returns a Go error; failures
// are logged and reported in Outcome.Err.
func (a *Adapter) Search(ctx context.Context, query string, req Request) Outcome {
	hits, err := a.search(ctx, query, a.resolve(req))
	if err != nil {
		err = fmt.Errorf("%w: %w", core.ErrAdapter, err)
		a.logger.Warn("web search failed", "query", query, "err", err)
		return Outcome{Hits: []core.SearchHit{}, Err: err}
	}
	a.logger.Debug("web search completed", "query", query, "hits", len(hits))
	return Outcome{Hits: hits}
}

func (a *Adapter) resolve(req Request) Request {
	if len(req.Categories) == 0 {
		req.Categories = a.defaults.Categories
	}
	if len(req.Engines) == 0 {
		req.Engines = a.defaults.Engines
	}
	if req.Page < 1 {
		req.Page = a.defaults.Page
	}
	return req
}

func (a *Adapter) search(ctx context.Context, query string, req Request) ([]core.SearchHit, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("q", query)
	params.Set("categories", strings.Join(req.Categories, ","))
	params.Set("engines", strings.Join(req.Engines, ","))
	params.Set("pageno", strconv.Itoa(req.Page))
	params.Set("format", "json")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		a.backoff(resp.Header.Get("Retry-After"))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		a.drain(resp)
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	return decodeHits(io.LimitReader(resp.Body, maxBodyBytes))
}

// drain discards an error response body so the connection can be reused.
func (a *Adapter) drain(resp *http.Response) {
	n, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	a.logger.Debug("discarded error response body", "status", resp.StatusCode, "bytes", n, "err", err)
}

// wait honors any aggregator-requested backoff, then the local throttle.
func (a *Adapter) wait(ctx context.Context) error {
	a.mu.Lock()
	retryAt := a.retryAt
	a.mu.Unlock()
	if time.Now().Before(retryAt) {
		return fmt.Errorf("%w until %s", ErrBackoff, retryAt.Format(time.RFC3339))
	}

	if a.limiter == nil {
		return nil
	}
	return a.limiter.Wait(ctx)
}

func (a *Adapter) backoff(retryAfter string) {
	delay := defaultBackoff
	if secs, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && secs > 0 {
		delay = time.Duration(secs) * time.Second
	}
	a.mu.Lock()
	a.retryAt = time.Now().Add(delay)
	a.mu.Unlock()
}

type rawHit struct {
	Title   *string  `json:"title"`
	URL     *string  `json:"url"`
	Content *string  `json:"content"`
	Engine  *string  `json:"engine"`
	Score   *float64 `json:"score"`
	Rank    *float64 `json:"rank"`
}

type rawResponse struct {
	Results *[]rawHit `json:"results"`
}

func decodeHits(r io.Reader) ([]core.SearchHit, error) {
	var body rawResponse
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if body.Results == nil {
		return nil, fmt.Errorf("%w: missing results", ErrMalformedResponse)
	}

	hits := make([]core.SearchHit, 0, len(*body.Results))
	for _, raw := range *body.Results {
		hits = append(hits, core.SearchHit{
			Title:   deref(raw.Title),
			URL:     deref(raw.URL),
			Content: deref(raw.Content),
			Engine:  deref(raw.Engine),
			Score:   derefFloat(raw.Score),
			Rank:    int(derefFloat(raw.Rank)),
		})
	}
	return hits, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
