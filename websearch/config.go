package websearch

import (
	"fmt"
	"net/url"
	"time"
)

// DefaultCanaryQuery is issued once at construction to check connectivity.
const DefaultCanaryQuery = "今天的头条新闻"

// Config describes how to reach the aggregator.
type Config struct {
	BaseURL    string        `yaml:"base_url"`
	Engines    []string      `yaml:"engines"`
	Categories []string      `yaml:"categories"`
	Timeout    time.Duration `yaml:"timeout"`

	// RequestsPerSecond throttles outgoing requests. Zero disables throttling.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`

	// CanaryQuery is sent once by NewAdapter. Empty disables the check.
	CanaryQuery string `yaml:"canary_query"`
}

// DefaultConfig returns a configuration for a local SearXNG instance.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "http://localhost:8080",
		Engines:     []string{"bing", "baidu"},
		Categories:  []string{"general"},
		Timeout:     10 * time.Second,
		Burst:       1,
		CanaryQuery: DefaultCanaryQuery,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: empty", ErrInvalidBaseURL)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.BaseURL)
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second must not be negative, got %v", c.RequestsPerSecond)
	}
	return nil
}
