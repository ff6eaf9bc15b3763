package search

import (
	"fmt"
	"time"
)

// MaxFusedResults is the hard upper bound on a fused result.
const MaxFusedResults = 12

// Config holds the fusion parameters.
type Config struct {
	// LocalCandidates is how many nearest passages are requested from the index.
	LocalCandidates int `yaml:"local_candidates"`
	// LocalKeep caps local passages after the threshold is applied.
	LocalKeep int `yaml:"local_keep"`
	// ScoreThreshold is the minimum cosine similarity for a local passage.
	ScoreThreshold float32 `yaml:"score_threshold"`
	// WebTopK caps web passages.
	WebTopK int `yaml:"web_top_k"`
	// MaxResults bounds the fused result. At most MaxFusedResults.
	MaxResults int `yaml:"max_results"`
	// TitlePrefix and ContentPrefix are the rune counts fed to the fingerprint.
	TitlePrefix   int `yaml:"title_prefix"`
	ContentPrefix int `yaml:"content_prefix"`
	// LocalTimeout bounds the index query. Zero means no bound.
	LocalTimeout time.Duration `yaml:"local_timeout"`
}

// DefaultConfig returns the standard fusion parameters.
func DefaultConfig() Config {
	return Config{
		LocalCandidates: 5,
		LocalKeep:       3,
		ScoreThreshold:  0.6,
		WebTopK:         5,
		MaxResults:      MaxFusedResults,
		TitlePrefix:     30,
		ContentPrefix:   200,
	}
}

// Validate checks that every bound is usable.
func (c Config) Validate() error {
	switch {
	case c.LocalCandidates < 1:
		return fmt.Errorf("%w: local candidates must be positive", ErrInvalidConfig)
	case c.LocalKeep < 0:
		return fmt.Errorf("%w: local keep must not be negative", ErrInvalidConfig)
	case c.WebTopK < 0:
		return fmt.Errorf("%w: web top k must not be negative", ErrInvalidConfig)
	case c.MaxResults < 1:
		return fmt.Errorf("%w: max results must be positive", ErrInvalidConfig)
	case c.MaxResults > MaxFusedResults:
		return fmt.Errorf("%w: max results %d exceeds %d", ErrInvalidConfig, c.MaxResults, MaxFusedResults)
	case c.TitlePrefix < 0 || c.ContentPrefix < 0:
		return fmt.Errorf("%w: fingerprint prefixes must not be negative", ErrInvalidConfig)
	case c.LocalTimeout < 0:
		return fmt.Errorf("%w: local timeout must not be negative", ErrInvalidConfig)
	case c.ScoreThreshold < -1 || c.ScoreThreshold > 1:
		return fmt.Errorf("%w: score threshold must be within [-1, 1]", ErrInvalidConfig)
	}
	return nil
}
