package ingestion

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/poiesic/hybridrag/core"
)

// HeadingMarker maps a heading prefix to the metadata key that records it.
// Markers are ordered by level: the first configured marker is level 1.
type HeadingMarker struct {
	Marker string `yaml:"marker"`
	Key    string `yaml:"key"`
}

// DefaultHeadings splits on the first three markdown heading levels.
var DefaultHeadings = []HeadingMarker{
	{Marker: "#", Key: "Header1"},
	{Marker: "##", Key: "Header2"},
	{Marker: "###", Key: "Header3"},
}

// Chunker splits text at heading lines.
type Chunker struct {
	headings []HeadingMarker
	// byLength holds level indexes ordered longest marker first
	byLength []int
}

// NewChunker creates a chunker for the given heading levels.
// With no arguments DefaultHeadings is used.
func NewChunker(headings ...HeadingMarker) (*Chunker, error) {
	if len(headings) == 0 {
		headings = DefaultHeadings
	}
	seen := make(map[string]bool, len(headings))
	for _, h := range headings {
		if strings.TrimSpace(h.Marker) == "" || h.Key == "" {
			return nil, fmt.Errorf("%w: empty marker or key", ErrNoHeadings)
		}
		if seen[h.Marker] {
			return nil, fmt.Errorf("duplicate heading marker %q", h.Marker)
		}
		seen[h.Marker] = true
	}

	c := &Chunker{headings: slices.Clone(headings)}
	c.byLength = make([]int, len(headings))
	for i := range headings {
		c.byLength[i] = i
	}
	slices.SortStableFunc(c.byLength, func(a, b int) int {
		return cmp.Compare(len(headings[b].Marker), len(headings[a].Marker))
	})
	return c, nil
}

// Headings returns the configured heading levels.
func (c *Chunker) Headings() []HeadingMarker {
	return slices.Clone(c.headings)
}

// Split divides text into passages, one per heading plus any leading text.
// Each passage starts at its heading line and runs to the next heading.
// Leading text that is only whitespace is folded into the first passage.
func (c *Chunker) Split(text string) []core.Passage {
	var (
		passages []core.Passage
		buf      strings.Builder
		path     = make([]string, len(c.headings))
		current  = make([]string, len(c.headings))
		started  bool // a heading has been seen
		fence    string
	)

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		p := core.Passage{
			Content:  buf.String(),
			Metadata: c.metadata(current),
		}
		p.Id = core.EntryID(p)
		passages = append(passages, p)
		buf.Reset()
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		trimmed := strings.TrimSpace(line)

		if fence != "" {
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
			}
			buf.WriteString(line)
			continue
		}
		if f := fenceOpener(trimmed); f != "" {
			fence = f
			buf.WriteString(line)
			continue
		}

		level, title, ok := c.heading(trimmed)
		if !ok {
			buf.WriteString(line)
			continue
		}

		if started || strings.TrimSpace(buf.String()) != "" {
			flush()
		}
		started = true
		for i := level; i < len(path); i++ {
			path[i] = ""
		}
		path[level] = title
		copy(current, path)
		buf.WriteString(line)
	}

	if started || strings.TrimSpace(buf.String()) != "" {
		flush()
	}
	return passages
}

// heading reports whether a trimmed line is a heading, and at which level.
func (c *Chunker) heading(trimmed string) (int, string, bool) {
	for _, level := range c.byLength {
		marker := c.headings[level].Marker
		if trimmed == marker {
			return level, "", true
		}
		if rest, ok := strings.CutPrefix(trimmed, marker); ok && (rest[0] == ' ' || rest[0] == '\t') {
			return level, strings.TrimSpace(rest), true
		}
	}
	return 0, "", false
}

func (c *Chunker) metadata(path []string) map[string]string {
	md := make(map[string]string, len(c.headings))
	for i, h := range c.headings {
		md[h.Key] = path[i]
	}
	return md
}

func fenceOpener(trimmed string) string {
	switch {
	case strings.HasPrefix(trimmed, "```"):
		return "```"
	case strings.HasPrefix(trimmed, "~~~"):
		return "~~~"
	}
	return ""
}
