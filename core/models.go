package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"slices"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for indexed passages.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Source identifies where a passage was retrieved from.
type Source string

const (
	// SourceLocal marks passages served from the embedding index.
	SourceLocal Source = "local"
	// SourceWeb marks passages normalized from aggregator hits.
	SourceWeb Source = "web"
)

// Metric names the similarity function an index was built with.
type Metric string

const (
	// MetricCosine is cosine similarity; higher scores are closer.
	MetricCosine Metric = "cosine"
)

// Metadata keys shared by local and web passages.
const (
	MetaURL    = "url"
	MetaEngine = "engine"
	MetaTitle  = "title"
)

// Sentinels used in place of missing metadata values.
const (
	SentinelURL    = "N/A"
	SentinelEngine = "unknown"
	SentinelTitle  = "untitled"
)

// Passage is a unit of retrievable text with attached metadata.
type Passage struct {
	Id       ID
	Content  string
	Metadata map[string]string // Heading path, url, engine, title
	Source   Source            // Empty until tagged by the fusion stage
	Rank     int               // Aggregator ordinal, web passages only
	Score    float32           // Query-time similarity, local passages only
}

// Meta returns the metadata value for key, or "" if unset.
func (p *Passage) Meta(key string) string {
	if p.Metadata == nil {
		return ""
	}
	return p.Metadata[key]
}

// SetMetaDefault sets key to value only when it is not already present.
func (p *Passage) SetMetaDefault(key, value string) {
	if p.Metadata == nil {
		p.Metadata = make(map[string]string)
	}
	if _, ok := p.Metadata[key]; !ok {
		p.Metadata[key] = value
	}
}

// Clone returns a copy of the passage with its own metadata map.
func (p Passage) Clone() Passage {
	if p.Metadata != nil {
		md := make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			md[k] = v
		}
		p.Metadata = md
	}
	return p
}

// IndexEntry is the persisted form of a passage plus its embedding vector.
// Entries are created at build time and never mutated.
type IndexEntry struct {
	Id       ID
	Content  string
	Metadata map[string]string
	Vector   []float32
}

// NewIndexEntry builds an entry for a passage, deriving a content ID that
// covers both the heading path and the passage text.
func NewIndexEntry(p Passage, vector []float32) *IndexEntry {
	return &IndexEntry{
		Id:       EntryID(p),
		Content:  p.Content,
		Metadata: p.Clone().Metadata,
		Vector:   vector,
	}
}

// EntryID derives the content ID of a passage.
func EntryID(p Passage) ID {
	var b strings.Builder
	keys := make([]string, 0, len(p.Metadata))
	for k := range p.Metadata {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(p.Metadata[k])
		b.WriteByte(';')
	}
	b.WriteString(p.Content)
	return IDFromContent(b.String())
}

// Passage converts the entry back into a passage. Score is left at zero.
func (e *IndexEntry) Passage() Passage {
	md := make(map[string]string, len(e.Metadata))
	for k, v := range e.Metadata {
		md[k] = v
	}
	return Passage{
		Id:       e.Id,
		Content:  e.Content,
		Metadata: md,
	}
}

// ScoredEntry is a nearest-neighbor match from the index.
type ScoredEntry struct {
	Entry *IndexEntry
	Score float32
}

// SearchHit is a raw aggregator record before normalization.
type SearchHit struct {
	Title   string
	URL     string
	Content string
	Engine  string
	Score   float64
	Rank    int
}
