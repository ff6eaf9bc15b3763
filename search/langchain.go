package search

import (
	"context"

	"github.com/poiesic/hybridrag/core"
	"github.com/tmc/langchaingo/schema"
)

// Metadata keys added to langchain documents.
const (
	DocMetaSource = "source"
	DocMetaRank   = "rank"
)

// LangchainRetriever exposes a Retriever as a langchaingo schema.Retriever so
// chains built on langchaingo can consume fused passages directly.
type LangchainRetriever struct {
	retriever Retriever
}

var _ schema.Retriever = (*LangchainRetriever)(nil)

// NewLangchainRetriever wraps r.
func NewLangchainRetriever(r Retriever) *LangchainRetriever {
	return &LangchainRetriever{retriever: r}
}

// GetRelevantDocuments retrieves passages for query and converts them to documents.
func (l *LangchainRetriever) GetRelevantDocuments(ctx context.Context, query string) ([]schema.Document, error) {
	passages, err := l.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}
	docs := make([]schema.Document, len(passages))
	for i, p := range passages {
		docs[i] = ToDocument(p)
	}
	return docs, nil
}

// ToDocument converts a passage into a langchaingo document.
func ToDocument(p core.Passage) schema.Document {
	md := make(map[string]any, len(p.Metadata)+2)
	for k, v := range p.Metadata {
		md[k] = v
	}
	md[DocMetaSource] = string(p.Source)
	if p.Source == core.SourceWeb {
		md[DocMetaRank] = p.Rank
	}
	return schema.Document{
		PageContent: p.Content,
		Metadata:    md,
		Score:       p.Score,
	}
}
