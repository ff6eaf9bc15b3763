package search

import (
	"github.com/poiesic/hybridrag/core"
	"github.com/poiesic/hybridrag/websearch"
)

// RetrievalMonitor provides hooks to observe the retrieval process.
// Hooks are called sequentially from the retrieving goroutine.
type RetrievalMonitor interface {
	Start(query string, mode Mode)
	AfterLocalSearch(passages []core.Passage)
	AfterWebSearch(outcome websearch.Outcome, passages []core.Passage)
	AfterRanking(ranked []core.Passage)
	DuplicatesDropped(dropped []core.Passage)
	Finish(results []core.Passage)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ Mode)                                {}
func (n *noopMonitor) AfterLocalSearch(_ []core.Passage)                     {}
func (n *noopMonitor) AfterWebSearch(_ websearch.Outcome, _ []core.Passage) {}
func (n *noopMonitor) AfterRanking(_ []core.Passage)                         {}
func (n *noopMonitor) DuplicatesDropped(_ []core.Passage)                    {}
func (n *noopMonitor) Finish(_ []core.Passage)                               {}
