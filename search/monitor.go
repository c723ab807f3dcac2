package search

import (
	"github.com/poiesic/juris/core"
	"github.com/poiesic/juris/index"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterQueryEmbedding(vector []float32)
	AfterVectorSearch(hits []index.Hit)
	AfterFilter(decisions []*core.LegalDecision)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                      {}
func (n *noopMonitor) AfterQueryEmbedding(_ []float32)     {}
func (n *noopMonitor) AfterVectorSearch(_ []index.Hit)     {}
func (n *noopMonitor) AfterFilter(_ []*core.LegalDecision) {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)       {}
