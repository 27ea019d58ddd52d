package search

import "github.com/mailsonar/mailsonar/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterQueryEmbedding(vector []float32)
	AfterCorpusEmbedding(count int)
	AfterThresholdFilter(kept int, threshold float32)
	FallbackHit(result *core.SearchResult)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                        {}
func (n *noopMonitor) AfterQueryEmbedding(_ []float32)       {}
func (n *noopMonitor) AfterCorpusEmbedding(_ int)            {}
func (n *noopMonitor) AfterThresholdFilter(_ int, _ float32) {}
func (n *noopMonitor) FallbackHit(_ *core.SearchResult)      {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)         {}
