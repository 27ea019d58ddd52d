package search

import (
	"sort"

	"github.com/mailsonar/mailsonar/core"
)

// Ranker scores, filters and orders a corpus against a query vector.
type Ranker struct {
	threshold float32
}

// NewRanker creates a ranker with the given similarity threshold.
func NewRanker(threshold float32) *Ranker {
	return &Ranker{threshold: threshold}
}

// Rank scores every email against the query vector, keeps those at or
// above the threshold, and returns up to topK results ordered by score
// descending. Equal scores preserve corpus order (stable sort).
//
// Two rules are load-bearing here:
//
//   - Fallback: if no email clears the threshold but the corpus is
//     non-empty, the single best-scoring email is returned anyway, so the
//     engine never looks broken for small corpora or strict thresholds.
//     The fallback fires only when the thresholded set is entirely empty;
//     clearing the threshold with fewer than topK emails is normal output.
//   - topK <= 0 is an explicit request for zero results and is honored
//     literally, bypassing the fallback. Negative values are treated as 0.
//
// vectors[i] must be the embedding of emails[i]; both are expected to be
// unit-norm (or zero, for degenerate inputs).
func (r *Ranker) Rank(queryVec []float32, emails []*core.Email, vectors [][]float32, topK int) []*core.SearchResult {
	return r.rank(queryVec, emails, vectors, topK, &noopMonitor{})
}

func (r *Ranker) rank(queryVec []float32, emails []*core.Email, vectors [][]float32, topK int, monitor SearchMonitor) []*core.SearchResult {
	if topK < 0 {
		topK = 0
	}
	if topK == 0 || len(emails) == 0 {
		return []*core.SearchResult{}
	}

	scored := make([]*core.SearchResult, len(emails))
	for i := range emails {
		scored[i] = &core.SearchResult{
			Email: emails[i],
			Score: dotProduct(queryVec, vectors[i]),
		}
	}

	kept := make([]*core.SearchResult, 0, len(scored))
	for _, s := range scored {
		if s.Score >= r.threshold {
			kept = append(kept, s)
		}
	}
	monitor.AfterThresholdFilter(len(kept), r.threshold)

	if len(kept) == 0 {
		// Strict comparison keeps the earliest email on ties, matching
		// the corpus-order tie-break of the sorted path.
		best := scored[0]
		for _, s := range scored[1:] {
			if s.Score > best.Score {
				best = s
			}
		}
		monitor.FallbackHit(best)
		return []*core.SearchResult{best}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})
	if len(kept) > topK {
		kept = kept[:topK]
	}
	return kept
}
