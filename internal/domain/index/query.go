package index

import (
	"sort"

	"github.com/kailas-cloud/greenqa/internal/domain/search/result"
)

// Query returns the chunk most similar to question, or false if the best
// cosine similarity is <= threshold. Ties go to the earliest chunk.
func (idx *Index) Query(question string, threshold float64) (result.Result, bool) {
	q := idx.weigh(idx.analyzer.Terms(question))
	if len(q.cols) == 0 {
		return result.Result{}, false
	}

	best, bestScore := -1, 0.0
	for i := range idx.vectors {
		s := dot(q, idx.vectors[i])
		if best < 0 || s > bestScore {
			best, bestScore = i, s
		}
	}

	bestScore = clamp01(bestScore)
	if bestScore <= threshold {
		return result.Result{}, false
	}
	return result.New(&idx.chunks[best], bestScore), true
}

// Rank returns up to limit chunks with a positive similarity, best first.
// Equal scores keep document order.
func (idx *Index) Rank(question string, limit int) []result.Result {
	q := idx.weigh(idx.analyzer.Terms(question))
	if len(q.cols) == 0 || limit <= 0 {
		return nil
	}

	type scored struct {
		pos   int
		score float64
	}
	hits := make([]scored, 0, len(idx.vectors))
	for i := range idx.vectors {
		if s := clamp01(dot(q, idx.vectors[i])); s > 0 {
			hits = append(hits, scored{pos: i, score: s})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	results := make([]result.Result, len(hits))
	for i, h := range hits {
		results[i] = result.New(&idx.chunks[h.pos], h.score)
	}
	return results
}

// clamp01 absorbs floating point drift around the [0,1] cosine range of non-negative vectors.
func clamp01(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
