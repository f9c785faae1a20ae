package qa

import (
	"slices"

	"github.com/kailas-cloud/greenqa/internal/domain/chunk"
	"github.com/kailas-cloud/greenqa/internal/domain/search/result"
)

// overlapIndex scores chunks by the share of distinct question words they contain.
// It is the plain word-lookup strategy kept next to TF-IDF for comparison.
type overlapIndex struct {
	chunks []chunk.Chunk
	words  []map[string]struct{}
}

func newOverlapIndex(chunks []chunk.Chunk, an Analyzer) *overlapIndex {
	o := &overlapIndex{chunks: chunks, words: make([]map[string]struct{}, len(chunks))}
	for i := range chunks {
		set := make(map[string]struct{})
		for _, w := range an.Words(chunks[i].Text()) {
			set[w] = struct{}{}
		}
		o.words[i] = set
	}
	return o
}

// query returns the first chunk with the highest overlap, if it beats threshold.
func (o *overlapIndex) query(question []string, threshold float64) (result.Result, bool) {
	terms := distinct(question)
	if len(terms) == 0 {
		return result.Result{}, false
	}
	best, bestScore := -1, 0.0
	for i := range o.chunks {
		if s := o.score(terms, i); s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 || bestScore <= threshold {
		return result.Result{}, false
	}
	return result.New(&o.chunks[best], bestScore), true
}

// rank returns up to limit chunks with positive overlap, best first, ties in document order.
func (o *overlapIndex) rank(question []string, limit int) []result.Result {
	terms := distinct(question)
	if len(terms) == 0 || limit <= 0 {
		return nil
	}
	var hits []result.Result
	for i := range o.chunks {
		if s := o.score(terms, i); s > 0 {
			hits = append(hits, result.New(&o.chunks[i], s))
		}
	}
	slices.SortStableFunc(hits, func(a, b result.Result) int {
		switch {
		case a.Score() > b.Score():
			return -1
		case a.Score() < b.Score():
			return 1
		}
		return 0
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func (o *overlapIndex) score(terms []string, i int) float64 {
	matched := 0
	for _, t := range terms {
		if _, ok := o.words[i][t]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

func distinct(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
