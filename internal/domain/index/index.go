package index

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/greenqa/internal/domain"
	"github.com/kailas-cloud/greenqa/internal/domain/chunk"
)

// Analyzer turns text into index terms (unigrams and bigrams).
// Implementations must be safe for concurrent use.
type Analyzer interface {
	Terms(text string) []string
}

// Options controls vocabulary fitting.
type Options struct {
	// MaxFeatures caps the vocabulary to the terms present in the most chunks.
	// Zero or negative means no cap.
	MaxFeatures int
}

// Index is a fitted TF-IDF vocabulary plus one L2-normalised sparse vector per chunk.
// An Index is never mutated after Build or Restore; rebuilding produces a new Index.
type Index struct {
	id          string
	builtAt     time.Time
	maxFeatures int
	chunks      []chunk.Chunk
	columns     map[string]int
	terms       []string
	idf         []float64
	vectors     []sparseVector
	analyzer    Analyzer
}

// sparseVector holds non-zero weights ordered by column.
type sparseVector struct {
	cols []int
	vals []float64
}

// Build fits the vocabulary and weights on chunks. It fails with domain.ErrNoChunks on an empty set.
func Build(chunks []chunk.Chunk, opts Options, an Analyzer) (*Index, error) {
	if len(chunks) == 0 {
		return nil, domain.ErrNoChunks
	}
	if an == nil {
		return nil, fmt.Errorf("analyzer is required")
	}

	perChunk := make([][]string, len(chunks))
	df := make(map[string]int)
	for i := range chunks {
		terms := an.Terms(chunks[i].Text())
		perChunk[i] = terms
		seen := make(map[string]struct{}, len(terms))
		for _, t := range terms {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	terms := selectVocabulary(df, opts.MaxFeatures)
	columns := make(map[string]int, len(terms))
	for col, t := range terms {
		columns[t] = col
	}

	n := float64(len(chunks))
	idf := make([]float64, len(terms))
	for col, t := range terms {
		idf[col] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	idx := &Index{
		id:          uuid.NewString(),
		builtAt:     time.Now().UTC(),
		maxFeatures: opts.MaxFeatures,
		chunks:      append([]chunk.Chunk(nil), chunks...),
		columns:     columns,
		terms:       terms,
		idf:         idf,
		vectors:     make([]sparseVector, len(chunks)),
		analyzer:    an,
	}
	for i, ts := range perChunk {
		idx.vectors[i] = idx.weigh(ts)
	}
	return idx, nil
}

// selectVocabulary keeps the maxFeatures terms with the highest document frequency
// (ties by term) and returns them in lexical order.
func selectVocabulary(df map[string]int, maxFeatures int) []string {
	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}

	if maxFeatures > 0 && len(terms) > maxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if df[terms[i]] != df[terms[j]] {
				return df[terms[i]] > df[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:maxFeatures]
	}

	sort.Strings(terms)
	return terms
}

// weigh converts raw terms into an L2-normalised TF-IDF vector. Unknown terms are ignored.
func (idx *Index) weigh(terms []string) sparseVector {
	counts := make(map[int]float64, len(terms))
	for _, t := range terms {
		if col, ok := idx.columns[t]; ok {
			counts[col]++
		}
	}
	if len(counts) == 0 {
		return sparseVector{}
	}

	cols := make([]int, 0, len(counts))
	for col := range counts {
		cols = append(cols, col)
	}
	sort.Ints(cols)

	vals := make([]float64, len(cols))
	var norm float64
	for i, col := range cols {
		w := counts[col] * idx.idf[col]
		vals[i] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for i := range vals {
		vals[i] /= norm
	}
	return sparseVector{cols: cols, vals: vals}
}

// dot multiplies two column-ordered sparse vectors.
func dot(a, b sparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a.cols) && j < len(b.cols) {
		switch {
		case a.cols[i] == b.cols[j]:
			sum += a.vals[i] * b.vals[j]
			i++
			j++
		case a.cols[i] < b.cols[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// ID returns the unique build identifier.
func (idx *Index) ID() string { return idx.id }

// BuiltAt returns the build time (UTC).
func (idx *Index) BuiltAt() time.Time { return idx.builtAt }

// ChunkCount returns the number of indexed chunks.
func (idx *Index) ChunkCount() int { return len(idx.chunks) }

// VocabularySize returns the number of fitted terms.
func (idx *Index) VocabularySize() int { return len(idx.terms) }

// Chunks returns a copy of the indexed chunks in document order.
func (idx *Index) Chunks() []chunk.Chunk {
	return append([]chunk.Chunk(nil), idx.chunks...)
}
