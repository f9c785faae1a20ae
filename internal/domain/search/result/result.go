package result

import "github.com/kailas-cloud/greenqa/internal/domain/chunk"

// Result is a single retrieval hit: a chunk and its similarity to the question.
type Result struct {
	ordinal int
	start   int
	words   int
	text    string
	score   float64
}

// New creates a search result for a chunk.
func New(c *chunk.Chunk, score float64) Result {
	return Result{
		ordinal: c.Ordinal(),
		start:   c.Start(),
		words:   c.WordCount(),
		text:    c.Text(),
		score:   score,
	}
}

// Ordinal returns the chunk position in document order.
func (r *Result) Ordinal() int { return r.ordinal }

// Start returns the word offset of the chunk in the document.
func (r *Result) Start() int { return r.start }

// WordCount returns the chunk length in words.
func (r *Result) WordCount() int { return r.words }

// Text returns the matched passage.
func (r *Result) Text() string { return r.text }

// Score returns the similarity score in [0,1].
func (r *Result) Score() float64 { return r.score }
