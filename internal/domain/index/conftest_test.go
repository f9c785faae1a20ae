package index

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/greenqa/internal/domain/chunk"
)

// wordAnalyzer lowercases and splits on whitespace; no stop words, no bigrams.
type wordAnalyzer struct{}

func (wordAnalyzer) Terms(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// chunksOf turns each passage into one chunk, in order.
func chunksOf(t *testing.T, passages ...string) []chunk.Chunk {
	t.Helper()
	out := make([]chunk.Chunk, 0, len(passages))
	start := 0
	for i, p := range passages {
		c := chunk.Reconstruct(i, start, p)
		start += c.WordCount()
		out = append(out, c)
	}
	return out
}

func mustBuild(t *testing.T, chunks []chunk.Chunk, opts Options) *Index {
	t.Helper()
	idx, err := Build(chunks, opts, wordAnalyzer{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return idx
}
