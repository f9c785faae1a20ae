package chunk

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/greenqa/internal/domain"
)

// Params controls how a document is cut into word windows.
type Params struct {
	Size     int // words per window
	Overlap  int // words shared by consecutive windows, must be < Size
	MinWords int // windows with <= MinWords words are dropped
}

// Validate rejects parameters that would stall or reverse the window stride.
func (p Params) Validate() error {
	if p.Size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", domain.ErrInvalidChunking, p.Size)
	}
	if p.Overlap < 0 {
		return fmt.Errorf("%w: overlap must not be negative, got %d", domain.ErrInvalidChunking, p.Overlap)
	}
	if p.Overlap >= p.Size {
		return fmt.Errorf("%w: overlap (%d) must be less than size (%d)",
			domain.ErrInvalidChunking, p.Overlap, p.Size)
	}
	if p.MinWords < 0 {
		return fmt.Errorf("%w: min_words must not be negative, got %d", domain.ErrInvalidChunking, p.MinWords)
	}
	return nil
}

// Stride returns the word distance between consecutive window starts.
func (p Params) Stride() int { return p.Size - p.Overlap }

// Chunk is one word window of a document (immutable value object).
type Chunk struct {
	ordinal int
	start   int
	words   []string
	text    string
}

// Reconstruct creates a Chunk without splitting (snapshot hydration).
func Reconstruct(ordinal, start int, text string) Chunk {
	return Chunk{ordinal: ordinal, start: start, words: strings.Fields(text), text: text}
}

// Ordinal returns the chunk position in document order.
func (c *Chunk) Ordinal() int { return c.ordinal }

// Start returns the offset of the first word in the document.
func (c *Chunk) Start() int { return c.start }

// WordCount returns the number of words in the chunk.
func (c *Chunk) WordCount() int { return len(c.words) }

// End returns the offset one past the last word in the document.
func (c *Chunk) End() int { return c.start + len(c.words) }

// Words returns a copy of the chunk words.
func (c *Chunk) Words() []string {
	out := make([]string, len(c.words))
	copy(out, c.words)
	return out
}

// Text returns the chunk words joined by single spaces.
func (c *Chunk) Text() string { return c.text }

// Split cuts text into overlapping windows of p.Size words.
// Windows start at 0, stride, 2*stride, ... while the start is inside the text.
// Empty text yields an empty, non-nil slice.
func Split(text string, p Params) ([]Chunk, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	words := strings.Fields(text)
	chunks := make([]Chunk, 0, len(words)/p.Stride()+1)

	for start := 0; start < len(words); start += p.Stride() {
		end := min(start+p.Size, len(words))
		if end-start <= p.MinWords {
			continue
		}
		window := words[start:end:end]
		chunks = append(chunks, Chunk{
			ordinal: len(chunks),
			start:   start,
			words:   window,
			text:    strings.Join(window, " "),
		})
	}

	return chunks, nil
}
