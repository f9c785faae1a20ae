package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/greenqa/internal/domain"
	"github.com/kailas-cloud/greenqa/internal/domain/search/mode"
)

// Question parameter limits.
const (
	// MaxQuestionLength is the maximum allowed question length in bytes.
	MaxQuestionLength = 4096
	MaxAlternatives   = 10
)

// Request is a validated question.
type Request struct {
	question     string
	searchMode   mode.Mode
	threshold    float64
	alternatives int
}

// New validates and normalizes question parameters.
// Defaults: mode=tfidf. Alternatives are clamped to [0, MaxAlternatives].
func New(question string, m mode.Mode, threshold float64, alternatives int) (Request, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Request{}, fmt.Errorf("%w: question is required", domain.ErrInvalidRequest)
	}
	if len(question) > MaxQuestionLength {
		return Request{}, fmt.Errorf("%w: question too long (max %d chars)", domain.ErrInvalidRequest, MaxQuestionLength)
	}
	if m == "" {
		m = mode.TFIDF
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("%w: invalid retrieval mode: %q", domain.ErrInvalidRequest, m)
	}
	if threshold < 0 || threshold >= 1 {
		return Request{}, fmt.Errorf("%w: threshold must be in [0, 1)", domain.ErrInvalidRequest)
	}
	alternatives = max(alternatives, 0)
	alternatives = min(alternatives, MaxAlternatives)

	return Request{
		question:     question,
		searchMode:   m,
		threshold:    threshold,
		alternatives: alternatives,
	}, nil
}

// Question returns the trimmed question text.
func (r *Request) Question() string { return r.question }

// Mode returns the retrieval strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Threshold returns the exclusive minimum score for a match.
func (r *Request) Threshold() float64 { return r.threshold }

// Alternatives returns how many runner-up passages to include.
func (r *Request) Alternatives() int { return r.alternatives }
