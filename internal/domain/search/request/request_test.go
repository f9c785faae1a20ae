package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/greenqa/internal/domain"
	"github.com/kailas-cloud/greenqa/internal/domain/search/mode"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New("  What is climate change?  ", "", 0.05, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Question() != "What is climate change?" {
		t.Errorf("Question() = %q", r.Question())
	}
	if r.Mode() != mode.TFIDF {
		t.Errorf("Mode() = %q, want tfidf (default)", r.Mode())
	}
	if r.Threshold() != 0.05 {
		t.Errorf("Threshold() = %f", r.Threshold())
	}
	if r.Alternatives() != 0 {
		t.Errorf("Alternatives() = %d", r.Alternatives())
	}
}

func TestNew_ExplicitValues(t *testing.T) {
	r, err := New("solar", mode.Overlap, 0.1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Mode() != mode.Overlap {
		t.Errorf("Mode() = %q", r.Mode())
	}
	if r.Threshold() != 0.1 {
		t.Errorf("Threshold() = %f", r.Threshold())
	}
	if r.Alternatives() != 3 {
		t.Errorf("Alternatives() = %d", r.Alternatives())
	}
}

func TestNew_ClampsAlternatives(t *testing.T) {
	r, _ := New("solar", "", 0, MaxAlternatives+5)
	if r.Alternatives() != MaxAlternatives {
		t.Errorf("Alternatives() = %d, want %d", r.Alternatives(), MaxAlternatives)
	}
	r, _ = New("solar", "", 0, -2)
	if r.Alternatives() != 0 {
		t.Errorf("Alternatives() = %d, want 0", r.Alternatives())
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		question  string
		mode      mode.Mode
		threshold float64
		wantErr   string
	}{
		{"empty", "", "", 0.05, "required"},
		{"blank", "   ", "", 0.05, "required"},
		{"too long", strings.Repeat("a", MaxQuestionLength+1), "", 0.05, "too long"},
		{"mode", "solar", "semantic", 0.05, "invalid retrieval mode"},
		{"negative threshold", "solar", "", -0.1, "threshold"},
		{"threshold one", "solar", "", 1, "threshold"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.question, tc.mode, tc.threshold, 0)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, domain.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tc.wantErr)
			}
		})
	}
}
