package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/greenqa/internal/domain"
)

func TestNew_Valid(t *testing.T) {
	doc, err := New("facts.txt", []byte("Solar panels convert sunlight into electricity."))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Source() != "facts.txt" {
		t.Errorf("Source() = %q", doc.Source())
	}
	if doc.Content() != "Solar panels convert sunlight into electricity." {
		t.Errorf("Content() = %q", doc.Content())
	}
	if len(doc.Checksum()) != 64 {
		t.Errorf("Checksum() = %q, want 64 hex chars", doc.Checksum())
	}
}

func TestNew_ChecksumStable(t *testing.T) {
	a, _ := New("a", []byte("same text"))
	b, _ := New("b", []byte("same text"))
	c, _ := New("c", []byte("other text"))

	if a.Checksum() != b.Checksum() {
		t.Error("equal content should give equal checksums")
	}
	if a.Checksum() == c.Checksum() {
		t.Error("different content should give different checksums")
	}
}

func TestNew_EmptySource(t *testing.T) {
	_, err := New("", []byte("content"))
	if err == nil {
		t.Fatal("expected error for empty source")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("error = %q", err)
	}
}

func TestNew_EmptyContentIsUnreadable(t *testing.T) {
	for _, raw := range []string{"", "   \n\t  "} {
		_, err := New("doc", []byte(raw))
		if !errors.Is(err, domain.ErrUnreadable) {
			t.Errorf("New(%q) err = %v, want ErrUnreadable", raw, err)
		}
	}
}

func TestNew_DropsInvalidUTF8(t *testing.T) {
	raw := []byte("wind \xff\xfepower")
	doc, err := New("doc", raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Content() != "wind power" {
		t.Errorf("Content() = %q, want %q", doc.Content(), "wind power")
	}
}

func TestNew_ContentTooLarge(t *testing.T) {
	_, err := New("doc", []byte(strings.Repeat("x", MaxContentSize+1)))
	if err == nil {
		t.Fatal("expected error for content too large")
	}
	if !strings.Contains(err.Error(), "too large") {
		t.Errorf("error = %q", err)
	}
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestNew_ContentAtMaxSize(t *testing.T) {
	_, err := New("doc", []byte(strings.Repeat("x", MaxContentSize)))
	if err != nil {
		t.Fatalf("unexpected error for content at max size: %v", err)
	}
}
