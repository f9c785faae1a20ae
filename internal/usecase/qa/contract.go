package qa

import (
	"context"

	"github.com/kailas-cloud/greenqa/internal/domain/index"
)

// Analyzer turns text into index terms and content words.
type Analyzer interface {
	Terms(text string) []string
	Words(text string) []string
}

// Simplifier rewrites a passage into plain language.
type Simplifier interface {
	Simplify(passage string) string
}

// SnapshotRepository persists the current index between restarts.
type SnapshotRepository interface {
	Save(ctx context.Context, s *index.Snapshot) error
	Load(ctx context.Context) (*index.Snapshot, error)
	Delete(ctx context.Context) error
}
