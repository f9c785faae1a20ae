package index

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/greenqa/internal/domain"
	"github.com/kailas-cloud/greenqa/internal/domain/chunk"
)

// SnapshotVersion is bumped whenever the snapshot layout changes.
// Older snapshots are rejected and the index is rebuilt.
const SnapshotVersion = 1

// Snapshot is the serialisable form of an Index.
type Snapshot struct {
	Version     int              `json:"version"`
	BuildID     string           `json:"build_id"`
	Source      string           `json:"source,omitempty"` // set by the owner; the index does not track it
	BuiltAt     time.Time        `json:"built_at"`
	MaxFeatures int              `json:"max_features"`
	Chunks      []SnapshotChunk  `json:"chunks"`
	Terms       []string         `json:"terms"`
	IDF         []float64        `json:"idf"`
	Vectors     []SnapshotVector `json:"vectors"`
}

// SnapshotChunk is a chunk position and text.
type SnapshotChunk struct {
	Start int    `json:"start"`
	Text  string `json:"text"`
}

// SnapshotVector is a sparse chunk vector.
type SnapshotVector struct {
	Cols []int     `json:"cols"`
	Vals []float64 `json:"vals"`
}

// Snapshot exports the index. The result shares no memory with the index.
func (idx *Index) Snapshot() Snapshot {
	s := Snapshot{
		Version:     SnapshotVersion,
		BuildID:     idx.id,
		BuiltAt:     idx.builtAt,
		MaxFeatures: idx.maxFeatures,
		Chunks:      make([]SnapshotChunk, len(idx.chunks)),
		Terms:       append([]string(nil), idx.terms...),
		IDF:         append([]float64(nil), idx.idf...),
		Vectors:     make([]SnapshotVector, len(idx.vectors)),
	}
	for i := range idx.chunks {
		s.Chunks[i] = SnapshotChunk{Start: idx.chunks[i].Start(), Text: idx.chunks[i].Text()}
	}
	for i, v := range idx.vectors {
		s.Vectors[i] = SnapshotVector{
			Cols: append([]int(nil), v.cols...),
			Vals: append([]float64(nil), v.vals...),
		}
	}
	return s
}

// Restore rebuilds an Index from a snapshot without refitting.
// The restored index answers every query exactly as the one that produced the snapshot.
func Restore(s *Snapshot, an Analyzer) (*Index, error) {
	if an == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSnapshotCorrupt, err)
	}

	idx := &Index{
		id:          s.BuildID,
		builtAt:     s.BuiltAt,
		maxFeatures: s.MaxFeatures,
		chunks:      make([]chunk.Chunk, len(s.Chunks)),
		columns:     make(map[string]int, len(s.Terms)),
		terms:       append([]string(nil), s.Terms...),
		idf:         append([]float64(nil), s.IDF...),
		vectors:     make([]sparseVector, len(s.Vectors)),
		analyzer:    an,
	}
	for i, c := range s.Chunks {
		idx.chunks[i] = chunk.Reconstruct(i, c.Start, c.Text)
	}
	for col, t := range idx.terms {
		idx.columns[t] = col
	}
	for i, v := range s.Vectors {
		idx.vectors[i] = sparseVector{
			cols: append([]int(nil), v.Cols...),
			vals: append([]float64(nil), v.Vals...),
		}
	}
	return idx, nil
}

func (s *Snapshot) validate() error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported version %d (want %d)", s.Version, SnapshotVersion)
	}
	if len(s.Chunks) == 0 {
		return domain.ErrNoChunks
	}
	if len(s.Terms) != len(s.IDF) {
		return fmt.Errorf("terms/idf length mismatch: %d vs %d", len(s.Terms), len(s.IDF))
	}
	if len(s.Vectors) != len(s.Chunks) {
		return fmt.Errorf("vectors/chunks length mismatch: %d vs %d", len(s.Vectors), len(s.Chunks))
	}
	seen := make(map[string]struct{}, len(s.Terms))
	for _, t := range s.Terms {
		if _, dup := seen[t]; dup {
			return fmt.Errorf("duplicate term %q", t)
		}
		seen[t] = struct{}{}
	}
	for i, v := range s.Vectors {
		if len(v.Cols) != len(v.Vals) {
			return fmt.Errorf("vector %d: cols/vals length mismatch", i)
		}
		prev := -1
		for _, col := range v.Cols {
			if col <= prev || col >= len(s.Terms) {
				return fmt.Errorf("vector %d: column %d out of order or range", i, col)
			}
			prev = col
		}
	}
	return nil
}
