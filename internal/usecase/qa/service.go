package qa

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/greenqa/internal/domain"
	"github.com/kailas-cloud/greenqa/internal/domain/chunk"
	"github.com/kailas-cloud/greenqa/internal/domain/document"
	"github.com/kailas-cloud/greenqa/internal/domain/index"
	"github.com/kailas-cloud/greenqa/internal/domain/search/mode"
	"github.com/kailas-cloud/greenqa/internal/domain/search/request"
	"github.com/kailas-cloud/greenqa/internal/domain/search/result"
	"github.com/kailas-cloud/greenqa/internal/metrics"
)

// Params configures index builds.
type Params struct {
	Chunking    chunk.Params
	MaxFeatures int
}

// State is the lifecycle state of the service.
type State string

const (
	// StateEmpty means no index has been built or restored yet.
	StateEmpty State = "empty"
	// StateBuilt means questions can be answered.
	StateBuilt State = "built"
)

// Status describes the current index.
type Status struct {
	State      State
	Source     string
	BuildID    string
	BuiltAt    time.Time
	Chunks     int
	Vocabulary int
}

// Answer is the outcome of a question. Found=false is a normal no-match, not an error.
type Answer struct {
	Found        bool
	Mode         mode.Mode
	BuildID      string
	Match        result.Result
	Simplified   string
	Alternatives []result.Result
}

// Confidence renders the match score as a percentage, e.g. "Match Quality: 42.5%".
func (a *Answer) Confidence() string {
	if !a.Found {
		return ""
	}
	return fmt.Sprintf("Match Quality: %.1f%%", a.Match.Score()*100)
}

// snapshot of everything a question needs; replaced wholesale on rebuild.
type state struct {
	idx     *index.Index
	overlap *overlapIndex
	source  string
}

func (st *state) status() Status {
	return Status{
		State:      StateBuilt,
		Source:     st.source,
		BuildID:    st.idx.ID(),
		BuiltAt:    st.idx.BuiltAt(),
		Chunks:     st.idx.ChunkCount(),
		Vocabulary: st.idx.VocabularySize(),
	}
}

// Service owns the current index. Questions read it lock-free; builds replace it atomically.
type Service struct {
	params     Params
	analyzer   Analyzer
	simplifier Simplifier
	snapshots  SnapshotRepository
	logger     *zap.Logger

	current atomic.Pointer[state]
	// buildMu serialises writers so the last finished build is also the persisted one.
	buildMu sync.Mutex
}

// New creates a Service in the EMPTY state. snapshots can be nil (no persistence).
func New(
	params Params,
	analyzer Analyzer,
	simplifier Simplifier,
	snapshots SnapshotRepository,
	logger *zap.Logger,
) (*Service, error) {
	if err := params.Chunking.Validate(); err != nil {
		return nil, fmt.Errorf("chunking: %w", err)
	}
	if analyzer == nil || simplifier == nil {
		return nil, fmt.Errorf("analyzer and simplifier are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		params:     params,
		analyzer:   analyzer,
		simplifier: simplifier,
		snapshots:  snapshots,
		logger:     logger,
	}, nil
}

// Process chunks and indexes a document, then makes it the current index.
// On failure the previous index (if any) stays in place.
func (s *Service) Process(ctx context.Context, doc document.Document) (Status, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	start := time.Now()
	st, err := s.build(doc)
	if err != nil {
		metrics.IndexBuildsTotal.WithLabelValues("error").Inc()
		s.logger.Warn("Index build failed", zap.String("source", doc.Source()), zap.Error(err))
		return Status{}, err
	}
	elapsed := time.Since(start)

	s.swap(st)
	metrics.IndexBuildsTotal.WithLabelValues("ok").Inc()
	metrics.IndexBuildDuration.Observe(elapsed.Seconds())

	status := st.status()
	s.logger.Info("Index built",
		zap.String("source", status.Source),
		zap.String("build_id", status.BuildID),
		zap.String("checksum", doc.Checksum()),
		zap.Int("chunks", status.Chunks),
		zap.Int("vocabulary", status.Vocabulary),
		zap.Duration("duration", elapsed),
	)

	s.persist(ctx, st)
	return status, nil
}

// ProcessFile reads a UTF-8 text file and processes it.
// An unreadable file yields domain.ErrUnreadable and leaves the current index untouched.
func (s *Service) ProcessFile(ctx context.Context, path string) (Status, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Status{}, domain.NewUnreadable(path, err)
	}
	if info.Size() > document.MaxContentSize {
		return Status{}, domain.NewUnreadable(path, fmt.Errorf("file too large: %d bytes", info.Size()))
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Status{}, domain.NewUnreadable(path, err)
	}
	doc, err := document.New(path, raw)
	if err != nil {
		return Status{}, fmt.Errorf("load document: %w", err)
	}
	return s.Process(ctx, doc)
}

// Ask answers a question against the current index.
// Before any build it returns domain.ErrNotReady.
func (s *Service) Ask(_ context.Context, req *request.Request) (Answer, error) {
	st := s.current.Load()
	if st == nil {
		metrics.QuestionsTotal.WithLabelValues(string(req.Mode()), "not_ready").Inc()
		return Answer{}, domain.ErrNotReady
	}

	var (
		match  result.Result
		ok     bool
		ranked []result.Result
	)
	want := req.Alternatives() + 1

	switch req.Mode() {
	case mode.TFIDF:
		match, ok = st.idx.Query(req.Question(), req.Threshold())
		if ok && req.Alternatives() > 0 {
			ranked = st.idx.Rank(req.Question(), want)
		}
	case mode.Overlap:
		words := s.analyzer.Words(req.Question())
		match, ok = st.overlap.query(words, req.Threshold())
		if ok && req.Alternatives() > 0 {
			ranked = st.overlap.rank(words, want)
		}
	default:
		return Answer{}, fmt.Errorf("%w: unsupported retrieval mode %q", domain.ErrInvalidRequest, req.Mode())
	}

	answer := Answer{Mode: req.Mode(), BuildID: st.idx.ID()}
	if !ok {
		metrics.QuestionsTotal.WithLabelValues(string(req.Mode()), "no_match").Inc()
		return answer, nil
	}

	answer.Found = true
	answer.Match = match
	answer.Simplified = s.simplifier.Simplify(match.Text())
	answer.Alternatives = runnersUp(ranked, req.Threshold())

	metrics.QuestionsTotal.WithLabelValues(string(req.Mode()), "answered").Inc()
	metrics.AnswerScore.WithLabelValues(string(req.Mode())).Observe(match.Score())
	return answer, nil
}

// runnersUp drops the best hit (ranked[0] is the answer itself) and anything at or below threshold.
func runnersUp(ranked []result.Result, threshold float64) []result.Result {
	if len(ranked) < 2 {
		return nil
	}
	out := make([]result.Result, 0, len(ranked)-1)
	for _, r := range ranked[1:] {
		if r.Score() > threshold {
			out = append(out, r)
		}
	}
	return out
}

// Reset returns to EMPTY and deletes the persisted snapshot.
func (s *Service) Reset(ctx context.Context) error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	s.current.Store(nil)
	metrics.IndexChunks.Set(0)
	metrics.IndexVocabulary.Set(0)
	s.logger.Info("Index reset")

	if s.snapshots == nil {
		return nil
	}
	// The in-memory reset already happened; a departed caller must not leave the snapshot behind.
	if err := s.snapshots.Delete(context.WithoutCancel(ctx)); err != nil {
		metrics.SnapshotOpsTotal.WithLabelValues("delete", "error").Inc()
		return fmt.Errorf("delete snapshot: %w", err)
	}
	metrics.SnapshotOpsTotal.WithLabelValues("delete", "ok").Inc()
	return nil
}

// Restore loads the persisted snapshot, if any.
// A missing or corrupt snapshot leaves the service EMPTY and is not an error;
// only storage failures are returned.
func (s *Service) Restore(ctx context.Context) (bool, error) {
	if s.snapshots == nil {
		return false, nil
	}

	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	snap, err := s.snapshots.Load(ctx)
	switch {
	case errors.Is(err, domain.ErrSnapshotNotFound):
		metrics.SnapshotOpsTotal.WithLabelValues("load", "miss").Inc()
		return false, nil
	case errors.Is(err, domain.ErrSnapshotCorrupt):
		metrics.SnapshotOpsTotal.WithLabelValues("load", "corrupt").Inc()
		s.logger.Warn("Ignoring corrupt index snapshot", zap.Error(err))
		return false, nil
	case err != nil:
		metrics.SnapshotOpsTotal.WithLabelValues("load", "error").Inc()
		return false, fmt.Errorf("load snapshot: %w", err)
	}

	idx, err := index.Restore(snap, s.analyzer)
	if err != nil {
		metrics.SnapshotOpsTotal.WithLabelValues("load", "corrupt").Inc()
		s.logger.Warn("Ignoring invalid index snapshot", zap.Error(err))
		return false, nil
	}

	st := &state{
		idx:     idx,
		overlap: newOverlapIndex(idx.Chunks(), s.analyzer),
		source:  snap.Source,
	}
	s.swap(st)
	metrics.SnapshotOpsTotal.WithLabelValues("load", "ok").Inc()
	s.logger.Info("Index restored from snapshot",
		zap.String("source", st.source),
		zap.String("build_id", idx.ID()),
		zap.Int("chunks", idx.ChunkCount()),
	)
	return true, nil
}

// Status reports the current state.
func (s *Service) Status() Status {
	st := s.current.Load()
	if st == nil {
		return Status{State: StateEmpty}
	}
	return st.status()
}

// Ready reports whether questions can be answered.
func (s *Service) Ready() bool {
	return s.current.Load() != nil
}

func (s *Service) build(doc document.Document) (*state, error) {
	chunks, err := chunk.Split(doc.Content(), s.params.Chunking)
	if err != nil {
		return nil, fmt.Errorf("chunk document: %w", err)
	}
	idx, err := index.Build(chunks, index.Options{MaxFeatures: s.params.MaxFeatures}, s.analyzer)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	return &state{
		idx:     idx,
		overlap: newOverlapIndex(idx.Chunks(), s.analyzer),
		source:  doc.Source(),
	}, nil
}

func (s *Service) swap(st *state) {
	s.current.Store(st)
	metrics.IndexChunks.Set(float64(st.idx.ChunkCount()))
	metrics.IndexVocabulary.Set(float64(st.idx.VocabularySize()))
}

// persist saves the snapshot. Failures are logged; the in-memory index is already live.
// The save outlives the caller's cancellation so the snapshot tracks the swapped index.
func (s *Service) persist(ctx context.Context, st *state) {
	if s.snapshots == nil {
		return
	}
	snap := st.idx.Snapshot()
	snap.Source = st.source
	if err := s.snapshots.Save(context.WithoutCancel(ctx), &snap); err != nil {
		metrics.SnapshotOpsTotal.WithLabelValues("save", "error").Inc()
		s.logger.Warn("Failed to save index snapshot",
			zap.String("build_id", st.idx.ID()), zap.Error(err))
		return
	}
	metrics.SnapshotOpsTotal.WithLabelValues("save", "ok").Inc()
}
