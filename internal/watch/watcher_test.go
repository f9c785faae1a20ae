package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"
)

const (
	testDebounce = 50 * time.Millisecond
	waitTimeout  = 5 * time.Second
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// recorder counts rebuilds and signals each one.
type recorder struct {
	calls atomic.Int32
	err   error
	done  chan string
}

func newRecorder() *recorder {
	return &recorder{done: make(chan string, 16)}
}

func (r *recorder) rebuild(_ context.Context, path string) error {
	r.calls.Add(1)
	r.done <- path
	return r.err
}

func (r *recorder) wait(t *testing.T) string {
	t.Helper()
	select {
	case p := <-r.done:
		return p
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for rebuild")
		return ""
	}
}

// eventually polls cond until it holds; stats are updated after the rebuild func returns.
func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before timeout")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func startWatcher(t *testing.T, path string, debounce time.Duration, fn RebuildFunc) *Watcher {
	t.Helper()
	w, err := New(path, debounce, fn, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return w
}

func TestWatcher_RebuildsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "facts.txt")
	writeFile(t, path, "first version")

	rec := newRecorder()
	w := startWatcher(t, path, testDebounce, rec.rebuild)
	defer w.Stop()

	writeFile(t, path, "second version")

	if got := rec.wait(t); got != w.Path() {
		t.Errorf("rebuild path: got %q, want %q", got, w.Path())
	}
	eventually(t, func() bool { return w.Stats().Rebuilds >= 1 })
	stats := w.Stats()
	if stats.Events == 0 || stats.LastRebuild.IsZero() || stats.LastError != "" {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestWatcher_RebuildsOnCreate(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "facts.txt")
	rec := newRecorder()
	w := startWatcher(t, path, testDebounce, rec.rebuild)
	defer w.Stop()

	writeFile(t, path, "new file")
	rec.wait(t)
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "facts.txt")
	writeFile(t, path, "v0")

	rec := newRecorder()
	w := startWatcher(t, path, 300*time.Millisecond, rec.rebuild)
	defer w.Stop()

	for i := range 5 {
		writeFile(t, path, "version "+string(rune('a'+i)))
	}
	rec.wait(t)

	// A second rebuild would need another event after the debounce window.
	time.Sleep(600 * time.Millisecond)
	if n := rec.calls.Load(); n != 1 {
		t.Errorf("expected a single rebuild for a burst, got %d", n)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "facts.txt")
	writeFile(t, path, "v0")

	rec := newRecorder()
	w := startWatcher(t, path, testDebounce, rec.rebuild)
	defer w.Stop()

	writeFile(t, filepath.Join(dir, "other.txt"), "unrelated")
	time.Sleep(10 * testDebounce)

	if n := rec.calls.Load(); n != 0 {
		t.Errorf("expected no rebuilds, got %d", n)
	}
	if w.Stats().Events != 0 {
		t.Errorf("unrelated file counted as event: %+v", w.Stats())
	}
}

func TestWatcher_FailureKeepsWatching(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "facts.txt")
	writeFile(t, path, "v0")

	rec := newRecorder()
	rec.err = errors.New("document unreadable")
	w := startWatcher(t, path, testDebounce, rec.rebuild)
	defer w.Stop()

	writeFile(t, path, "v1")
	rec.wait(t)
	eventually(t, func() bool { return w.Stats().Failures == 1 })

	writeFile(t, path, "v2")
	rec.wait(t)
	eventually(t, func() bool { return w.Stats().Failures == 2 })

	stats := w.Stats()
	if stats.Rebuilds != 0 || stats.LastError != "document unreadable" {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "facts.txt")
	w := startWatcher(t, path, testDebounce, newRecorder().rebuild)
	w.Stop()
	w.Stop()

	if err := w.Start(context.Background()); err == nil {
		t.Error("expected error starting a stopped watcher")
	}
}

func TestWatcher_StopsOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "facts.txt")
	w, err := New(path, testDebounce, newRecorder().rebuild, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()

	select {
	case <-w.doneCh:
	case <-time.After(waitTimeout):
		t.Fatal("event loop did not exit on cancel")
	}
	w.Stop()
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := New(filepath.Join(t.TempDir(), "facts.txt"), 0, newRecorder().rebuild, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if w.debounce != 500*time.Millisecond {
		t.Errorf("default debounce: got %v", w.debounce)
	}
	w.Stop()
}

func TestNew_Validation(t *testing.T) {
	if _, err := New("", time.Second, newRecorder().rebuild, nil); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := New("facts.txt", time.Second, nil, nil); err == nil {
		t.Error("expected error for nil rebuild func")
	}
}

func TestStart_MissingDirectory(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := New(filepath.Join(t.TempDir(), "missing", "facts.txt"), testDebounce, newRecorder().rebuild, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Stop()

	if err := w.Start(context.Background()); err == nil {
		t.Error("expected error watching a missing directory")
	}
}
