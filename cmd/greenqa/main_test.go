package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kailas-cloud/greenqa/internal/domain"
)

// execute runs the root command with fresh flag state and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, c := range rootCmd.Commands() {
		resetFlags(c)
	}
	processSample = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append([]string{"--env", "local"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

// isolate points the local config at a throwaway bolt file and no document.
func isolate(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "greenqa.db")
	t.Setenv("DB_DRIVER", "bolt")
	t.Setenv("DB_PATH", dbPath)
	t.Setenv("DOCUMENT_PATH", "")
	return dbPath
}

func TestRootCmd_Subcommands(t *testing.T) {
	want := map[string]bool{"serve": false, "process": false, "ask": false, "version": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
		if c.Short == "" {
			t.Errorf("%s: missing Short description", c.Name())
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "greenqa dev") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestProcessCmd_RequiresExactlyOneSource(t *testing.T) {
	isolate(t)
	if _, err := execute(t, "process"); err == nil {
		t.Error("expected error without a source")
	}
	if _, err := execute(t, "process", "--sample", "facts.txt"); err == nil {
		t.Error("expected error with both sources")
	}
}

func TestProcessCmd_File(t *testing.T) {
	dbPath := isolate(t)
	path := filepath.Join(t.TempDir(), "facts.txt")
	text := strings.Repeat("Solar panels make clean power from sunlight every day. ", 6)
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "process", path)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !strings.Contains(out, "Indexed "+path) || !strings.Contains(out, "chunks:     1") {
		t.Errorf("unexpected output %q", out)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("snapshot store not created: %v", err)
	}
}

func TestProcessCmd_TooShortDocument(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "short.txt")
	if err := os.WriteFile(path, []byte("Too short to chunk."), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := execute(t, "process", path)
	if !errors.Is(err, domain.ErrNoChunks) {
		t.Errorf("expected ErrNoChunks, got %v", err)
	}
}

func TestProcessCmd_MissingFile(t *testing.T) {
	isolate(t)
	_, err := execute(t, "process", filepath.Join(t.TempDir(), "missing.txt"))
	if !errors.Is(err, domain.ErrUnreadable) {
		t.Errorf("expected ErrUnreadable, got %v", err)
	}
}

func TestAskCmd_UsesSample(t *testing.T) {
	isolate(t)
	out, err := execute(t, "ask", "What", "is", "climate", "change?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !strings.Contains(out, "Match Quality: ") || !strings.Contains(out, "Source passage:") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestAskCmd_NoMatch(t *testing.T) {
	isolate(t)
	out, err := execute(t, "ask", "zzzz qqqq xxyyzz")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if strings.TrimSpace(out) != noAnswerMessage {
		t.Errorf("unexpected output %q", out)
	}
}

func TestAskCmd_RestoresProcessedSnapshot(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "facts.txt")
	text := strings.Repeat("Composting turns food scraps into rich soil for school gardens. ", 5)
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "process", path); err != nil {
		t.Fatalf("process: %v", err)
	}

	out, err := execute(t, "ask", "What does composting do?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !strings.Contains(out, "Composting turns food scraps") {
		t.Errorf("answer should come from the processed document, got %q", out)
	}
}

func TestAskCmd_InvalidMode(t *testing.T) {
	isolate(t)
	_, err := execute(t, "ask", "--mode", "semantic", "What is climate change?")
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}
