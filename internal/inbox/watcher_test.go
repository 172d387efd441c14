package inbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/journalservice"
	"github.com/starford/daybook/internal/testutil"
)

// fakeImporter records every import and fails documents equal to "bad".
type fakeImporter struct {
	mu    sync.Mutex
	names []string
}

func (f *fakeImporter) Import(_ context.Context, filename string, doc []byte) (*journalservice.ImportSummary, error) {
	f.mu.Lock()
	f.names = append(f.names, filename)
	f.mu.Unlock()
	if string(doc) == "bad" {
		return nil, apperr.ErrInvalidDocument
	}
	return &journalservice.ImportSummary{Source: filename, Notes: 1}, nil
}

func (f *fakeImporter) imported() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.names...)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestScanMovesProcessedFiles(t *testing.T) {
	root, dir := testutil.TestDir(t)
	_ = os.WriteFile(filepath.Join(root, "good.md"), []byte("## 2024-01-15"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "broken.txt"), []byte("bad"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "photo.png"), []byte("x"), 0o644)

	imp := &fakeImporter{}
	var results []Result
	w := New(imp, dir, testutil.Logger(), WithResultFunc(func(r Result) { results = append(results, r) }))

	if err := w.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %+v, want 2", results)
	}
	if !exists(filepath.Join(root, ImportedDir, "good.md")) {
		t.Error("good.md not moved to imported/")
	}
	if !exists(filepath.Join(root, FailedDir, "broken.txt")) {
		t.Error("broken.txt not moved to failed/")
	}
	if !exists(filepath.Join(root, "photo.png")) {
		t.Error("non-journal file should stay in place")
	}
	for _, r := range results {
		if r.Path == "broken.txt" && !errors.Is(r.Err, apperr.ErrInvalidDocument) {
			t.Errorf("broken.txt err = %v", r.Err)
		}
	}

	// A second scan finds nothing new.
	if err := w.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if got := imp.imported(); len(got) != 2 {
		t.Errorf("imported %v, want 2 files", got)
	}
}

func TestRunImportsNewFile(t *testing.T) {
	root, dir := testutil.TestDir(t)
	_ = os.WriteFile(filepath.Join(root, "early.md"), []byte("early"), 0o644)

	imp := &fakeImporter{}
	w := New(imp, dir, testutil.Logger(), WithDebounce(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return exists(filepath.Join(root, ImportedDir, "early.md"))
	}, "pre-existing file not imported")

	_ = os.WriteFile(filepath.Join(root, "late.markdown"), []byte("late"), 0o644)
	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return exists(filepath.Join(root, ImportedDir, "late.markdown"))
	}, "new file not imported by watcher")

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run: %v", err)
	}

	seen := map[string]int{}
	for _, n := range imp.imported() {
		seen[n]++
	}
	if seen["early.md"] != 1 || seen["late.markdown"] != 1 {
		t.Errorf("import counts = %v, want each file once", seen)
	}
}

func TestCandidate(t *testing.T) {
	w := &Watcher{}
	root := filepath.Join(string(filepath.Separator), "inbox")
	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(root, "a.md"), true},
		{filepath.Join(root, "A.TXT"), true},
		{filepath.Join(root, ".hidden.md"), false},
		{filepath.Join(root, "a.pdf"), false},
		{filepath.Join(root, ImportedDir, "a.md"), false},
	}
	for _, tt := range tests {
		if _, got := w.candidate(root, tt.path); got != tt.want {
			t.Errorf("candidate(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
