package sink

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/vietddude/feedrouter/internal/core/domain"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return lines
}

func TestFileAppendSink_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	s, err := NewFileAppendSink(dir, "releases.txt")
	if err != nil {
		t.Fatalf("NewFileAppendSink failed: %v", err)
	}

	// Previous content must survive.
	if err := os.WriteFile(s.Path(), []byte("《old》http://old\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	const n = 5
	for i := 0; i < n; i++ {
		rec := domain.FormattedRecord{
			Category: domain.CategoryReleases,
			EntryID:  fmt.Sprint(i),
			Text:     fmt.Sprintf("《T%d》http://x/%d\n", i, i),
		}
		if err := s.Deliver(context.Background(), rec); err != nil {
			t.Fatalf("Deliver %d failed: %v", i, err)
		}
	}

	lines := readLines(t, s.Path())
	if len(lines) != n+1 {
		t.Fatalf("expected %d lines, got %d: %v", n+1, len(lines), lines)
	}
	if lines[0] != "《old》http://old" {
		t.Errorf("previous content lost, first line %q", lines[0])
	}
	for i := 0; i < n; i++ {
		want := fmt.Sprintf("《T%d》http://x/%d", i, i)
		if lines[i+1] != want {
			t.Errorf("line %d: expected %q, got %q", i+1, want, lines[i+1])
		}
	}

	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestFileAppendSink_OpenFailure(t *testing.T) {
	dir := t.TempDir()
	// A directory in place of the target file makes every open fail.
	if err := os.Mkdir(filepath.Join(dir, "news.txt"), 0o755); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileAppendSink(dir, "news.txt")
	if err != nil {
		t.Fatalf("NewFileAppendSink failed: %v", err)
	}
	err = s.Deliver(context.Background(), domain.FormattedRecord{Text: "x\n"})
	if err == nil {
		t.Fatal("expected error when target is a directory")
	}
}

func TestFileAppendSink_CanceledContext(t *testing.T) {
	s, err := NewFileAppendSink(t.TempDir(), "a.txt")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Deliver(ctx, domain.FormattedRecord{Text: "x\n"}); err == nil {
		t.Fatal("expected context error")
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Error("file should not be created for a canceled delivery")
	}
}
