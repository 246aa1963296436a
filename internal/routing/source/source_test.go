package source

import (
	"context"
	"errors"
	"testing"

	"github.com/vietddude/feedrouter/internal/core/domain"
)

type stubFetcher struct {
	results [][]domain.Entry
	errs    []error
	calls   int
}

func (f *stubFetcher) Fetch(ctx context.Context) ([]domain.Entry, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.results) {
		return f.results[i], nil
	}
	return nil, nil
}

func entry(id string) domain.Entry {
	return domain.Entry{ID: id, Title: "t" + id, Link: "http://x/" + id}
}

func ids(entries []domain.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPoll_NeverReturnsAnIDTwice(t *testing.T) {
	fetcher := &stubFetcher{results: [][]domain.Entry{
		{entry("3"), entry("2"), entry("1")},
		{entry("4"), entry("3"), entry("2")},
		{entry("4"), entry("4"), entry("5")},
		{entry("1"), entry("5")},
	}}
	src := New(fetcher, "http://feed")

	want := [][]string{
		{"3", "2", "1"},
		{"4"},
		{"5"},
		{},
	}

	returned := make(map[string]int)
	for i, w := range want {
		got, err := src.Poll(context.Background())
		if err != nil {
			t.Fatalf("poll %d: unexpected error: %v", i, err)
		}
		if !equal(ids(got), w) {
			t.Errorf("poll %d: expected %v, got %v", i, w, ids(got))
		}
		for _, e := range got {
			returned[e.ID]++
		}
	}

	for id, n := range returned {
		if n != 1 {
			t.Errorf("id %s returned %d times", id, n)
		}
	}
}

func TestPoll_IdenticalSecondPollIsEmpty(t *testing.T) {
	feedEntries := []domain.Entry{{ID: "1", Title: "X", Link: "http://a", Categories: []string{"releases"}}}
	src := New(&stubFetcher{results: [][]domain.Entry{feedEntries, feedEntries}}, "http://feed")

	first, _ := src.Poll(context.Background())
	if len(first) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(first))
	}
	second, _ := src.Poll(context.Background())
	if len(second) != 0 {
		t.Errorf("expected no entries on second poll, got %v", ids(second))
	}
}

func TestPoll_FetchFailureMarksNothingSeen(t *testing.T) {
	boom := errors.New("connection reset")
	fetcher := &stubFetcher{
		results: [][]domain.Entry{nil, {entry("1")}},
		errs:    []error{boom, nil},
	}
	src := New(fetcher, "http://feed")

	got, err := src.Poll(context.Background())
	if got != nil {
		t.Errorf("expected nil entries on failure, got %v", got)
	}
	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.URL != "http://feed" || !errors.Is(err, boom) {
		t.Errorf("unexpected fetch error: %v", fetchErr)
	}
	if _, lastErr := src.Status(); lastErr == nil {
		t.Error("expected status to carry the last fetch error")
	}

	got, err = src.Poll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equal(ids(got), []string{"1"}) {
		t.Errorf("expected entry after recovery, got %v", ids(got))
	}
	last, lastErr := src.Status()
	if lastErr != nil || last.IsZero() {
		t.Errorf("expected healthy status, got %v / %v", last, lastErr)
	}
}

func TestPoll_SkipsEntriesWithoutID(t *testing.T) {
	src := New(&stubFetcher{results: [][]domain.Entry{{{Title: "no id"}, entry("1")}}}, "http://feed")

	got, _ := src.Poll(context.Background())
	if !equal(ids(got), []string{"1"}) {
		t.Errorf("expected only identified entry, got %v", ids(got))
	}
}
