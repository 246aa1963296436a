// Package source surfaces feed entries that have not been returned before.
package source

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/feedrouter/internal/core/domain"
	"github.com/vietddude/feedrouter/internal/infra/feed"
	"github.com/vietddude/feedrouter/internal/routing/metrics"
)

// Source wraps a Fetcher with an in-memory seen-id set.
//
// Poll is only called from the poller's sequential path, so the seen set
// needs no lock. The status fields are read by the health monitor and are
// guarded separately.
type Source struct {
	fetcher feed.Fetcher
	url     string
	seen    map[string]struct{}

	mu          sync.RWMutex
	lastSuccess time.Time
	lastErr     error
}

// New creates a Source. url is only used to label fetch errors.
func New(fetcher feed.Fetcher, url string) *Source {
	return &Source{
		fetcher: fetcher,
		url:     url,
		seen:    make(map[string]struct{}),
	}
}

// Poll fetches the feed and returns the entries whose id was never returned
// before, in feed order. On a fetch failure it returns a *domain.FetchError
// and marks nothing as seen.
func (s *Source) Poll(ctx context.Context) ([]domain.Entry, error) {
	raw, err := s.fetcher.Fetch(ctx)
	if err != nil {
		fetchErr := &domain.FetchError{URL: s.url, Err: err}
		metrics.FetchErrors.Inc()
		s.setStatus(time.Time{}, fetchErr)
		return nil, fetchErr
	}

	fresh := make([]domain.Entry, 0, len(raw))
	for _, e := range raw {
		if e.ID == "" {
			continue
		}
		if _, ok := s.seen[e.ID]; ok {
			continue
		}
		s.seen[e.ID] = struct{}{}
		fresh = append(fresh, e)
	}

	if len(fresh) > 0 {
		slog.Debug("New entries", "count", len(fresh), "fetched", len(raw))
	}
	metrics.EntriesPolled.Add(float64(len(fresh)))
	s.setStatus(time.Now(), nil)
	return fresh, nil
}

// Status returns the time of the last successful fetch and the error of the
// last fetch, if it failed.
func (s *Source) Status() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSuccess, s.lastErr
}

func (s *Source) setStatus(success time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !success.IsZero() {
		s.lastSuccess = success
	}
	s.lastErr = err
}
