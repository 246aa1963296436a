// Package feed fetches and parses the polled syndication feed.
package feed

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/vietddude/feedrouter/internal/core/domain"
)

// Fetcher returns the raw entries currently published by the feed, in feed order.
type Fetcher interface {
	Fetch(ctx context.Context) ([]domain.Entry, error)
}

// Config holds feed fetch settings.
type Config struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
}

// GofeedFetcher fetches RSS/Atom documents with gofeed.
type GofeedFetcher struct {
	url    string
	parser *gofeed.Parser
}

// NewGofeedFetcher creates a fetcher for a single feed URL.
func NewGofeedFetcher(cfg Config) *GofeedFetcher {
	fp := gofeed.NewParser()
	fp.Client = newHTTPClient(cfg.Timeout)
	if cfg.UserAgent != "" {
		fp.UserAgent = cfg.UserAgent
	}
	return &GofeedFetcher{url: cfg.URL, parser: fp}
}

// URL returns the feed address.
func (f *GofeedFetcher) URL() string { return f.url }

// Fetch downloads and parses the feed. Items without a usable id are skipped.
func (f *GofeedFetcher) Fetch(ctx context.Context) ([]domain.Entry, error) {
	parsed, err := f.parser.ParseURLWithContext(f.url, ctx)
	if err != nil {
		return nil, err
	}
	return ConvertItems(parsed.Items), nil
}

// ConvertItems maps gofeed items to entries, preserving order.
func ConvertItems(items []*gofeed.Item) []domain.Entry {
	entries := make([]domain.Entry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		entry, ok := toEntry(item)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func toEntry(item *gofeed.Item) (domain.Entry, bool) {
	link := collapseSpace(item.Link)
	if link == "" && len(item.Links) > 0 {
		link = collapseSpace(item.Links[0])
	}

	id := strings.TrimSpace(item.GUID)
	if id == "" {
		id = link
	}
	if id == "" {
		return domain.Entry{}, false
	}

	var published time.Time
	switch {
	case item.PublishedParsed != nil:
		published = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		published = *item.UpdatedParsed
	}

	categories := make([]string, 0, len(item.Categories))
	for _, c := range item.Categories {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}

	return domain.Entry{
		ID:          id,
		Title:       collapseSpace(item.Title),
		Link:        link,
		Categories:  categories,
		PublishedAt: published,
	}, true
}

// collapseSpace folds runs of whitespace, line breaks included, into one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
