// Package router classifies entries and fans them out to bounded
// per-category channels.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vietddude/feedrouter/internal/core/domain"
	"github.com/vietddude/feedrouter/internal/routing/metrics"
)

// DefaultCapacity is the buffer size of a category channel.
const DefaultCapacity = 10

// Fallback reasons.
const (
	reasonNoCategory      = "no_category"
	reasonUnknownCategory = "unknown_category"
)

// Router owns one buffered channel per category. It is the only producer
// on those channels.
type Router struct {
	channels   map[domain.Category]chan domain.RoutedMessage
	categories []domain.Category
	closeOnce  sync.Once
}

// New creates a router for the given categories. The unclassified category
// is always added.
func New(categories []domain.Category, capacity int) *Router {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	r := &Router{channels: make(map[domain.Category]chan domain.RoutedMessage)}
	all := make([]domain.Category, 0, len(categories)+1)
	all = append(all, categories...)
	all = append(all, domain.CategoryUnclassified)
	for _, c := range all {
		c = domain.NormalizeCategory(string(c))
		if _, ok := r.channels[c]; ok {
			continue
		}
		r.channels[c] = make(chan domain.RoutedMessage, capacity)
		r.categories = append(r.categories, c)
	}
	return r
}

// Route returns the category an entry belongs to: its first label when
// that label is configured, unclassified otherwise.
func (r *Router) Route(entry domain.Entry) domain.Category {
	c, _ := r.resolve(entry)
	return c
}

func (r *Router) resolve(entry domain.Entry) (domain.Category, string) {
	label := entry.PrimaryCategory()
	if label == "" {
		return domain.CategoryUnclassified, reasonNoCategory
	}
	c := domain.NormalizeCategory(label)
	if _, ok := r.channels[c]; !ok {
		return domain.CategoryUnclassified, reasonUnknownCategory
	}
	return c, ""
}

// Dispatch routes the entry and enqueues it on its category channel. It
// blocks while the channel is full; only ctx cancellation aborts the wait.
func (r *Router) Dispatch(ctx context.Context, entry domain.Entry) error {
	category, reason := r.resolve(entry)
	if reason != "" {
		metrics.RoutingFallbacks.WithLabelValues(reason).Inc()
		slog.Warn("Routing fallback",
			"entry_id", entry.ID,
			"label", entry.PrimaryCategory(),
			"category", category,
			"error", domain.ErrUnknownCategory,
		)
	}

	ch := r.channels[category]
	msg := domain.RoutedMessage{Entry: entry, Category: category}

	select {
	case ch <- msg:
	default:
		slog.Debug("Category channel full, waiting", "category", category, "entry_id", entry.ID)
		select {
		case ch <- msg:
		case <-ctx.Done():
			return fmt.Errorf("dispatch %s to %s: %w", entry.ID, category, ctx.Err())
		}
	}

	metrics.EntriesRouted.WithLabelValues(string(category)).Inc()
	metrics.QueueDepth.WithLabelValues(string(category)).Set(float64(len(ch)))
	return nil
}

// Channel returns the receive side of a category channel.
func (r *Router) Channel(category domain.Category) (<-chan domain.RoutedMessage, bool) {
	ch, ok := r.channels[category]
	return ch, ok
}

// Categories returns the routed categories in configuration order,
// unclassified last.
func (r *Router) Categories() []domain.Category {
	out := make([]domain.Category, len(r.categories))
	copy(out, r.categories)
	return out
}

// Depth returns the number of messages buffered for a category.
func (r *Router) Depth(category domain.Category) int {
	return len(r.channels[category])
}

// Capacity returns the buffer size of a category channel.
func (r *Router) Capacity(category domain.Category) int {
	return cap(r.channels[category])
}

// Close closes every category channel. It must only be called once no
// Dispatch can run anymore.
func (r *Router) Close() {
	r.closeOnce.Do(func() {
		for _, ch := range r.channels {
			close(ch)
		}
	})
}
