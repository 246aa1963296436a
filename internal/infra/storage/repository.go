package storage

import (
	"context"
	"time"

	"github.com/vietddude/feedrouter/internal/core/domain"
)

// FailedDeliveryRepository keeps records of messages dropped after a sink
// delivery failure. Records are informational and never requeued.
type FailedDeliveryRepository interface {
	// Add stores a failed delivery
	Add(ctx context.Context, fd *domain.FailedDelivery) error

	// Count returns the number of failed deliveries for a category
	Count(ctx context.Context, category domain.Category) (int, error)

	// CountSince returns the number of failed deliveries for a category
	// recorded at or after since
	CountSince(ctx context.Context, category domain.Category, since time.Time) (int, error)

	// List returns up to limit failed deliveries for a category, oldest first
	List(ctx context.Context, category domain.Category, limit int) ([]*domain.FailedDelivery, error)

	// DeleteOlderThan removes records that failed before the given time
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}
