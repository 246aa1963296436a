// Package sink delivers formatted records to their final destination.
package sink

import (
	"context"

	"github.com/vietddude/feedrouter/internal/core/domain"
)

// Sink is a delivery target bound to exactly one category worker.
type Sink interface {
	// Name identifies the sink kind in logs and metrics.
	Name() string

	// Deliver hands one record to the destination. It does not retry.
	Deliver(ctx context.Context, rec domain.FormattedRecord) error

	// Close releases any resources held by the sink.
	Close() error
}
