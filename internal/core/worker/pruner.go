package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/feedrouter/internal/core/config"
	"github.com/vietddude/feedrouter/internal/infra/storage"
	"github.com/vietddude/feedrouter/internal/routing/metrics"
)

// Pruner deletes failed-delivery records based on the retention policy.
type Pruner struct {
	cfg        config.FailedConfig
	failedRepo storage.FailedDeliveryRepository
	now        func() time.Time
}

// NewPruner creates a new Pruner worker.
func NewPruner(cfg config.FailedConfig, failedRepo storage.FailedDeliveryRepository) *Pruner {
	return &Pruner{
		cfg:        cfg,
		failedRepo: failedRepo,
		now:        time.Now,
	}
}

// Start runs the pruner loop until ctx is cancelled.
func (p *Pruner) Start(ctx context.Context) {
	if p.cfg.Retention <= 0 {
		return // Retention disabled
	}

	// Check every 10% of the retention period, between 1 minute and 1 hour
	interval := min(p.cfg.Retention/10, 1*time.Hour)
	interval = max(interval, 1*time.Minute)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial prune
	p.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	threshold := p.now().Add(-p.cfg.Retention)

	deleted, err := p.failedRepo.DeleteOlderThan(ctx, threshold)
	if err != nil {
		slog.Error("Failed to prune failed deliveries", "error", err)
		return
	}
	if deleted > 0 {
		metrics.FailedDeliveriesPruned.Add(float64(deleted))
		slog.Info("Pruned failed deliveries", "count", deleted, "before", threshold)
	}
}
