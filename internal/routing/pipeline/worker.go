// Package pipeline runs the per-category transform and delivery loop.
package pipeline

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/feedrouter/internal/core/domain"
	"github.com/vietddude/feedrouter/internal/infra/sink"
	"github.com/vietddude/feedrouter/internal/infra/storage"
	"github.com/vietddude/feedrouter/internal/routing/metrics"
)

// Config holds the dependencies of a category worker.
type Config struct {
	Category domain.Category
	Input    <-chan domain.RoutedMessage
	Sink     sink.Sink

	// Failed records dropped messages. Optional.
	Failed storage.FailedDeliveryRepository

	// DeliveryTimeout bounds a single Deliver call. Zero means no bound.
	DeliveryTimeout time.Duration
}

// Worker is the single consumer of one category channel. Each message is
// rendered and delivered once; a failed delivery is reported and the
// message is dropped.
type Worker struct {
	cfg Config

	delivered atomic.Int64
	failed    atomic.Int64
	lastErr   atomic.Pointer[domain.SinkDeliveryError]
}

// NewWorker creates a worker.
func NewWorker(cfg Config) *Worker {
	return &Worker{cfg: cfg}
}

// Category returns the category served by the worker.
func (w *Worker) Category() domain.Category { return w.cfg.Category }

// Run processes messages until the input channel is closed and drained.
// Cancelling ctx abandons whatever is still buffered.
func (w *Worker) Run(ctx context.Context) error {
	logger := slog.With("category", w.cfg.Category, "sink", w.cfg.Sink.Name())
	logger.Debug("Worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Warn("Worker stopped before drain", "dropped", len(w.cfg.Input))
			return ctx.Err()
		case msg, ok := <-w.cfg.Input:
			if !ok {
				logger.Debug("Worker drained")
				return nil
			}
			metrics.QueueDepth.WithLabelValues(string(w.cfg.Category)).Set(float64(len(w.cfg.Input)))
			w.process(ctx, logger, msg)
		}
	}
}

// Delivered returns the number of successful deliveries.
func (w *Worker) Delivered() int64 { return w.delivered.Load() }

// Failed returns the number of dropped messages.
func (w *Worker) Failed() int64 { return w.failed.Load() }

// LastError returns the most recent delivery failure, or nil.
func (w *Worker) LastError() error {
	if e := w.lastErr.Load(); e != nil {
		return e
	}
	return nil
}

func (w *Worker) process(ctx context.Context, logger *slog.Logger, msg domain.RoutedMessage) {
	rec := Render(msg)

	deliverCtx := ctx
	if w.cfg.DeliveryTimeout > 0 {
		var cancel context.CancelFunc
		deliverCtx, cancel = context.WithTimeout(ctx, w.cfg.DeliveryTimeout)
		defer cancel()
	}

	start := time.Now()
	err := w.cfg.Sink.Deliver(deliverCtx, rec)
	metrics.DeliveryLatency.WithLabelValues(string(w.cfg.Category), w.cfg.Sink.Name()).Observe(time.Since(start).Seconds())

	if err == nil {
		w.delivered.Add(1)
		metrics.Deliveries.WithLabelValues(string(w.cfg.Category), w.cfg.Sink.Name(), "success").Inc()
		logger.Debug("Entry delivered", "entry_id", msg.Entry.ID)
		return
	}

	deliveryErr := &domain.SinkDeliveryError{
		Category: w.cfg.Category,
		Sink:     w.cfg.Sink.Name(),
		EntryID:  msg.Entry.ID,
		Err:      err,
	}
	w.failed.Add(1)
	w.lastErr.Store(deliveryErr)
	metrics.Deliveries.WithLabelValues(string(w.cfg.Category), w.cfg.Sink.Name(), "failure").Inc()
	logger.Error("Delivery failed, dropping entry", "entry_id", msg.Entry.ID, "error", deliveryErr)

	w.record(ctx, logger, msg, deliveryErr)
}

func (w *Worker) record(ctx context.Context, logger *slog.Logger, msg domain.RoutedMessage, deliveryErr *domain.SinkDeliveryError) {
	if w.cfg.Failed == nil || ctx.Err() != nil {
		return
	}

	fd := &domain.FailedDelivery{
		ID:         uuid.NewString(),
		Category:   w.cfg.Category,
		Sink:       deliveryErr.Sink,
		EntryID:    msg.Entry.ID,
		Title:      msg.Entry.Title,
		Link:       msg.Entry.Link,
		Categories: msg.Entry.Categories,
		Error:      deliveryErr.Err.Error(),
		FailedAt:   time.Now(),
	}
	if err := w.cfg.Failed.Add(ctx, fd); err != nil {
		logger.Error("Failed to record failed delivery", "entry_id", msg.Entry.ID, "error", err)
	}
}
