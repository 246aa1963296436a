// Package poller drives the entry source on a fixed schedule.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vietddude/feedrouter/internal/core/domain"
	"github.com/vietddude/feedrouter/internal/routing/metrics"
)

// DefaultInterval is the poll period used when none is configured.
const DefaultInterval = 500 * time.Millisecond

// Source returns the entries not surfaced by an earlier call.
type Source interface {
	Poll(ctx context.Context) ([]domain.Entry, error)
}

// Dispatcher hands one entry to its category channel.
type Dispatcher interface {
	Dispatch(ctx context.Context, entry domain.Entry) error
}

// Config holds the poller configuration.
type Config struct {
	Interval    time.Duration
	PollOnStart bool
}

// Poller calls the source on every tick and forwards new entries to the
// dispatcher in the order the source returned them. At most one poll runs
// at a time; a tick that fires while a poll is in flight is skipped.
type Poller struct {
	cfg        Config
	source     Source
	dispatcher Dispatcher

	running  atomic.Bool
	inFlight atomic.Bool
	polls    atomic.Int64
	skipped  atomic.Int64

	wg       sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a new poller.
func New(cfg Config, source Source, dispatcher Dispatcher) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Poller{
		cfg:        cfg,
		source:     source,
		dispatcher: dispatcher,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run ticks until Stop is called or ctx is cancelled. ctx is also handed to
// the source and the dispatcher, so cancelling it aborts an in-flight poll.
// Run returns once the in-flight poll, if any, has finished.
func (p *Poller) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return errors.New("poller already running")
	}
	defer close(p.done)
	defer p.wg.Wait()

	select {
	case <-p.stop:
		return nil
	default:
	}

	slog.Info("Poller started", "interval", p.cfg.Interval)

	if p.cfg.PollOnStart {
		p.trigger(ctx)
	}

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.stop:
			return nil
		case <-ticker.C:
			p.trigger(ctx)
		}
	}
}

// Stop stops scheduling new polls and waits for the in-flight poll,
// including its dispatches, to finish.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	if p.running.Load() {
		<-p.done
	}
}

// Polls returns the number of polls started.
func (p *Poller) Polls() int64 { return p.polls.Load() }

// Skipped returns the number of ticks skipped due to an in-flight poll.
func (p *Poller) Skipped() int64 { return p.skipped.Load() }

func (p *Poller) trigger(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.skipped.Add(1)
		metrics.PollsSkipped.Inc()
		slog.Debug("Poll still in flight, skipping tick")
		return
	}

	p.polls.Add(1)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.inFlight.Store(false)
		p.pollOnce(ctx)
	}()
}

func (p *Poller) pollOnce(ctx context.Context) {
	start := time.Now()
	defer func() { metrics.PollDuration.Observe(time.Since(start).Seconds()) }()

	entries, err := p.source.Poll(ctx)
	if err != nil {
		slog.Warn("Feed poll failed", "error", err)
		return
	}

	for _, entry := range entries {
		if err := p.dispatcher.Dispatch(ctx, entry); err != nil {
			slog.Warn("Dispatch aborted", "entry_id", entry.ID, "error", err)
			return
		}
	}
}
