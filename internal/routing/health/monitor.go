package health

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/feedrouter/internal/core/domain"
	"github.com/vietddude/feedrouter/internal/infra/storage"
)

const (
	defaultCacheTTL      = 10 * time.Second
	defaultFailureWindow = 15 * time.Minute

	// Recent failed delivery counts above this mark a category critical.
	criticalFailedDeliveries = 50
)

// Queues exposes the category channels to the monitor.
type Queues interface {
	Categories() []domain.Category
	Depth(category domain.Category) int
	Capacity(category domain.Category) int
}

// PollStatus reports the outcome of the most recent feed fetch.
type PollStatus interface {
	Status() (lastSuccess time.Time, lastErr error)
}

// Config holds the monitor configuration.
type Config struct {
	FeedURL string

	// StaleAfter marks the feed critical when no fetch has succeeded for
	// this long.
	StaleAfter time.Duration

	// FailureWindow is how far back failed deliveries count against a
	// category's status. Older records stay in the report total only.
	FailureWindow time.Duration

	// CacheTTL limits how often the failed-delivery store is queried.
	// Negative disables caching.
	CacheTTL time.Duration
}

// Monitor aggregates health status from the pipeline components.
type Monitor struct {
	cfg        Config
	queues     Queues
	poll       PollStatus
	failedRepo storage.FailedDeliveryRepository
	started    time.Time
	lastCheck  time.Time
	lastReport *HealthReport
	mu         sync.Mutex
}

// NewMonitor creates a new health monitor.
func NewMonitor(
	cfg Config,
	queues Queues,
	poll PollStatus,
	failedRepo storage.FailedDeliveryRepository,
) *Monitor {
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.FailureWindow <= 0 {
		cfg.FailureWindow = defaultFailureWindow
	}
	return &Monitor{
		cfg:        cfg,
		queues:     queues,
		poll:       poll,
		failedRepo: failedRepo,
		started:    time.Now(),
	}
}

// CheckHealth builds a report for the feed and every category.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastReport != nil && m.cfg.CacheTTL > 0 && time.Since(m.lastCheck) < m.cfg.CacheTTL {
		return *m.lastReport
	}

	report := HealthReport{
		SystemStatus: StatusHealthy,
		Feed:         m.feedHealth(),
		Categories:   make(map[string]CategoryHealth),
	}
	report.SystemStatus = worse(report.SystemStatus, report.Feed.Status)

	since := time.Now().Add(-m.cfg.FailureWindow)
	for _, c := range m.queues.Categories() {
		health := CategoryHealth{
			Category:      string(c),
			Status:        StatusHealthy,
			QueueDepth:    m.queues.Depth(c),
			QueueCapacity: m.queues.Capacity(c),
		}

		if m.failedRepo != nil {
			total, err := m.failedRepo.Count(ctx, c)
			recent, recentErr := m.failedRepo.CountSince(ctx, c, since)
			if err == nil && recentErr == nil {
				health.FailedDeliveries = total
				health.RecentFailures = recent
			} else {
				health.Status = StatusDegraded
			}
		}

		// Evaluate Status
		if health.RecentFailures > criticalFailedDeliveries {
			health.Status = StatusCritical
		} else if health.RecentFailures > 0 || health.QueueDepth >= health.QueueCapacity {
			health.Status = worse(health.Status, StatusDegraded)
		}

		report.Categories[string(c)] = health
		report.SystemStatus = worse(report.SystemStatus, health.Status)
	}

	m.lastCheck = time.Now()
	m.lastReport = &report
	return report
}

func (m *Monitor) feedHealth() FeedHealth {
	health := FeedHealth{URL: m.cfg.FeedURL, Status: StatusHealthy}
	if m.poll == nil {
		return health
	}

	lastSuccess, lastErr := m.poll.Status()
	since := m.started
	if !lastSuccess.IsZero() {
		ts := lastSuccess
		health.LastSuccess = &ts
		since = lastSuccess
	}
	if lastErr != nil {
		health.LastError = lastErr.Error()
		health.Status = StatusDegraded
	}
	if m.cfg.StaleAfter > 0 && time.Since(since) > m.cfg.StaleAfter {
		health.Status = StatusCritical
	}
	return health
}
