// Package health provides pipeline health monitoring and status reporting.
package health

import "time"

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// worse returns the more severe of two statuses.
func worse(a, b SystemStatus) SystemStatus {
	rank := map[SystemStatus]int{StatusHealthy: 0, StatusDegraded: 1, StatusCritical: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// FeedHealth describes the state of the polled feed.
type FeedHealth struct {
	URL         string       `json:"url"`
	Status      SystemStatus `json:"status"`
	LastSuccess *time.Time   `json:"last_success,omitempty"`
	LastError   string       `json:"last_error,omitempty"`
}

// CategoryHealth contains health metrics for one category pipeline.
type CategoryHealth struct {
	Category         string       `json:"category"`
	Status           SystemStatus `json:"status"`
	QueueDepth       int          `json:"queue_depth"`
	QueueCapacity    int          `json:"queue_capacity"`
	FailedDeliveries int          `json:"failed_deliveries"`
	RecentFailures   int          `json:"recent_failures"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus              `json:"system_status"`
	Feed         FeedHealth                `json:"feed"`
	Categories   map[string]CategoryHealth `json:"categories"`
}
