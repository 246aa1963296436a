package domain

import "time"

// FailedDelivery records a message dropped after a sink delivery failure.
type FailedDelivery struct {
	ID         string    `json:"id"`
	Category   Category  `json:"category"`
	Sink       string    `json:"sink"`
	EntryID    string    `json:"entry_id"`
	Title      string    `json:"title"`
	Link       string    `json:"link"`
	Categories []string  `json:"categories"`
	Error      string    `json:"error_msg"`
	FailedAt   time.Time `json:"failed_at"`
}
