package domain

import "time"

// Entry is one item surfaced from the polled feed. It is never mutated
// after the entry source creates it.
type Entry struct {
	ID          string
	Title       string
	Link        string
	Categories  []string // first element is the routing key
	PublishedAt time.Time
}

// PrimaryCategory returns the routing label of the entry, or "" when the
// entry carries no categories.
func (e Entry) PrimaryCategory() string {
	if len(e.Categories) == 0 {
		return ""
	}
	return e.Categories[0]
}
