package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownCategory is reported when an entry falls back to the
// unclassified category.
var ErrUnknownCategory = errors.New("unknown category")

// FetchError is a transient failure to fetch or parse the feed.
// The next scheduled poll retries on its own.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SinkDeliveryError is a failed hand-off of one record to a sink. The
// record is dropped after it is reported.
type SinkDeliveryError struct {
	Category Category
	Sink     string
	EntryID  string
	Err      error
}

func (e *SinkDeliveryError) Error() string {
	return fmt.Sprintf("deliver entry %s to %s sink for %s: %v", e.EntryID, e.Sink, e.Category, e.Err)
}

func (e *SinkDeliveryError) Unwrap() error { return e.Err }

// ConfigError is a missing or invalid setting. It is fatal at startup.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}
