package config

import (
	"time"

	"github.com/vietddude/feedrouter/internal/core/domain"
	redisclient "github.com/vietddude/feedrouter/internal/infra/redis"
	"github.com/vietddude/feedrouter/internal/infra/storage/postgres"
)

// Sink kinds a category can be bound to.
const (
	SinkFile = "file"
	SinkMail = "mail"
)

// SMTP protocols.
const (
	ProtocolSMTP  = "smtp"
	ProtocolSMTPS = "smtps"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server     ServerConfig       `yaml:"server"`
	Logging    LoggingConfig      `yaml:"logging"`
	Feed       FeedConfig         `yaml:"feed"`
	Queue      QueueConfig        `yaml:"queue"`
	Output     OutputConfig       `yaml:"output"`
	SMTP       SMTPConfig         `yaml:"smtp"`
	Categories []CategoryConfig   `yaml:"categories"`
	Failed     FailedConfig       `yaml:"failed"`
	Redis      redisclient.Config `yaml:"redis"`
	Database   postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int  `yaml:"port"`
	Disabled bool `yaml:"disabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// FeedConfig describes the polled feed.
type FeedConfig struct {
	URL          string        `yaml:"url"`
	PollInterval time.Duration `yaml:"poll_interval"`
	PollOnStart  *bool         `yaml:"poll_on_start"`
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
}

// QueueConfig holds per-category queue and worker settings.
type QueueConfig struct {
	Capacity        int           `yaml:"capacity"`
	DeliveryTimeout time.Duration `yaml:"delivery_timeout"` // 0 = no timeout
}

// OutputConfig holds file sink settings.
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// SMTPConfig holds mail sink settings.
type SMTPConfig struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	Protocol      string        `yaml:"protocol"` // smtp, smtps
	Username      string        `yaml:"username"`
	Password      string        `yaml:"password"`
	From          string        `yaml:"from"`
	To            string        `yaml:"to"`
	Subject       string        `yaml:"subject"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerMinute int           `yaml:"rate_per_minute"` // 0 = unlimited
}

// CategoryConfig binds one category to its sink.
type CategoryConfig struct {
	Name domain.Category `yaml:"name"`
	Sink string          `yaml:"sink"` // file, mail
	File string          `yaml:"file"` // file sink only, defaults to <name>.txt
}

// FailedConfig holds settings for the failed-delivery store.
type FailedConfig struct {
	Retention time.Duration `yaml:"retention"` // 0 = keep forever
}

// ShouldPollOnStart reports whether the poller runs once before its first tick.
func (f FeedConfig) ShouldPollOnStart() bool {
	return f.PollOnStart == nil || *f.PollOnStart
}

// UsesSink reports whether any category is bound to the given sink kind.
func (c *AppConfig) UsesSink(kind string) bool {
	for _, cat := range c.Categories {
		if cat.Sink == kind {
			return true
		}
	}
	return false
}
