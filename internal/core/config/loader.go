package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/feedrouter/internal/core/domain"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "FEEDROUTER_CONFIG"

// DefaultPath is used when EnvConfigPath is unset.
const DefaultPath = "config.yaml"

// PathFromEnv returns the configuration file path.
func PathFromEnv() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads configuration from a YAML file, applies defaults and validates it.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Feed.PollInterval == 0 {
		c.Feed.PollInterval = 500 * time.Millisecond
	}
	if c.Feed.Timeout == 0 {
		c.Feed.Timeout = 20 * time.Second
	}
	if c.Queue.Capacity == 0 {
		c.Queue.Capacity = 10
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "output"
	}

	if c.SMTP.Protocol == "" {
		c.SMTP.Protocol = ProtocolSMTP
	}
	if c.SMTP.Port == 0 {
		if c.SMTP.Protocol == ProtocolSMTPS {
			c.SMTP.Port = 465
		} else {
			c.SMTP.Port = 25
		}
	}
	if c.SMTP.Subject == "" {
		c.SMTP.Subject = "New feed entry"
	}
	if c.SMTP.Timeout == 0 {
		c.SMTP.Timeout = 15 * time.Second
	}

	if len(c.Categories) == 0 {
		for _, name := range domain.DefaultCategories {
			c.Categories = append(c.Categories, CategoryConfig{Name: name})
		}
	}

	hasUnclassified := false
	for i := range c.Categories {
		c.Categories[i].Name = domain.NormalizeCategory(string(c.Categories[i].Name))
		if c.Categories[i].Sink == "" {
			c.Categories[i].Sink = SinkFile
		}
		if c.Categories[i].Sink == SinkFile && c.Categories[i].File == "" {
			c.Categories[i].File = string(c.Categories[i].Name) + ".txt"
		}
		if c.Categories[i].Name == domain.CategoryUnclassified {
			hasUnclassified = true
		}
	}
	if !hasUnclassified {
		slog.Debug("No binding for unclassified category, defaulting to file sink")
		c.Categories = append(c.Categories, CategoryConfig{
			Name: domain.CategoryUnclassified,
			Sink: SinkFile,
			File: string(domain.CategoryUnclassified) + ".txt",
		})
	}
}

// Validate checks required settings. It returns a *domain.ConfigError
// describing the first problem found.
func (c *AppConfig) Validate() error {
	if c.Feed.URL == "" {
		return &domain.ConfigError{Field: "feed.url", Reason: "required"}
	}
	u, err := url.Parse(c.Feed.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &domain.ConfigError{Field: "feed.url", Reason: "must be an http(s) URL"}
	}
	if c.Feed.PollInterval < 0 {
		return &domain.ConfigError{Field: "feed.poll_interval", Reason: "must be positive"}
	}
	if c.Queue.Capacity < 0 {
		return &domain.ConfigError{Field: "queue.capacity", Reason: "must be positive"}
	}
	if c.Queue.DeliveryTimeout < 0 {
		return &domain.ConfigError{Field: "queue.delivery_timeout", Reason: "must not be negative"}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return &domain.ConfigError{Field: "logging.level", Reason: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}

	seen := make(map[domain.Category]bool, len(c.Categories))
	for i, cat := range c.Categories {
		field := fmt.Sprintf("categories[%d]", i)
		if cat.Name == "" {
			return &domain.ConfigError{Field: field + ".name", Reason: "required"}
		}
		if seen[cat.Name] {
			return &domain.ConfigError{Field: field + ".name", Reason: fmt.Sprintf("duplicate category %q", cat.Name)}
		}
		seen[cat.Name] = true

		switch cat.Sink {
		case SinkFile, SinkMail:
		default:
			return &domain.ConfigError{Field: field + ".sink", Reason: fmt.Sprintf("unknown sink %q", cat.Sink)}
		}
	}

	if c.UsesSink(SinkMail) {
		if err := c.SMTP.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s SMTPConfig) validate() error {
	if s.Host == "" {
		return &domain.ConfigError{Field: "smtp.host", Reason: "required by mail sink"}
	}
	if s.Protocol != ProtocolSMTP && s.Protocol != ProtocolSMTPS {
		return &domain.ConfigError{Field: "smtp.protocol", Reason: fmt.Sprintf("unknown protocol %q", s.Protocol)}
	}
	if s.Port < 1 || s.Port > 65535 {
		return &domain.ConfigError{Field: "smtp.port", Reason: "out of range"}
	}
	if s.From == "" {
		return &domain.ConfigError{Field: "smtp.from", Reason: "required by mail sink"}
	}
	if s.To == "" {
		return &domain.ConfigError{Field: "smtp.to", Reason: "required by mail sink"}
	}
	if s.RatePerMinute < 0 {
		return &domain.ConfigError{Field: "smtp.rate_per_minute", Reason: "must not be negative"}
	}
	return nil
}
