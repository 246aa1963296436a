// Package control builds the pipeline graph and owns its lifecycle.
package control

import (
	"github.com/vietddude/feedrouter/internal/core/config"
	"github.com/vietddude/feedrouter/internal/infra/feed"
	"github.com/vietddude/feedrouter/internal/infra/sink"
)

// TransportFactory creates the mail transport of one mail-bound category.
type TransportFactory func(cfg config.SMTPConfig) (sink.Transport, error)

// dependencies are the external boundaries of the pipeline. Production
// values are built from the configuration; tests replace them.
type dependencies struct {
	fetcher   feed.Fetcher
	transport TransportFactory
}

func defaultDependencies(cfg *config.AppConfig) dependencies {
	return dependencies{
		fetcher: feed.NewGofeedFetcher(feed.Config{
			URL:       cfg.Feed.URL,
			Timeout:   cfg.Feed.Timeout,
			UserAgent: cfg.Feed.UserAgent,
		}),
		transport: newSMTPTransport,
	}
}

func newSMTPTransport(cfg config.SMTPConfig) (sink.Transport, error) {
	return sink.NewSMTPTransport(smtpConfig(cfg))
}

func smtpConfig(cfg config.SMTPConfig) sink.SMTPConfig {
	return sink.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		SSL:      cfg.Protocol == config.ProtocolSMTPS,
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  cfg.Timeout,
	}
}
