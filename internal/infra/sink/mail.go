package sink

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/vietddude/feedrouter/internal/core/domain"
)

// Message is a single plain-text mail.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Transport submits a message to a mail server.
type Transport interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// MailConfig holds the addressing of a mail sink.
type MailConfig struct {
	From          string
	To            string
	Subject       string
	RatePerMinute int // 0 = unlimited
}

// MailSink sends every record as its own mail.
type MailSink struct {
	cfg       MailConfig
	transport Transport
	limiter   *rate.Limiter
}

// NewMailSink creates a mail sink on top of a transport.
func NewMailSink(cfg MailConfig, transport Transport) *MailSink {
	s := &MailSink{cfg: cfg, transport: transport}
	if cfg.RatePerMinute > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RatePerMinute)/60.0), 1)
	}
	return s
}

// Name implements Sink.
func (s *MailSink) Name() string { return "mail" }

// Deliver implements Sink. Transport failures are returned as-is; the
// caller decides what to do with them.
func (s *MailSink) Deliver(ctx context.Context, rec domain.FormattedRecord) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("mail rate limit: %w", err)
		}
	}

	msg := Message{
		From:    s.cfg.From,
		To:      s.cfg.To,
		Subject: s.cfg.Subject,
		Body:    rec.Text,
	}
	if err := s.transport.Send(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// Close implements Sink.
func (s *MailSink) Close() error {
	return s.transport.Close()
}
