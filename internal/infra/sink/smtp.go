package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds SMTP submission settings.
type SMTPConfig struct {
	Host     string
	Port     int
	SSL      bool // implicit TLS (smtps)
	Username string
	Password string
	Timeout  time.Duration
}

// SMTPTransport dials the server for every message.
type SMTPTransport struct {
	client *mail.Client
}

// smtpSettings is the go-mail client setup derived from an SMTPConfig.
type smtpSettings struct {
	port      int
	ssl       bool
	tlsPolicy mail.TLSPolicy
	auth      bool
}

func settingsFor(cfg SMTPConfig) smtpSettings {
	s := smtpSettings{
		port:      cfg.Port,
		ssl:       cfg.SSL,
		tlsPolicy: mail.TLSOpportunistic,
		auth:      cfg.Username != "",
	}
	if cfg.SSL {
		// Implicit TLS wraps the whole session, STARTTLS is not negotiated
		s.tlsPolicy = mail.NoTLS
	}
	return s
}

func (s smtpSettings) options(cfg SMTPConfig) []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.port),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if s.ssl {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(s.tlsPolicy))
	}
	if s.auth {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	return opts
}

// NewSMTPTransport builds a transport. It does not connect.
func NewSMTPTransport(cfg SMTPConfig) (*SMTPTransport, error) {
	client, err := mail.NewClient(cfg.Host, settingsFor(cfg).options(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return &SMTPTransport{client: client}, nil
}

// Send implements Transport.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	return t.client.DialAndSendWithContext(ctx, m)
}

// Close implements Transport. Connections are not kept between sends.
func (t *SMTPTransport) Close() error {
	return t.client.Close()
}
