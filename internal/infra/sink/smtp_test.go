package sink

import (
	"testing"
	"time"

	"github.com/wneessen/go-mail"
)

func TestSMTPSettings(t *testing.T) {
	tests := []struct {
		name string
		cfg  SMTPConfig
		want smtpSettings
	}{
		{
			name: "smtps with credentials",
			cfg:  SMTPConfig{Host: "mail.example.com", Port: 465, SSL: true, Username: "bot", Password: "pw"},
			want: smtpSettings{port: 465, ssl: true, tlsPolicy: mail.NoTLS, auth: true},
		},
		{
			name: "smtp with credentials",
			cfg:  SMTPConfig{Host: "mail.example.com", Port: 587, Username: "bot", Password: "pw"},
			want: smtpSettings{port: 587, tlsPolicy: mail.TLSOpportunistic, auth: true},
		},
		{
			name: "smtp without credentials",
			cfg:  SMTPConfig{Host: "mail.example.com", Port: 25},
			want: smtpSettings{port: 25, tlsPolicy: mail.TLSOpportunistic},
		},
		{
			name: "password alone does not enable auth",
			cfg:  SMTPConfig{Host: "mail.example.com", Port: 25, Password: "pw"},
			want: smtpSettings{port: 25, tlsPolicy: mail.TLSOpportunistic},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := settingsFor(tt.cfg)
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}

			wantOpts := 2 // port + tls mode
			if tt.want.auth {
				wantOpts += 3
			}
			if n := len(got.options(tt.cfg)); n != wantOpts {
				t.Errorf("expected %d options, got %d", wantOpts, n)
			}
		})
	}
}

func TestNewSMTPTransport(t *testing.T) {
	tr, err := NewSMTPTransport(SMTPConfig{
		Host:     "mail.example.com",
		Port:     465,
		SSL:      true,
		Username: "bot",
		Password: "pw",
		Timeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewSMTPTransport failed: %v", err)
	}
	if got := tr.client.ServerAddr(); got != "mail.example.com:465" {
		t.Errorf("unexpected server address %q", got)
	}

	tr, err = NewSMTPTransport(SMTPConfig{Host: "mail.example.com", Port: 25})
	if err != nil {
		t.Fatalf("NewSMTPTransport failed: %v", err)
	}
	if got := tr.client.TLSPolicy(); got != mail.TLSOpportunistic.String() {
		t.Errorf("expected opportunistic TLS, got %q", got)
	}

	if _, err := NewSMTPTransport(SMTPConfig{Port: 25}); err == nil {
		t.Error("expected error without host")
	}
}
