package control

import (
	"testing"
	"time"

	"github.com/vietddude/feedrouter/internal/core/config"
)

func TestSMTPConfigProtocol(t *testing.T) {
	tests := []struct {
		protocol string
		wantSSL  bool
	}{
		{config.ProtocolSMTPS, true},
		{config.ProtocolSMTP, false},
	}

	for _, tt := range tests {
		t.Run(tt.protocol, func(t *testing.T) {
			got := smtpConfig(config.SMTPConfig{
				Host:     "mail.example.com",
				Port:     465,
				Protocol: tt.protocol,
				Username: "bot",
				Password: "pw",
				Timeout:  time.Second,
			})
			if got.SSL != tt.wantSSL {
				t.Errorf("expected SSL=%v, got %v", tt.wantSSL, got.SSL)
			}
			if got.Host != "mail.example.com" || got.Port != 465 || got.Username != "bot" || got.Password != "pw" || got.Timeout != time.Second {
				t.Errorf("settings not carried over: %+v", got)
			}
		})
	}
}
