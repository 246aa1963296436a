package pipeline

import (
	"strings"
	"testing"

	"github.com/vietddude/feedrouter/internal/core/domain"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name  string
		entry domain.Entry
		want  string
	}{
		{"title and link", domain.Entry{ID: "1", Title: "X", Link: "http://a"}, "《X》http://a\n"},
		{"missing title", domain.Entry{ID: "2", Link: "http://b"}, "《》http://b\n"},
		{"missing link", domain.Entry{ID: "3", Title: "Y"}, "《Y》\n"},
		{"wrapped title", domain.Entry{ID: "5", Title: "Spring Boot\n  3.2 released", Link: "http://a"}, "《Spring Boot 3.2 released》http://a\n"},
		{"line break in link", domain.Entry{ID: "6", Title: "Z", Link: "\r\nhttp://e\n"}, "《Z》http://e\n"},
		{"unicode title", domain.Entry{ID: "4", Title: "发布 v1.0", Link: "https://c/d"}, "《发布 v1.0》https://c/d\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Render(domain.RoutedMessage{Entry: tt.entry, Category: domain.CategoryNews})
			if rec.Text != tt.want {
				t.Errorf("expected %q, got %q", tt.want, rec.Text)
			}
			if n := strings.Count(rec.Text, "\n"); n != 1 {
				t.Errorf("expected exactly one line, got %d", n)
			}
			if rec.EntryID != tt.entry.ID || rec.Category != domain.CategoryNews {
				t.Errorf("unexpected record metadata: %+v", rec)
			}
		})
	}
}
