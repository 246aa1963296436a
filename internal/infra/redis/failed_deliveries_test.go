package redis

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/vietddude/feedrouter/internal/core/domain"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client, err := NewClient(Config{URL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestNewClient_InvalidURL(t *testing.T) {
	if _, err := NewClient(Config{URL: "not-a-url"}); err == nil {
		t.Fatal("expected error for invalid URL")
	}
}

func TestFailedDeliveryRepo_AddListCount(t *testing.T) {
	client, _ := newTestClient(t)
	repo := NewFailedDeliveryRepo(client, "test")
	ctx := context.Background()
	now := time.Now()

	first := &domain.FailedDelivery{
		ID:         "id-1",
		Category:   domain.CategoryNews,
		Sink:       "mail",
		EntryID:    "entry-1",
		Title:      "X",
		Link:       "http://a",
		Categories: []string{"news"},
		Error:      "connection refused",
		FailedAt:   now.Add(-time.Minute),
	}
	second := &domain.FailedDelivery{
		ID:       "id-2",
		Category: domain.CategoryNews,
		Sink:     "mail",
		EntryID:  "entry-2",
		Error:    "auth failed",
		FailedAt: now,
	}
	for _, fd := range []*domain.FailedDelivery{second, first} {
		if err := repo.Add(ctx, fd); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	count, err := repo.Count(ctx, domain.CategoryNews)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2, got %d", count)
	}

	list, err := repo.List(ctx, domain.CategoryNews, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 records, got %d", len(list))
	}
	if list[0].ID != "id-1" || list[1].ID != "id-2" {
		t.Errorf("expected oldest first, got %s, %s", list[0].ID, list[1].ID)
	}
	if list[0].Title != "X" || list[0].Error != "connection refused" {
		t.Errorf("record not round-tripped: %+v", list[0])
	}

	limited, _ := repo.List(ctx, domain.CategoryNews, 1)
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}

	if n, _ := repo.Count(ctx, domain.CategoryReleases); n != 0 {
		t.Errorf("expected no release failures, got %d", n)
	}
}

func TestFailedDeliveryRepo_DeleteOlderThan(t *testing.T) {
	client, mr := newTestClient(t)
	repo := NewFailedDeliveryRepo(client, "")
	ctx := context.Background()
	now := time.Now()

	records := []*domain.FailedDelivery{
		{ID: "old-news", Category: domain.CategoryNews, FailedAt: now.Add(-48 * time.Hour)},
		{ID: "old-rel", Category: domain.CategoryReleases, FailedAt: now.Add(-48 * time.Hour)},
		{ID: "new-news", Category: domain.CategoryNews, FailedAt: now},
	}
	for _, fd := range records {
		if err := repo.Add(ctx, fd); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	deleted, err := repo.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteOlderThan failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}

	if mr.Exists("feedrouter:failed_delivery:old-news") {
		t.Error("expected old record payload to be removed")
	}
	if !mr.Exists("feedrouter:failed_delivery:new-news") {
		t.Error("expected recent record payload to remain")
	}
	if n, _ := repo.Count(ctx, domain.CategoryNews); n != 1 {
		t.Errorf("expected 1 news failure left, got %d", n)
	}
}

func TestFailedDeliveryRepo_ListDropsDanglingIDs(t *testing.T) {
	client, mr := newTestClient(t)
	repo := NewFailedDeliveryRepo(client, "")
	ctx := context.Background()

	if err := repo.Add(ctx, &domain.FailedDelivery{ID: "gone", Category: domain.CategoryNews, FailedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	mr.Del("feedrouter:failed_delivery:gone")

	list, err := repo.List(ctx, domain.CategoryNews, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected dangling id to be skipped, got %d records", len(list))
	}
	if n, _ := repo.Count(ctx, domain.CategoryNews); n != 0 {
		t.Errorf("expected dangling id to be removed, count %d", n)
	}
}

func TestFailedDeliveryRepo_CountSince(t *testing.T) {
	client, _ := newTestClient(t)
	repo := NewFailedDeliveryRepo(client, "")
	ctx := context.Background()
	now := time.Now()

	for _, fd := range []*domain.FailedDelivery{
		{ID: "old", Category: domain.CategoryNews, FailedAt: now.Add(-time.Hour)},
		{ID: "new", Category: domain.CategoryNews, FailedAt: now},
	} {
		if err := repo.Add(ctx, fd); err != nil {
			t.Fatal(err)
		}
	}

	n, err := repo.CountSince(ctx, domain.CategoryNews, now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("CountSince failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 recent failure, got %d", n)
	}
}

func TestFailedDeliveryRepo_ListLogsUnreadableRecords(t *testing.T) {
	client, mr := newTestClient(t)
	repo := NewFailedDeliveryRepo(client, "")
	ctx := context.Background()

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	for _, id := range []string{"good", "bad"} {
		if err := repo.Add(ctx, &domain.FailedDelivery{ID: id, Category: domain.CategoryNews, FailedAt: time.Now()}); err != nil {
			t.Fatal(err)
		}
	}
	if err := mr.Set("feedrouter:failed_delivery:bad", "{not json"); err != nil {
		t.Fatal(err)
	}

	list, err := repo.List(ctx, domain.CategoryNews, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != "good" {
		t.Errorf("expected only the readable record, got %d records", len(list))
	}
	if !strings.Contains(buf.String(), "Skipping unreadable failed delivery") || !strings.Contains(buf.String(), "id=bad") {
		t.Errorf("expected warning for unreadable record, got %q", buf.String())
	}
}
