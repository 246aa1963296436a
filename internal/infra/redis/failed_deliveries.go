package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/feedrouter/internal/core/domain"
)

const defaultKeyPrefix = "feedrouter"

// FailedDeliveryRepo implements FailedDeliveryRepository using Redis.
// Each category keeps a sorted set of record ids scored by failure time;
// the records themselves are stored as JSON strings.
type FailedDeliveryRepo struct {
	rdb    *redis.Client
	prefix string
}

// NewFailedDeliveryRepo creates a new Redis-backed failed delivery repository.
func NewFailedDeliveryRepo(client *Client, prefix string) *FailedDeliveryRepo {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &FailedDeliveryRepo{
		rdb:    client.rdb,
		prefix: prefix,
	}
}

// Key helpers
func (r *FailedDeliveryRepo) queueKey(category domain.Category) string {
	return fmt.Sprintf("%s:failed_deliveries:%s", r.prefix, category)
}

func (r *FailedDeliveryRepo) recordKey(id string) string {
	return fmt.Sprintf("%s:failed_delivery:%s", r.prefix, id)
}

func (r *FailedDeliveryRepo) categoriesKey() string {
	return fmt.Sprintf("%s:failed_categories", r.prefix)
}

// Add stores a failed delivery.
func (r *FailedDeliveryRepo) Add(ctx context.Context, fd *domain.FailedDelivery) error {
	data, err := json.Marshal(fd)
	if err != nil {
		return fmt.Errorf("failed to marshal failed delivery: %w", err)
	}

	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, r.recordKey(fd.ID), data, 0)
	pipe.ZAdd(ctx, r.queueKey(fd.Category), redis.Z{
		Score:  float64(fd.FailedAt.UnixMilli()),
		Member: fd.ID,
	})
	pipe.SAdd(ctx, r.categoriesKey(), string(fd.Category))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to add failed delivery: %w", err)
	}
	return nil
}

// Count returns the number of failed deliveries for a category.
func (r *FailedDeliveryRepo) Count(ctx context.Context, category domain.Category) (int, error) {
	count, err := r.rdb.ZCard(ctx, r.queueKey(category)).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard failed: %w", err)
	}
	return int(count), nil
}

// CountSince returns the number of failed deliveries for a category
// recorded at or after since.
func (r *FailedDeliveryRepo) CountSince(ctx context.Context, category domain.Category, since time.Time) (int, error) {
	minScore := strconv.FormatInt(since.UnixMilli(), 10)
	count, err := r.rdb.ZCount(ctx, r.queueKey(category), minScore, "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("zcount failed: %w", err)
	}
	return int(count), nil
}

// List returns failed deliveries for a category, oldest first.
func (r *FailedDeliveryRepo) List(
	ctx context.Context,
	category domain.Category,
	limit int,
) ([]*domain.FailedDelivery, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	ids, err := r.rdb.ZRange(ctx, r.queueKey(category), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange failed: %w", err)
	}

	records := make([]*domain.FailedDelivery, 0, len(ids))
	for _, id := range ids {
		data, err := r.rdb.Get(ctx, r.recordKey(id)).Bytes()
		if err == redis.Nil {
			// Record gone but id still queued, drop the dangling id
			if err := r.rdb.ZRem(ctx, r.queueKey(category), id).Err(); err != nil {
				slog.Warn("Failed to remove dangling failed delivery id", "category", category, "id", id, "error", err)
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get failed delivery: %w", err)
		}

		var fd domain.FailedDelivery
		if err := json.Unmarshal(data, &fd); err != nil {
			slog.Warn("Skipping unreadable failed delivery", "category", category, "id", id, "error", err)
			continue
		}
		records = append(records, &fd)
	}

	return records, nil
}

// DeleteOlderThan removes failed deliveries recorded before the given time.
func (r *FailedDeliveryRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	categories, err := r.rdb.SMembers(ctx, r.categoriesKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("smembers failed: %w", err)
	}

	// Exclusive upper bound
	maxScore := "(" + strconv.FormatInt(before.UnixMilli(), 10)

	var deleted int64
	for _, c := range categories {
		key := r.queueKey(domain.Category(c))
		ids, err := r.rdb.ZRangeByScore(ctx, key, &redis.ZRangeBy{Min: "-inf", Max: maxScore}).Result()
		if err != nil {
			return deleted, fmt.Errorf("zrangebyscore failed: %w", err)
		}
		if len(ids) == 0 {
			continue
		}

		pipe := r.rdb.TxPipeline()
		for _, id := range ids {
			pipe.Del(ctx, r.recordKey(id))
		}
		pipe.ZRemRangeByScore(ctx, key, "-inf", maxScore)
		if _, err := pipe.Exec(ctx); err != nil {
			return deleted, fmt.Errorf("failed to prune failed deliveries: %w", err)
		}
		deleted += int64(len(ids))
	}

	return deleted, nil
}
