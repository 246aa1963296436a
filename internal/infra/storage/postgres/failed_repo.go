package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/vietddude/feedrouter/internal/core/domain"
)

// FailedDeliveryRepo implements storage.FailedDeliveryRepository using PostgreSQL.
type FailedDeliveryRepo struct {
	db *DB
}

// NewFailedDeliveryRepo creates a new PostgreSQL failed delivery repository.
func NewFailedDeliveryRepo(db *DB) *FailedDeliveryRepo {
	return &FailedDeliveryRepo{db: db}
}

type failedRow struct {
	ID         string         `db:"id"`
	Category   string         `db:"category"`
	Sink       string         `db:"sink"`
	EntryID    string         `db:"entry_id"`
	Title      string         `db:"title"`
	Link       string         `db:"link"`
	Categories pq.StringArray `db:"categories"`
	ErrorMsg   string         `db:"error_msg"`
	FailedAt   time.Time      `db:"failed_at"`
}

func (r failedRow) toDomain() *domain.FailedDelivery {
	return &domain.FailedDelivery{
		ID:         r.ID,
		Category:   domain.Category(r.Category),
		Sink:       r.Sink,
		EntryID:    r.EntryID,
		Title:      r.Title,
		Link:       r.Link,
		Categories: []string(r.Categories),
		Error:      r.ErrorMsg,
		FailedAt:   r.FailedAt,
	}
}

// Add adds a failed delivery.
func (r *FailedDeliveryRepo) Add(ctx context.Context, fd *domain.FailedDelivery) error {
	query := `
		INSERT INTO failed_deliveries (id, category, sink, entry_id, title, link, categories, error_msg, failed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	categories := fd.Categories
	if categories == nil {
		categories = []string{}
	}

	_, err := r.db.ExecContext(
		ctx,
		query,
		fd.ID,
		string(fd.Category),
		fd.Sink,
		fd.EntryID,
		fd.Title,
		fd.Link,
		pq.Array(categories),
		fd.Error,
		fd.FailedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add failed delivery: %w", err)
	}
	return nil
}

// Count returns the number of failed deliveries for a category.
func (r *FailedDeliveryRepo) Count(ctx context.Context, category domain.Category) (int, error) {
	query := `SELECT COUNT(*) FROM failed_deliveries WHERE category = $1`

	var count int
	if err := r.db.GetContext(ctx, &count, query, string(category)); err != nil {
		return 0, fmt.Errorf("failed to count failed deliveries: %w", err)
	}
	return count, nil
}

// CountSince returns the number of failed deliveries for a category recorded
// at or after since.
func (r *FailedDeliveryRepo) CountSince(ctx context.Context, category domain.Category, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM failed_deliveries WHERE category = $1 AND failed_at >= $2`

	var count int
	if err := r.db.GetContext(ctx, &count, query, string(category), since); err != nil {
		return 0, fmt.Errorf("failed to count recent failed deliveries: %w", err)
	}
	return count, nil
}

// List returns failed deliveries for a category, oldest first.
func (r *FailedDeliveryRepo) List(
	ctx context.Context,
	category domain.Category,
	limit int,
) ([]*domain.FailedDelivery, error) {
	query := `
		SELECT id, category, sink, entry_id, title, link, categories, error_msg, failed_at
		FROM failed_deliveries
		WHERE category = $1
		ORDER BY failed_at ASC
	`
	args := []any{string(category)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	var rows []failedRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list failed deliveries: %w", err)
	}

	result := make([]*domain.FailedDelivery, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

// DeleteOlderThan removes failed deliveries recorded before the given time.
func (r *FailedDeliveryRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM failed_deliveries WHERE failed_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune failed deliveries: %w", err)
	}
	return res.RowsAffected()
}
