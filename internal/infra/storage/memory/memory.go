package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/feedrouter/internal/core/domain"
)

type MemoryStorage struct {
	failed map[domain.Category][]*domain.FailedDelivery
	mu     sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		failed: make(map[domain.Category][]*domain.FailedDelivery),
	}
}

// -----------------------------------------------------------------------------
// Failed Delivery Repository
// -----------------------------------------------------------------------------

type FailedRepo struct {
	store *MemoryStorage
}

func NewFailedRepo(store *MemoryStorage) *FailedRepo {
	return &FailedRepo{store: store}
}

func (r *FailedRepo) Add(ctx context.Context, fd *domain.FailedDelivery) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *fd
	r.store.failed[fd.Category] = append(r.store.failed[fd.Category], &cp)
	return nil
}

func (r *FailedRepo) Count(ctx context.Context, category domain.Category) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.failed[category]), nil
}

func (r *FailedRepo) CountSince(ctx context.Context, category domain.Category, since time.Time) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	count := 0
	for _, fd := range r.store.failed[category] {
		if !fd.FailedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *FailedRepo) List(ctx context.Context, category domain.Category, limit int) ([]*domain.FailedDelivery, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	all := r.store.failed[category]
	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	result := make([]*domain.FailedDelivery, 0, limit)
	for _, fd := range all[:limit] {
		cp := *fd
		result = append(result, &cp)
	}
	return result, nil
}

func (r *FailedRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var deleted int64
	for cat, list := range r.store.failed {
		kept := list[:0]
		for _, fd := range list {
			if fd.FailedAt.Before(before) {
				deleted++
				continue
			}
			kept = append(kept, fd)
		}
		r.store.failed[cat] = kept
	}
	return deleted, nil
}
