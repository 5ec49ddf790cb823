package repository

import (
	"context"
	"sync"
	"time"

	"velorent/internal/models"
)

type MemoryAttemptRepository struct {
	attempts   sync.Map
	rateLimits sync.Map
	ttl        time.Duration
}

type attemptEntry struct {
	attempt   *models.PaymentAttempt
	expiresAt time.Time
}

func NewMemoryAttemptRepository(ttl time.Duration) *MemoryAttemptRepository {
	return &MemoryAttemptRepository{
		ttl: ttl,
	}
}

func (r *MemoryAttemptRepository) GetAttempt(_ context.Context, key string) (*models.PaymentAttempt, error) {
	val, ok := r.attempts.Load(key)
	if !ok {
		return nil, nil
	}
	entry := val.(*attemptEntry)
	if r.ttl > 0 && time.Now().After(entry.expiresAt) {
		r.attempts.Delete(key)
		return nil, nil
	}
	return entry.attempt, nil
}

func (r *MemoryAttemptRepository) SaveAttempt(_ context.Context, attempt *models.PaymentAttempt) error {
	r.attempts.Store(attempt.Key, &attemptEntry{attempt: attempt, expiresAt: time.Now().Add(r.ttl)})
	return nil
}

func (r *MemoryAttemptRepository) DeleteAttempt(_ context.Context, key string) error {
	r.attempts.Delete(key)
	return nil
}

type rateLimitEntry struct {
	mu        sync.Mutex
	count     int
	expiresAt time.Time
}

func (r *MemoryAttemptRepository) CheckRateLimit(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, _ := r.rateLimits.LoadOrStore(key, &rateLimitEntry{expiresAt: now.Add(window)})
	entry := val.(*rateLimitEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if now.After(entry.expiresAt) {
		entry.count = 0
		entry.expiresAt = now.Add(window)
	}
	entry.count++
	return entry.count <= limit, nil
}
