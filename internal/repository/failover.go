package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"velorent/internal/domain"
	"velorent/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverAttemptRepository uses primary until it errors, then serves from fallback
// and probes primary again once per recoveryInterval.
type FailoverAttemptRepository struct {
	primary   domain.AttemptStore
	fallback  domain.AttemptStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverAttemptRepository(primary, fallback domain.AttemptStore, logger *zerolog.Logger) *FailoverAttemptRepository {
	return &FailoverAttemptRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverAttemptRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary attempt store failed, falling back to memory")
	r.isDown.Store(true)
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
}

// usePrimary reports whether the primary should be tried for this call.
func (r *FailoverAttemptRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastCheck) > recoveryInterval {
		r.lastCheck = time.Now()
		return true
	}
	return false
}

func (r *FailoverAttemptRepository) GetAttempt(ctx context.Context, key string) (*models.PaymentAttempt, error) {
	if r.usePrimary() {
		attempt, err := r.primary.GetAttempt(ctx, key)
		if err == nil {
			r.isDown.Store(false)
			if attempt != nil {
				return attempt, nil
			}
			// written while primary was down
			return r.fallback.GetAttempt(ctx, key)
		}
		r.markDown(err)
	}
	return r.fallback.GetAttempt(ctx, key)
}

func (r *FailoverAttemptRepository) SaveAttempt(ctx context.Context, attempt *models.PaymentAttempt) error {
	if r.usePrimary() {
		err := r.primary.SaveAttempt(ctx, attempt)
		if err == nil {
			r.isDown.Store(false)
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.SaveAttempt(ctx, attempt)
}

func (r *FailoverAttemptRepository) DeleteAttempt(ctx context.Context, key string) error {
	if r.usePrimary() {
		if err := r.primary.DeleteAttempt(ctx, key); err != nil {
			r.markDown(err)
		}
	}
	return r.fallback.DeleteAttempt(ctx, key)
}

func (r *FailoverAttemptRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			r.isDown.Store(false)
			return allowed, nil
		}
		r.markDown(err)
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
