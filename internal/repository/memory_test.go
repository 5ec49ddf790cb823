package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"velorent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAttemptRepository(t *testing.T) {
	repo := NewMemoryAttemptRepository(time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.SaveAttempt(ctx, &models.PaymentAttempt{Key: "k", ChargeID: "chrg_1"}))
	got, err := repo.GetAttempt(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "chrg_1", got.ChargeID)

	require.NoError(t, repo.DeleteAttempt(ctx, "k"))
	got, err = repo.GetAttempt(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryAttemptExpires(t *testing.T) {
	repo := NewMemoryAttemptRepository(time.Millisecond)
	ctx := context.Background()

	require.NoError(t, repo.SaveAttempt(ctx, &models.PaymentAttempt{Key: "k", ChargeID: "chrg_1"}))
	time.Sleep(5 * time.Millisecond)

	got, err := repo.GetAttempt(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryRateLimitConcurrent(t *testing.T) {
	repo := NewMemoryAttemptRepository(time.Hour)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.CheckRateLimit(ctx, "user:1", 5, time.Minute)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, allowed)
}
