package repository

import (
	"context"
	"testing"
	"time"

	"velorent/internal/config"
	"velorent/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailoverAttemptRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)

	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	defer Close(client)

	primary := NewRedisAttemptRepository(client, time.Hour)
	fallback := NewMemoryAttemptRepository(time.Hour)
	logger := zerolog.Nop()
	repo := NewFailoverAttemptRepository(primary, fallback, &logger)
	ctx := context.Background()

	require.NoError(t, repo.SaveAttempt(ctx, &models.PaymentAttempt{Key: "up", ChargeID: "chrg_up"}))
	got, err := repo.GetAttempt(ctx, "up")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, repo.isDown.Load())

	s.Close()

	require.NoError(t, repo.SaveAttempt(ctx, &models.PaymentAttempt{Key: "down", ChargeID: "chrg_down"}))
	assert.True(t, repo.isDown.Load())

	got, err = repo.GetAttempt(ctx, "down")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "chrg_down", got.ChargeID)

	allowed, err := repo.CheckRateLimit(ctx, "pay:1", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}
