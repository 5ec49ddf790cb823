package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"velorent/internal/config"
	"velorent/internal/models"

	"github.com/redis/go-redis/v9"
)

type RedisAttemptRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient builds a client from config.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisAttemptRepository(client *redis.Client, ttl time.Duration) *RedisAttemptRepository {
	return &RedisAttemptRepository{
		client: client,
		ttl:    ttl,
	}
}

func attemptKey(key string) string {
	return "payment_attempt:" + key
}

func (r *RedisAttemptRepository) GetAttempt(ctx context.Context, key string) (*models.PaymentAttempt, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, attemptKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment attempt from redis: %w", err)
	}

	var attempt models.PaymentAttempt
	if err := json.Unmarshal([]byte(val), &attempt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payment attempt: %w", err)
	}
	return &attempt, nil
}

func (r *RedisAttemptRepository) SaveAttempt(ctx context.Context, attempt *models.PaymentAttempt) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("failed to marshal payment attempt: %w", err)
	}
	if err := r.client.Set(ctx, attemptKey(attempt.Key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set payment attempt in redis: %w", err)
	}
	return nil
}

func (r *RedisAttemptRepository) DeleteAttempt(ctx context.Context, key string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, attemptKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete payment attempt from redis: %w", err)
	}
	return nil
}

// CheckRateLimit counts hits on key in a fixed window.
func (r *RedisAttemptRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	rk := "rate_limit:" + key
	count, err := r.client.Incr(ctx, rk).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		r.client.Expire(ctx, rk, window)
	}

	return count <= int64(limit), nil
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
