package api

import (
	"testing"
	"time"

	"velorent/internal/config"

	"github.com/stretchr/testify/assert"
)

func (l *rateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func TestRateLimiterPerKeyBuckets(t *testing.T) {
	l := newRateLimiter(config.RateLimitConfig{RPS: 1, Burst: 2})
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("user:1"))
	assert.True(t, l.allow("user:1"))
	assert.False(t, l.allow("user:1"))
	assert.True(t, l.allow("user:2"), "other clients keep their own bucket")

	now = now.Add(time.Second)
	assert.True(t, l.allow("user:1"), "one token refilled")
}

func TestRateLimiterDefaults(t *testing.T) {
	assert.False(t, newRateLimiter(config.RateLimitConfig{}).enabled())

	l := newRateLimiter(config.RateLimitConfig{RPS: 0.001})
	assert.True(t, l.enabled())
	for i := 0; i < defaultBurst; i++ {
		assert.True(t, l.allow("ip:127.0.0.1"))
	}
	assert.False(t, l.allow("ip:127.0.0.1"))
}

func TestRateLimiterSweepsIdleBuckets(t *testing.T) {
	l := newRateLimiter(config.RateLimitConfig{RPS: 1, Burst: 1})
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.allow("ip:1")
	l.allow("ip:2")
	assert.Equal(t, 2, l.size())

	now = now.Add(bucketIdle / 2)
	l.allow("ip:2")

	now = now.Add(bucketIdle/2 + time.Second)
	l.allow("ip:3")
	assert.Equal(t, 2, l.size(), "ip:1 was idle past the limit")

	now = now.Add(2 * bucketIdle)
	l.allow("ip:3")
	assert.Equal(t, 1, l.size())
}
