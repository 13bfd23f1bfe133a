package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_BlocksAfterLimit(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(MemoryLimiterConfig{Now: func() time.Time { return now }})

	for i := 0; i < 3; i++ {
		decision, err := limiter.Allow(context.Background(), "login:alice", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, 2-i, decision.Remaining)
	}

	decision, err := limiter.Allow(context.Background(), "login:alice", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, now.Add(time.Minute), decision.ResetAt)

	other, err := limiter.Allow(context.Background(), "login:bob", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestMemoryLimiter_WindowResets(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(MemoryLimiterConfig{Now: func() time.Time { return now }})

	_, err := limiter.Allow(context.Background(), "k", 1, time.Minute)
	require.NoError(t, err)
	blocked, err := limiter.Allow(context.Background(), "k", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	now = now.Add(time.Minute)
	decision, err := limiter.Allow(context.Background(), "k", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestMemoryLimiter_NonPositiveLimitAllows(t *testing.T) {
	limiter := NewMemoryLimiter(MemoryLimiterConfig{})
	decision, err := limiter.Allow(context.Background(), "k", 0, time.Minute)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestMemoryLimiter_CapacityExceeded(t *testing.T) {
	limiter := NewMemoryLimiter(MemoryLimiterConfig{MaxKeys: 1})
	_, err := limiter.Allow(context.Background(), "a", 5, time.Minute)
	require.NoError(t, err)
	_, err = limiter.Allow(context.Background(), "b", 5, time.Minute)
	assert.Error(t, err)
}
