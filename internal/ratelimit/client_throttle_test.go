package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientThrottle_BurstThenRefill(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	throttle := NewClientThrottle(ClientThrottleConfig{
		RequestsPerSecond: 1,
		Burst:             2,
		Now:               func() time.Time { return now },
	})

	assert.True(t, throttle.Allow("10.0.0.1"))
	assert.True(t, throttle.Allow("10.0.0.1"))
	assert.False(t, throttle.Allow("10.0.0.1"))
	assert.True(t, throttle.Allow("10.0.0.2"))

	now = now.Add(time.Second)
	assert.True(t, throttle.Allow("10.0.0.1"))
	assert.False(t, throttle.Allow("10.0.0.1"))
}

func TestClientThrottle_Disabled(t *testing.T) {
	throttle := NewClientThrottle(ClientThrottleConfig{})
	for i := 0; i < 100; i++ {
		assert.True(t, throttle.Allow("10.0.0.1"))
	}
}

func TestClientThrottle_SweepForgetsIdleClients(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	throttle := NewClientThrottle(ClientThrottleConfig{
		RequestsPerSecond: 1,
		Burst:             1,
		IdleTTL:           time.Minute,
		Now:               func() time.Time { return now },
	})

	throttle.Allow("10.0.0.1")
	now = now.Add(30 * time.Second)
	throttle.Allow("10.0.0.2")

	now = now.Add(45 * time.Second)
	assert.Equal(t, 1, throttle.Sweep())

	// A forgotten client starts with a full bucket.
	assert.True(t, throttle.Allow("10.0.0.1"))
}
