package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptStub answers the allow script from an in-memory counter map.
type scriptStub struct {
	counters map[string]int64
	ttl      int64
	err      error
	keys     []string
}

func (s *scriptStub) run(ctx context.Context, keys []string, args ...interface{}) *redis.Cmd {
	cmd := redis.NewCmd(ctx)
	if s.err != nil {
		cmd.SetErr(s.err)
		return cmd
	}
	s.keys = append(s.keys, keys[0])
	s.counters[keys[0]]++
	if s.counters[keys[0]] == 1 {
		s.ttl = args[0].(int64)
	}
	cmd.SetVal([]interface{}{s.counters[keys[0]], s.ttl})
	return cmd
}

func (s *scriptStub) Eval(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return s.run(ctx, keys, args...)
}

func (s *scriptStub) EvalSha(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return s.run(ctx, keys, args...)
}

func (s *scriptStub) EvalRO(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return s.run(ctx, keys, args...)
}

func (s *scriptStub) EvalShaRO(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return s.run(ctx, keys, args...)
}

func (s *scriptStub) ScriptExists(ctx context.Context, _ ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceCmd(ctx)
}

func (s *scriptStub) ScriptLoad(ctx context.Context, _ string) *redis.StringCmd {
	return redis.NewStringCmd(ctx)
}

func TestRedisLimiter_CountsPerPrefixedKey(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	stub := &scriptStub{counters: map[string]int64{}}
	limiter, err := NewRedisLimiter(stub, "ratelimit:", func() time.Time { return now })
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		decision, err := limiter.Allow(context.Background(), "login:alice", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	}
	decision, err := limiter.Allow(context.Background(), "login:alice", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Zero(t, decision.Remaining)
	assert.Equal(t, now.Add(time.Minute), decision.ResetAt)
	assert.Equal(t, "ratelimit:login:alice", stub.keys[0])
}

func TestRedisLimiter_PropagatesBackendError(t *testing.T) {
	stub := &scriptStub{counters: map[string]int64{}, err: errors.New("connection refused")}
	limiter, err := NewRedisLimiter(stub, "", nil)
	require.NoError(t, err)

	_, err = limiter.Allow(context.Background(), "login:alice", 2, time.Minute)
	assert.Error(t, err)
}

func TestNewRedisLimiter_RequiresClient(t *testing.T) {
	_, err := NewRedisLimiter(nil, "", nil)
	assert.Error(t, err)
}
