package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ClientThrottle is a per-client token bucket guarding the unauthenticated
// routes. Clients idle for longer than ttl are forgotten by Sweep.
type ClientThrottle struct {
	mu      sync.Mutex
	clients map[string]*throttledClient
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	now     func() time.Time
}

type throttledClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientThrottleConfig configures a ClientThrottle.
type ClientThrottleConfig struct {
	RequestsPerSecond float64
	Burst             int
	IdleTTL           time.Duration
	Now               func() time.Time
}

// NewClientThrottle builds a throttle. A non-positive rate disables it.
func NewClientThrottle(cfg ClientThrottleConfig) *ClientThrottle {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	limit := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		limit = rate.Inf
	}
	return &ClientThrottle{
		clients: make(map[string]*throttledClient),
		limit:   limit,
		burst:   cfg.Burst,
		ttl:     cfg.IdleTTL,
		now:     cfg.Now,
	}
}

// Allow spends one token from key's bucket.
func (t *ClientThrottle) Allow(key string) bool {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()
	client, ok := t.clients[key]
	if !ok {
		client = &throttledClient{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.clients[key] = client
	}
	client.lastSeen = now
	return client.limiter.AllowN(now, 1)
}

// Sweep drops clients not seen within the idle TTL and returns how many remain.
func (t *ClientThrottle) Sweep() int {
	cutoff := t.now().Add(-t.ttl)

	t.mu.Lock()
	defer t.mu.Unlock()
	for key, client := range t.clients {
		if client.lastSeen.Before(cutoff) {
			delete(t.clients, key)
		}
	}
	return len(t.clients)
}

// Run sweeps every interval until ctx is cancelled.
func (t *ClientThrottle) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.Sweep()
		case <-ctx.Done():
			return
		}
	}
}
