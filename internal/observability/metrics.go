package observability

import (
	"sync"
	"time"
)

// Metrics keeps in-process request counters for the admin listener. Routes are
// keyed by method and route pattern, never by raw path.
type Metrics struct {
	mu     sync.Mutex
	routes map[string]*routeStats
	errors map[string]int64
}

type routeStats struct {
	requests     int64
	failures     int64
	byStatus     map[int]int64
	totalLatency time.Duration
	maxLatency   time.Duration
}

// RouteSnapshot summarizes one route.
type RouteSnapshot struct {
	Requests     int64         `json:"requests"`
	Failures     int64         `json:"failures"`
	ByStatus     map[int]int64 `json:"by_status"`
	AvgLatencyMs float64       `json:"avg_latency_ms"`
	MaxLatencyMs float64       `json:"max_latency_ms"`
}

// Snapshot is a point-in-time copy of the counters. Errors is keyed by error code.
type Snapshot struct {
	Routes map[string]RouteSnapshot `json:"routes"`
	Errors map[string]int64         `json:"errors"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		routes: make(map[string]*routeStats),
		errors: make(map[string]int64),
	}
}

// RecordRequest counts a completed request.
func (m *Metrics) RecordRequest(route, method string, status int, latency time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := m.route(route, method)
	stats.requests++
	stats.byStatus[status]++
	stats.totalLatency += latency
	if latency > stats.maxLatency {
		stats.maxLatency = latency
	}
}

// RecordError counts a request that ended with an error code.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.route(route, method).failures++
	m.errors[code]++
}

func (m *Metrics) route(route, method string) *routeStats {
	key := method + " " + route
	stats, ok := m.routes[key]
	if !ok {
		stats = &routeStats{byStatus: make(map[int]int64)}
		m.routes[key] = stats
	}
	return stats
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Routes: map[string]RouteSnapshot{},
		Errors: map[string]int64{},
	}
	if m == nil {
		return snap
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, stats := range m.routes {
		route := RouteSnapshot{
			Requests:     stats.requests,
			Failures:     stats.failures,
			ByStatus:     make(map[int]int64, len(stats.byStatus)),
			MaxLatencyMs: millis(stats.maxLatency),
		}
		for status, n := range stats.byStatus {
			route.ByStatus[status] = n
		}
		if stats.requests > 0 {
			route.AvgLatencyMs = millis(stats.totalLatency / time.Duration(stats.requests))
		}
		snap.Routes[key] = route
	}
	for code, n := range m.errors {
		snap.Errors[code] = n
	}
	return snap
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
