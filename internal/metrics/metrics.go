package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Counter and latency names recorded by the services.
const (
	OrdersCreated           = "orders_created"
	OrdersFailed            = "orders_failed"
	OrderStatusUpdates      = "order_status_updates"
	PreferenceTouchFailures = "preference_touch_failures"
	EventsPublished         = "events_published"
	EventsFailed            = "events_failed"
	RateLimited             = "rate_limited"

	OrderCreateLatency = "order_create"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

type latency struct {
	mu    sync.Mutex
	count uint64
	total time.Duration
	max   time.Duration
}

type LatencySnapshot struct {
	Count   uint64  `json:"count"`
	TotalMS float64 `json:"total_ms"`
	MaxMS   float64 `json:"max_ms"`
}

type Snapshot struct {
	Counters  map[string]uint64          `json:"counters"`
	Latencies map[string]LatencySnapshot `json:"latencies"`
}

// Registry is a process-wide set of named counters and latencies.
// The zero value is not usable; call NewRegistry.
type Registry struct {
	mu        sync.RWMutex
	counters  map[string]*Counter
	latencies map[string]*latency
}

func NewRegistry() *Registry {
	return &Registry{
		counters:  make(map[string]*Counter),
		latencies: make(map[string]*latency),
	}
}

// Counter returns the counter registered under name, creating it on first use.
func (r *Registry) Counter(name string) *Counter {
	r.mu.RLock()
	c, ok := r.counters[name]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok = r.counters[name]; !ok {
		c = &Counter{}
		r.counters[name] = c
	}
	return c
}

func (r *Registry) Inc(name string) {
	r.Counter(name).Inc()
}

func (r *Registry) Observe(name string, d time.Duration) {
	r.mu.RLock()
	l, ok := r.latencies[name]
	r.mu.RUnlock()
	if !ok {
		r.mu.Lock()
		if l, ok = r.latencies[name]; !ok {
			l = &latency{}
			r.latencies[name] = l
		}
		r.mu.Unlock()
	}

	l.mu.Lock()
	l.count++
	l.total += d
	if d > l.max {
		l.max = d
	}
	l.mu.Unlock()
}

// ObserveSince records the time elapsed on t under name.
func (r *Registry) ObserveSince(name string, t *Timer) {
	r.Observe(name, t.Duration())
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Snapshot{
		Counters:  make(map[string]uint64, len(r.counters)),
		Latencies: make(map[string]LatencySnapshot, len(r.latencies)),
	}
	for name, c := range r.counters {
		s.Counters[name] = c.Load()
	}
	for name, l := range r.latencies {
		l.mu.Lock()
		s.Latencies[name] = LatencySnapshot{
			Count:   l.count,
			TotalMS: float64(l.total) / float64(time.Millisecond),
			MaxMS:   float64(l.max) / float64(time.Millisecond),
		}
		l.mu.Unlock()
	}
	return s
}
