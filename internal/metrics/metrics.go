// Package metrics collects request counters for the /metrics endpoint.
// The collector is constructed in main and injected where needed; there
// is no package-level instance.
package metrics

import (
	"sync"
	"time"
)

const maxLatencySamples = 1000

type Collector struct {
	mu            sync.Mutex
	totalRequests int64
	totalErrors   int64
	latencies     []time.Duration
	startTime     time.Time
}

func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// RecordRequest counts one completed request. Only the most recent
// samples contribute to the latency average.
func (c *Collector) RecordRequest(latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRequests++
	c.latencies = append(c.latencies, latency)
	if len(c.latencies) > maxLatencySamples {
		c.latencies = c.latencies[1:]
	}
}

func (c *Collector) RecordError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalErrors++
}

type Snapshot struct {
	TotalRequests int64   `json:"totalRequests"`
	TotalErrors   int64   `json:"totalErrors"`
	AvgLatencyMs  float64 `json:"avgLatencyMs"`
	ErrorRate     float64 `json:"errorRate"`
	UptimeSeconds int64   `json:"uptimeSeconds"`
}

func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		TotalRequests: c.totalRequests,
		TotalErrors:   c.totalErrors,
		UptimeSeconds: int64(time.Since(c.startTime).Seconds()),
	}
	if len(c.latencies) > 0 {
		var sum time.Duration
		for _, l := range c.latencies {
			sum += l
		}
		s.AvgLatencyMs = float64(sum.Milliseconds()) / float64(len(c.latencies))
	}
	if c.totalRequests > 0 {
		s.ErrorRate = float64(c.totalErrors) / float64(c.totalRequests) * 100
	}
	return s
}

// Reset zeroes all counters and restarts the uptime clock.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRequests = 0
	c.totalErrors = 0
	c.latencies = nil
	c.startTime = time.Now()
}
