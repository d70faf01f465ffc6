package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollectorCountsAndRates(t *testing.T) {
	c := NewCollector()

	c.RecordRequest(10 * time.Millisecond)
	c.RecordRequest(30 * time.Millisecond)
	c.RecordError()

	s := c.Snapshot()
	assert.Equal(t, int64(2), s.TotalRequests)
	assert.Equal(t, int64(1), s.TotalErrors)
	assert.Equal(t, float64(20), s.AvgLatencyMs)
	assert.Equal(t, float64(50), s.ErrorRate)
}

func TestCollectorReset(t *testing.T) {
	c := NewCollector()
	c.RecordRequest(5 * time.Millisecond)
	c.RecordError()

	c.Reset()

	s := c.Snapshot()
	assert.Equal(t, int64(0), s.TotalRequests)
	assert.Equal(t, int64(0), s.TotalErrors)
	assert.Equal(t, float64(0), s.AvgLatencyMs)
	assert.Equal(t, float64(0), s.ErrorRate)
}

func TestCollectorConcurrentUse(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordRequest(time.Millisecond)
			c.RecordError()
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	assert.Equal(t, int64(50), s.TotalRequests)
	assert.Equal(t, int64(50), s.TotalErrors)
}
