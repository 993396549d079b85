package logger

import (
	"sort"
	"sync"
	"time"
)

// Metrics tracks counters and timings for one harvest run.
// All operations are safe for concurrent use.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
	timings  map[string][]time.Duration
}

// NewMetrics creates an empty tracker
func NewMetrics() *Metrics {
	return &Metrics{
		counters: make(map[string]int64),
		timings:  make(map[string][]time.Duration),
	}
}

// Add increments counter name by delta
func (m *Metrics) Add(name string, delta int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] += delta
}

// IncrCounter increments counter name by one
func (m *Metrics) IncrCounter(name string) {
	m.Add(name, 1)
}

// Counter returns the current value of a counter
func (m *Metrics) Counter(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

// RecordTiming records one duration measurement under name
func (m *Metrics) RecordTiming(name string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timings[name] = append(m.timings[name], d)
}

// Time runs fn and records how long it took
func (m *Metrics) Time(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	m.RecordTiming(name, time.Since(start))
	return err
}

// Snapshot returns a copy of all metrics suitable for logging. Timings are
// summarized as count, total, average and max.
func (m *Metrics) Snapshot() Fields {
	m.mu.Lock()
	defer m.mu.Unlock()

	counters := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		counters[k] = v
	}

	names := make([]string, 0, len(m.timings))
	for name := range m.timings {
		names = append(names, name)
	}
	sort.Strings(names)

	timings := make(map[string]map[string]interface{}, len(names))
	for _, name := range names {
		durations := m.timings[name]
		if len(durations) == 0 {
			continue
		}

		var total, max time.Duration
		for _, d := range durations {
			total += d
			if d > max {
				max = d
			}
		}

		timings[name] = map[string]interface{}{
			"count":   len(durations),
			"total":   total.String(),
			"average": (total / time.Duration(len(durations))).String(),
			"max":     max.String(),
		}
	}

	return Fields{
		"counters": counters,
		"timings":  timings,
	}
}
