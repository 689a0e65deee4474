package testdoubles

import (
	"maps"
	"sync"
	"time"
)

// MetricRecord is one captured metrics call.
type MetricRecord struct {
	Metric   string
	Duration time.Duration
	Value    float64
	Labels   map[string]string
}

// MetricsCollectorSpy captures all metrics calls.
type MetricsCollectorSpy struct {
	mu        sync.Mutex
	durations []MetricRecord
	counters  []MetricRecord
	values    []MetricRecord
}

func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{}
}

func (c *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.durations = append(c.durations, MetricRecord{Metric: metric, Duration: duration, Labels: maps.Clone(labels)})
}

func (c *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters = append(c.counters, MetricRecord{Metric: metric, Labels: maps.Clone(labels)})
}

func (c *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = append(c.values, MetricRecord{Metric: metric, Value: value, Labels: maps.Clone(labels)})
}

// CounterCalls counts IncrementCounter calls for metric whose labels contain all of want.
func (c *MetricsCollectorSpy) CounterCalls(metric string, want map[string]string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return countMatching(c.counters, metric, want)
}

// DurationCalls counts RecordDuration calls for metric whose labels contain all of want.
func (c *MetricsCollectorSpy) DurationCalls(metric string, want map[string]string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return countMatching(c.durations, metric, want)
}

func countMatching(records []MetricRecord, metric string, want map[string]string) int {
	count := 0

	for _, record := range records {
		if record.Metric != metric {
			continue
		}

		matches := true
		for k, v := range want {
			if record.Labels[k] != v {
				matches = false
				break
			}
		}

		if matches {
			count++
		}
	}

	return count
}
