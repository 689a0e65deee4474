package oteladapters_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/AntonStoeckl/book-lending-settlement/lending/shell"
	"github.com/AntonStoeckl/book-lending-settlement/oteladapters"
)

func Test_NewMetricsCollector_RejectsNilMeter(t *testing.T) {
	// act
	collector, err := oteladapters.NewMetricsCollector(nil)

	// assert
	assert.ErrorIs(t, err, oteladapters.ErrNilMeter)
	assert.Nil(t, collector)
}

func Test_MetricsCollector_RecordDuration_InSeconds(t *testing.T) {
	// arrange
	reader, collector := newCollector(t)

	// act
	collector.RecordDuration("lending_operation_duration_seconds", 150*time.Millisecond, map[string]string{
		"operation": "create_borrowing",
		"status":    "success",
	})

	// assert
	histogram := findHistogram(t, collect(t, reader), "lending_operation_duration_seconds")
	require.Len(t, histogram.DataPoints, 1)
	assert.Equal(t, uint64(1), histogram.DataPoints[0].Count)
	assert.InDelta(t, 0.15, histogram.DataPoints[0].Sum, 0.001)

	expected := attribute.NewSet(
		attribute.String("operation", "create_borrowing"),
		attribute.String("status", "success"),
	)
	assert.True(t, histogram.DataPoints[0].Attributes.Equals(&expected))
}

func Test_MetricsCollector_IncrementCounter_AggregatesPerLabelSet(t *testing.T) {
	// arrange
	reader, collector := newCollector(t)
	sent := map[string]string{"outcome": "sent"}
	dropped := map[string]string{"outcome": "dropped"}

	// act
	collector.IncrementCounter("lending_notifications_total", sent)
	collector.IncrementCounter("lending_notifications_total", sent)
	collector.IncrementCounterContext(context.Background(), "lending_notifications_total", dropped)

	// assert
	counter := findCounter(t, collect(t, reader), "lending_notifications_total")
	require.Len(t, counter.DataPoints, 2)

	values := make(map[string]int64)
	for _, dp := range counter.DataPoints {
		outcome, _ := dp.Attributes.Value("outcome")
		values[outcome.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"sent": 2, "dropped": 1}, values)
}

func Test_MetricsCollector_RecordValue_LastValueWins(t *testing.T) {
	// arrange
	reader, collector := newCollector(t)

	// act
	collector.RecordValue("lending_notification_queue_length", 10, nil)
	collector.RecordValueContext(context.Background(), "lending_notification_queue_length", 3, nil)

	// assert
	gauge := findGauge(t, collect(t, reader), "lending_notification_queue_length")
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, 3.0, gauge.DataPoints[0].Value)
}

func Test_MetricsCollector_SkipsMeasurementWhenInstrumentCreationFails(t *testing.T) {
	// arrange
	reader := sdkmetric.NewManualReader()
	base := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	collector, err := oteladapters.NewMetricsCollector(&failingMeter{Meter: base})
	require.NoError(t, err)

	// act + assert
	assert.NotPanics(t, func() {
		collector.RecordDuration("broken", time.Second, nil)
		collector.IncrementCounter("broken", nil)
		collector.RecordValue("broken", 1, nil)
	})

	rm := collect(t, reader)
	for _, sm := range rm.ScopeMetrics {
		assert.Empty(t, sm.Metrics)
	}
}

func Test_MetricsCollector_ConcurrentRecording(t *testing.T) {
	// arrange
	reader, collector := newCollector(t)
	const workers = 8
	const perWorker = 50

	// act
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				collector.IncrementCounter("lending_settlements_total", map[string]string{"direction": "debit"})
			}
		}()
	}
	wg.Wait()

	// assert
	counter := findCounter(t, collect(t, reader), "lending_settlements_total")
	require.Len(t, counter.DataPoints, 1)
	assert.Equal(t, int64(workers*perWorker), counter.DataPoints[0].Value)
}

func Test_MetricsCollector_WorksWithShellHelpers(t *testing.T) {
	// arrange
	reader, collector := newCollector(t)

	// act
	shell.RecordOperationMetrics(context.Background(), collector, "get_borrowing", 20*time.Millisecond, nil)

	// assert
	rm := collect(t, reader)
	var names []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names = append(names, m.Name)
		}
	}
	assert.ElementsMatch(t, []string{shell.OperationDurationMetric, shell.OperationCallsMetric}, names)
}

func newCollector(t *testing.T) (*sdkmetric.ManualReader, *oteladapters.MetricsCollector) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	collector, err := oteladapters.NewMetricsCollector(provider.Meter("test"))
	require.NoError(t, err)

	return reader, collector
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findHistogram(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Histogram[float64] {
	t.Helper()

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if h, ok := m.Data.(metricdata.Histogram[float64]); ok && m.Name == name {
				return h
			}
		}
	}
	t.Fatalf("histogram %s not found", name)

	return metricdata.Histogram[float64]{}
}

func findCounter(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Sum[int64] {
	t.Helper()

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if c, ok := m.Data.(metricdata.Sum[int64]); ok && m.Name == name {
				return c
			}
		}
	}
	t.Fatalf("counter %s not found", name)

	return metricdata.Sum[int64]{}
}

func findGauge(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Gauge[float64] {
	t.Helper()

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if g, ok := m.Data.(metricdata.Gauge[float64]); ok && m.Name == name {
				return g
			}
		}
	}
	t.Fatalf("gauge %s not found", name)

	return metricdata.Gauge[float64]{}
}

type failingMeter struct {
	metric.Meter
}

func (m *failingMeter) Float64Histogram(string, ...metric.Float64HistogramOption) (metric.Float64Histogram, error) {
	return nil, errors.New("histogram creation failed")
}

func (m *failingMeter) Int64Counter(string, ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	return nil, errors.New("counter creation failed")
}

func (m *failingMeter) Float64Gauge(string, ...metric.Float64GaugeOption) (metric.Float64Gauge, error) {
	return nil, errors.New("gauge creation failed")
}
