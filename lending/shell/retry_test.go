package shell_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/book-lending-settlement/eventstore"
	"github.com/AntonStoeckl/book-lending-settlement/lending/shell"
	"github.com/AntonStoeckl/book-lending-settlement/testutil/testdoubles"
)

func Test_RetryWithExponentialBackoff_Success_NoRetries(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		return nil
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, 1, meta.Attempts)
	assert.Equal(t, time.Duration(0), meta.TotalDelay)
	assert.Equal(t, "none", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_RetriesConcurrencyConflicts(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		if callCount < 3 {
			return eventstore.ErrConcurrencyConflict
		}

		return nil
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn, shell.WithBaseDelay(time.Millisecond))

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 3, meta.Attempts)
	assert.Greater(t, meta.TotalDelay, time.Duration(0))
	assert.False(t, meta.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_FailsFastOnOtherErrors(t *testing.T) {
	// arrange
	permanent := errors.New("permanent")
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		return permanent
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn)

	// assert
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, "other", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_ExhaustsAttempts(t *testing.T) {
	// arrange
	metrics := testdoubles.NewMetricsCollectorSpy()
	fn := func(_ context.Context) error { return eventstore.ErrConcurrencyConflict }

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn,
		shell.WithMaxAttempts(3),
		shell.WithBaseDelay(time.Millisecond),
		shell.WithJitterFactor(0),
		shell.WithMetrics(metrics, "borrow"),
	)

	// assert
	assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
	assert.Equal(t, 3, meta.Attempts)
	assert.True(t, meta.RetriesExhausted)
	assert.Equal(t, 2, metrics.CounterCalls(shell.RetriesMetric, map[string]string{"operation": "borrow"}))
	assert.Equal(t, 2, metrics.DurationCalls(shell.RetryDelayMetric, nil))
	assert.Equal(t, 1, metrics.CounterCalls(shell.MaxRetriesReachedMetric, map[string]string{"final_error_type": "concurrency_conflict"}))
}

func Test_RetryWithExponentialBackoff_CustomRetryableErrors(t *testing.T) {
	// arrange
	transient := errors.New("transient")
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		if callCount == 1 {
			return transient
		}

		return nil
	}

	// act
	_, err := shell.RetryWithExponentialBackoff(context.Background(), fn,
		shell.WithBaseDelay(time.Millisecond),
		shell.WithRetryableErrorFunc(func(err error) bool { return errors.Is(err, transient) }),
	)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 2, callCount)
}

func Test_RetryWithExponentialBackoff_StopsOnCanceledContext(t *testing.T) {
	// arrange
	ctx, cancel := context.WithCancel(context.Background())
	fn := func(_ context.Context) error {
		cancel()
		return eventstore.ErrConcurrencyConflict
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(ctx, fn, shell.WithBaseDelay(time.Second))

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, meta.Attempts)
	assert.Equal(t, "context_canceled", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_InvalidOptions(t *testing.T) {
	fn := func(_ context.Context) error { return nil }

	testCases := []struct {
		name     string
		option   shell.RetryOption
		expected error
	}{
		{"zero attempts", shell.WithMaxAttempts(0), shell.ErrInvalidMaxAttempts},
		{"negative delay", shell.WithBaseDelay(-time.Millisecond), shell.ErrNegativeBaseDelay},
		{"jitter above one", shell.WithJitterFactor(1.5), shell.ErrInvalidJitterFactor},
		{"nil retryable func", shell.WithRetryableErrorFunc(nil), shell.ErrNilRetryableFunc},
		{"nil collector", shell.WithMetrics(nil, "borrow"), shell.ErrNilMetricsCollector},
		{"empty operation", shell.WithMetrics(testdoubles.NewMetricsCollectorSpy(), ""), shell.ErrEmptyOperation},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := shell.RetryWithExponentialBackoff(context.Background(), fn, tc.option)

			assert.ErrorIs(t, err, tc.expected)
		})
	}
}
