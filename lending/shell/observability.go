package shell

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
)

const (
	// OperationDurationMetric tracks the duration of the core lending operations.
	OperationDurationMetric = "lending_operation_duration_seconds"

	// OperationCallsMetric counts core lending operations by operation, status and reason.
	OperationCallsMetric = "lending_operation_calls_total"

	// CompensationsMetric counts compensating actions (flag restore, refund) by outcome.
	CompensationsMetric = "lending_compensations_total"

	// SettlementsMetric counts gateway debits and credits by outcome.
	SettlementsMetric = "lending_settlements_total"

	// NotificationsMetric counts notifications by outcome (sent, retried, dropped).
	NotificationsMetric = "lending_notifications_total"

	// RetriesMetric counts retry attempts. Labels: operation, attempt_number, error_type.
	RetriesMetric = "lending_retries_total"

	// RetryDelayMetric tracks the backoff delay before each retry.
	RetryDelayMetric = "lending_retry_delay_seconds"

	// MaxRetriesReachedMetric counts retry exhaustion. Labels: operation, final_error_type.
	MaxRetriesReachedMetric = "lending_max_retries_reached_total"

	StatusSuccess  = "success"
	StatusRejected = "rejected"
	StatusError    = "error"
	StatusCanceled = "canceled"
	StatusTimeout  = "timeout"

	LogMsgOperationStarted   = "lending operation started"
	LogMsgOperationCompleted = "lending operation completed"
	LogMsgOperationRejected  = "lending operation rejected"
	LogMsgOperationFailed    = "lending operation failed"

	LogAttrOperation     = "operation"
	LogAttrStatus        = "status"
	LogAttrReason        = "reason"
	LogAttrKind          = "kind"
	LogAttrError         = "error"
	LogAttrDurationMS    = "duration_ms"
	LogAttrTransactionID = "transaction_id"
	LogAttrItemID        = "item_id"
	LogAttrBorrowerID    = "borrower_id"

	labelAttemptNumber  = "attempt_number"
	labelErrorType      = "error_type"
	labelFinalErrorType = "final_error_type"
)

// StatusOf maps the result of an operation to a metrics status.
func StatusOf(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, context.Canceled):
		return StatusCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	case core.IsRejection(err):
		return StatusRejected
	default:
		return StatusError
	}
}

// RecordOperationMetrics records duration and call count of a lending operation.
func RecordOperationMetrics(ctx context.Context, collector MetricsCollector, operation string, duration time.Duration, err error) {
	if collector == nil {
		return
	}

	labels := map[string]string{LogAttrOperation: operation, LogAttrStatus: StatusOf(err)}
	if err != nil {
		labels[LogAttrReason] = string(core.ReasonCodeOf(err))
	}

	if cc, ok := collector.(ContextualMetricsCollector); ok {
		cc.RecordDurationContext(ctx, OperationDurationMetric, duration, labels)
		cc.IncrementCounterContext(ctx, OperationCallsMetric, labels)

		return
	}

	collector.RecordDuration(OperationDurationMetric, duration, labels)
	collector.IncrementCounter(OperationCallsMetric, labels)
}

// IncrementCounter increments metric if a collector is configured, preferring the contextual variant.
func IncrementCounter(ctx context.Context, collector MetricsCollector, metric string, labels map[string]string) {
	if collector == nil {
		return
	}

	if cc, ok := collector.(ContextualMetricsCollector); ok {
		cc.IncrementCounterContext(ctx, metric, labels)
		return
	}

	collector.IncrementCounter(metric, labels)
}

// OpsLogger routes log calls to a ContextualLogger if set, otherwise to a Logger, otherwise nowhere.
type OpsLogger struct {
	Logger           Logger
	ContextualLogger ContextualLogger
}

func (l OpsLogger) Debug(ctx context.Context, msg string, args ...any) {
	switch {
	case l.ContextualLogger != nil:
		l.ContextualLogger.DebugContext(ctx, msg, args...)
	case l.Logger != nil:
		l.Logger.Debug(msg, args...)
	}
}

func (l OpsLogger) Info(ctx context.Context, msg string, args ...any) {
	switch {
	case l.ContextualLogger != nil:
		l.ContextualLogger.InfoContext(ctx, msg, args...)
	case l.Logger != nil:
		l.Logger.Info(msg, args...)
	}
}

func (l OpsLogger) Warn(ctx context.Context, msg string, args ...any) {
	switch {
	case l.ContextualLogger != nil:
		l.ContextualLogger.WarnContext(ctx, msg, args...)
	case l.Logger != nil:
		l.Logger.Warn(msg, args...)
	}
}

func (l OpsLogger) Error(ctx context.Context, msg string, args ...any) {
	switch {
	case l.ContextualLogger != nil:
		l.ContextualLogger.ErrorContext(ctx, msg, args...)
	case l.Logger != nil:
		l.Logger.Error(msg, args...)
	}
}

// ToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func ToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
