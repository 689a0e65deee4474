package service

import (
	"context"
	"time"

	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
	"github.com/AntonStoeckl/book-lending-settlement/lending/shell"
)

// observe runs fn and records its duration, outcome and log lines. attrs are added to every log line.
func (s *Service) observe(ctx context.Context, operation string, fn func(ctx context.Context) error, attrs ...any) error {
	start := time.Now()

	base := append([]any{shell.LogAttrOperation, operation}, attrs...)
	s.logger.Debug(ctx, shell.LogMsgOperationStarted, base...)

	err := fn(ctx)
	duration := time.Since(start)

	shell.RecordOperationMetrics(ctx, s.metrics, operation, duration, err)

	status := shell.StatusOf(err)
	logArgs := append(base, shell.LogAttrStatus, status, shell.LogAttrDurationMS, shell.ToMilliseconds(duration))

	switch {
	case err == nil:
		s.logger.Info(ctx, shell.LogMsgOperationCompleted, logArgs...)

	case core.IsRejection(err):
		s.logger.Info(ctx, shell.LogMsgOperationRejected,
			append(logArgs, shell.LogAttrReason, string(core.ReasonCodeOf(err)))...,
		)

	case core.KindOf(err) == core.KindExternalDependency:
		s.logger.Warn(ctx, shell.LogMsgOperationFailed,
			append(logArgs, shell.LogAttrReason, string(core.ReasonCodeOf(err)), shell.LogAttrError, err.Error())...,
		)

	default:
		s.logger.Error(ctx, shell.LogMsgOperationFailed,
			append(logArgs,
				shell.LogAttrReason, string(core.ReasonCodeOf(err)),
				shell.LogAttrKind, string(core.KindOf(err)),
				shell.LogAttrError, err.Error(),
			)...,
		)
	}

	return err
}
