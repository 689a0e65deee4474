package alerting

import (
	"context"
	"log/slog"
)

const logMsgAlert = "operator alert"

// LogAlerter writes alerts to a logger at error level. It is the fallback when no broker is configured.
type LogAlerter struct {
	logger *slog.Logger
}

func NewLogAlerter(logger *slog.Logger) *LogAlerter {
	if logger == nil {
		logger = slog.Default()
	}

	return &LogAlerter{logger: logger}
}

func (a *LogAlerter) Escalate(ctx context.Context, alert Alert) error {
	a.logger.ErrorContext(ctx, logMsgAlert,
		slog.String("operation", alert.Operation),
		slog.String("reason", alert.Reason),
		slog.String("transaction_id", alert.TransactionID),
		slog.String("item_id", alert.ItemID),
		slog.String("borrower_id", alert.BorrowerID),
		slog.String("details", alert.Details),
	)

	return nil
}
