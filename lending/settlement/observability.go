package settlement

import (
	"context"

	"github.com/AntonStoeckl/book-lending-settlement/lending/shell"
)

const (
	operationBorrow   = "borrow"
	operationGiveBack = "give_back"

	directionDebit  = "debit"
	directionCredit = "credit"

	actionRestoreAvailability = "restore_availability"
	actionRevertAvailability  = "revert_availability"
	actionRefundDebit         = "refund_debit"

	outcomeSuccess     = "success"
	outcomeFailure     = "failure"
	outcomeDeclined    = "declined"
	outcomeUnreachable = "unreachable"

	labelDirection = "direction"
	labelAction    = "action"
	labelOutcome   = "outcome"

	logMsgDebitFailed         = "debit failed"
	logMsgCompensating        = "compensating borrow"
	logMsgCompensationFailed  = "compensation failed"
	logMsgRefundFailed        = "refund failed, return continues without refund"
	logMsgAvailabilityAlready = "return rejected, item was already released"
	logMsgNotificationDropped = "notification not queued"
)

func (o *Orchestrator) countSettlement(ctx context.Context, direction, outcome string) {
	shell.IncrementCounter(ctx, o.metrics, shell.SettlementsMetric, map[string]string{
		labelDirection: direction,
		labelOutcome:   outcome,
	})
}

func (o *Orchestrator) countCompensation(ctx context.Context, action string, err error) {
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeFailure
	}

	shell.IncrementCounter(ctx, o.metrics, shell.CompensationsMetric, map[string]string{
		labelAction:  action,
		labelOutcome: outcome,
	})
}
