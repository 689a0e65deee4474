package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/book-lending-settlement/lending/catalog"
	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
	"github.com/AntonStoeckl/book-lending-settlement/lending/notification"
	"github.com/AntonStoeckl/book-lending-settlement/lending/payment"
	"github.com/AntonStoeckl/book-lending-settlement/lending/pricing"
	"github.com/AntonStoeckl/book-lending-settlement/lending/shell"
)

// GiveBack closes the transaction, refunds the insurance fee if the return qualifies, and releases the item.
//
// Releasing the item is the claim on the return: only the caller that flips it from on loan to
// available goes on to refund and record the return, every concurrent caller gets
// core.ErrAlreadyReturned without a credit.
//
// A failed refund never blocks the return: it is logged and the transaction keeps the refund amount
// without a refund reference, which marks it for reconciliation.
func (o *Orchestrator) GiveBack(ctx context.Context, req ReturnRequest) (core.Transaction, error) {
	tx := req.Transaction
	if !tx.IsOpen() {
		return core.Transaction{}, core.ErrAlreadyReturned
	}

	actual := core.ToDate(req.ActualReturnDate)
	if actual.Before(tx.BorrowDate) {
		return core.Transaction{}, core.ErrReturnBeforeBorrow
	}

	if err := o.availability.CompareAndSetAvailability(ctx, tx.ItemID, false, true); err != nil {
		if errors.Is(err, catalog.ErrAvailabilityConflict) {
			o.logger.Warn(ctx, logMsgAvailabilityAlready,
				shell.LogAttrTransactionID, tx.ID.String(),
				shell.LogAttrItemID, tx.ItemID.String(),
			)

			return core.Transaction{}, errors.Join(core.ErrAlreadyReturned, err)
		}

		return core.Transaction{}, errors.Join(core.ErrPersistenceFailure, err)
	}

	returned := tx
	returned.Status = core.StatusReturned
	returned.ReturnedOn = actual
	returned.RefundAmount = pricing.RefundFor(actual, tx.DueDate, tx.ReturnDate, tx.InsuranceFee)

	if returned.RefundAmount.GreaterThan(decimal.Zero) {
		returned.RefundRef = o.refund(ctx, tx, req.CardNumber, req.Currency, returned.RefundAmount)
	}

	if err := o.transactions.MarkReturned(ctx, returned); err != nil {
		return core.Transaction{}, o.compensateGiveBack(ctx, returned, err)
	}

	o.notify(ctx, req.Borrower.Email, notification.ReturnedText(req.Item.Title))

	return returned, nil
}

// refund credits amount and returns the settlement reference, or "" if the credit failed.
func (o *Orchestrator) refund(
	ctx context.Context,
	tx core.Transaction,
	cardNumber string,
	currency core.CurrencyString,
	amount decimal.Decimal,
) string {

	if currency == "" {
		currency = tx.Currency
	}

	creditCtx, cancel := context.WithTimeout(ctx, o.paymentTimeout)
	defer cancel()

	refundRef, err := o.gateway.Credit(creditCtx, payment.SettlementRequest{
		CardNumber:     cardNumber,
		Amount:         amount,
		Currency:       currency,
		IdempotencyKey: tx.ID.String() + "-refund",
	})
	if err != nil {
		o.countSettlement(ctx, directionCredit, outcomeFailure)
		o.logger.Warn(ctx, logMsgRefundFailed,
			shell.LogAttrTransactionID, tx.ID.String(),
			shell.LogAttrError, err.Error(),
		)

		return ""
	}

	o.countSettlement(ctx, directionCredit, outcomeSuccess)

	return refundRef
}

// compensateGiveBack takes the item back on loan after the RETURNED record could not be stored.
// A refund that was already credited cannot be taken back, so it is escalated.
func (o *Orchestrator) compensateGiveBack(ctx context.Context, returned core.Transaction, cause error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	var compensationErr error

	err := o.availability.CompareAndSetAvailability(ctx, returned.ItemID, true, false)
	o.countCompensation(ctx, actionRevertAvailability, err)
	compensationErr = errors.Join(compensationErr, err)

	if returned.RefundRef != "" {
		compensationErr = errors.Join(compensationErr, fmt.Errorf("%w: %s", ErrRefundWithoutReturn, returned.RefundRef))
	}

	if compensationErr != nil {
		return o.escalate(ctx, operationGiveBack, returned, cause, compensationErr)
	}

	if errors.Is(cause, core.ErrAlreadyReturned) || errors.Is(cause, core.ErrTransactionNotFound) {
		return cause
	}

	return errors.Join(core.ErrPersistenceFailure, cause)
}
