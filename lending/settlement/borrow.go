package settlement

import (
	"context"
	"errors"

	"github.com/AntonStoeckl/book-lending-settlement/lending/alerting"
	"github.com/AntonStoeckl/book-lending-settlement/lending/catalog"
	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
	"github.com/AntonStoeckl/book-lending-settlement/lending/notification"
	"github.com/AntonStoeckl/book-lending-settlement/lending/payment"
	"github.com/AntonStoeckl/book-lending-settlement/lending/pricing"
	"github.com/AntonStoeckl/book-lending-settlement/lending/shell"
)

// Borrow debits the fee, reserves the item and stores the new transaction.
//
// Rejections found before the debit cause no external call. Once the card was debited, every
// failure is compensated: the item is released again if it was reserved, and the fee is credited back.
// A business rejection found at commit time is returned as such after a successful compensation,
// anything else as core.ErrPersistenceFailure. If a compensation fails, core.ErrCompensationFailure
// is returned and an operator alert is raised.
func (o *Orchestrator) Borrow(ctx context.Context, req BorrowRequest) (core.Transaction, error) {
	borrowDate := core.ToDate(req.BorrowDate)
	returnDate := core.ToDate(req.ReturnDate)

	if returnDate.Before(borrowDate) {
		return core.Transaction{}, core.ErrReturnBeforeBorrow
	}

	if err := o.eligibility.CheckBorrowEligibility(ctx, req.Item, req.Borrower); err != nil {
		return core.Transaction{}, err
	}

	tx := core.Transaction{
		ID:         o.newID(),
		ItemID:     req.Item.ID,
		BorrowerID: req.Borrower.ID,
		BorrowDate: borrowDate,
		DueDate:    core.DueDateFor(borrowDate),
		ReturnDate: returnDate,
		Status:     core.StatusBorrowed,
		Currency:   req.Currency,
	}
	tx.Fee = pricing.CalculateFee(tx.DueDate, tx.ReturnDate, req.Item.Pricing)
	tx.InsuranceFee = req.Item.Pricing.InsuranceFee

	settlementRef, err := o.debit(ctx, tx, req.CardNumber)
	if err != nil {
		return core.Transaction{}, err
	}

	tx.SettlementRef = settlementRef

	if err = o.availability.CompareAndSetAvailability(ctx, tx.ItemID, true, false); err != nil {
		if errors.Is(err, catalog.ErrAvailabilityConflict) {
			err = errors.Join(core.ErrItemUnavailable, err)
		}

		return core.Transaction{}, o.compensateBorrow(ctx, tx, req.CardNumber, false, err)
	}

	if err = o.transactions.OpenBorrowing(ctx, tx, o.eligibility.Limit()); err != nil {
		return core.Transaction{}, o.compensateBorrow(ctx, tx, req.CardNumber, true, err)
	}

	o.notify(ctx, req.Borrower.Email, notification.BorrowedText(req.Item.Title))

	return tx, nil
}

func (o *Orchestrator) debit(ctx context.Context, tx core.Transaction, cardNumber string) (string, error) {
	debitCtx, cancel := context.WithTimeout(ctx, o.paymentTimeout)
	defer cancel()

	settlementRef, err := o.gateway.Debit(debitCtx, payment.SettlementRequest{
		CardNumber:     cardNumber,
		Amount:         tx.Fee,
		Currency:       tx.Currency,
		IdempotencyKey: tx.ID.String() + "-debit",
	})
	if err == nil {
		o.countSettlement(ctx, directionDebit, outcomeSuccess)
		return settlementRef, nil
	}

	o.logger.Warn(ctx, logMsgDebitFailed,
		shell.LogAttrTransactionID, tx.ID.String(),
		shell.LogAttrItemID, tx.ItemID.String(),
		shell.LogAttrError, err.Error(),
	)

	if errors.Is(err, core.ErrPaymentDeclined) {
		o.countSettlement(ctx, directionDebit, outcomeDeclined)
		return "", err
	}

	o.countSettlement(ctx, directionDebit, outcomeUnreachable)

	if errors.Is(err, core.ErrPaymentGatewayUnreachable) {
		return "", err
	}

	return "", errors.Join(core.ErrPaymentGatewayUnreachable, err)
}

// compensateBorrow undoes a debited borrow that could not be committed because of cause.
func (o *Orchestrator) compensateBorrow(
	ctx context.Context,
	tx core.Transaction,
	cardNumber string,
	reserved bool,
	cause error,
) error {

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	o.logger.Warn(ctx, logMsgCompensating,
		shell.LogAttrTransactionID, tx.ID.String(),
		shell.LogAttrItemID, tx.ItemID.String(),
		shell.LogAttrError, cause.Error(),
	)

	var compensationErr error

	if reserved {
		err := o.availability.CompareAndSetAvailability(ctx, tx.ItemID, false, true)
		o.countCompensation(ctx, actionRestoreAvailability, err)
		compensationErr = errors.Join(compensationErr, err)
	}

	_, err := o.gateway.Credit(ctx, payment.SettlementRequest{
		CardNumber:     cardNumber,
		Amount:         tx.Fee,
		Currency:       tx.Currency,
		IdempotencyKey: tx.ID.String() + "-compensation",
	})
	o.countCompensation(ctx, actionRefundDebit, err)
	if err == nil {
		o.countSettlement(ctx, directionCredit, outcomeSuccess)
	} else {
		o.countSettlement(ctx, directionCredit, outcomeFailure)
	}
	compensationErr = errors.Join(compensationErr, err)

	if compensationErr != nil {
		return o.escalate(ctx, operationBorrow, tx, cause, compensationErr)
	}

	if errors.Is(cause, core.ErrItemUnavailable) || errors.Is(cause, core.ErrLimitReached) {
		return cause
	}

	return errors.Join(core.ErrPersistenceFailure, cause)
}

// escalate reports a failed compensation. The returned error always is core.ErrCompensationFailure.
func (o *Orchestrator) escalate(ctx context.Context, operation string, tx core.Transaction, cause, compensationErr error) error {
	o.logger.Error(ctx, logMsgCompensationFailed,
		shell.LogAttrOperation, operation,
		shell.LogAttrTransactionID, tx.ID.String(),
		shell.LogAttrItemID, tx.ItemID.String(),
		shell.LogAttrBorrowerID, tx.BorrowerID.String(),
		shell.LogAttrError, compensationErr.Error(),
	)

	alertErr := o.alerter.Escalate(ctx, alerting.Alert{
		Operation:     operation,
		Reason:        string(core.ReasonCompensationFailure),
		TransactionID: tx.ID.String(),
		ItemID:        tx.ItemID.String(),
		BorrowerID:    tx.BorrowerID.String(),
		Details:       errors.Join(cause, compensationErr).Error(),
		OccurredAt:    o.now().UTC(),
	})
	if alertErr != nil {
		o.logger.Error(ctx, logMsgCompensationFailed, shell.LogAttrError, alertErr.Error())
	}

	return errors.Join(core.ErrCompensationFailure, cause, compensationErr)
}

func (o *Orchestrator) notify(ctx context.Context, recipient, text string) {
	if !o.notifier.Notify(recipient, text) {
		o.logger.Warn(ctx, logMsgNotificationDropped, shell.LogAttrBorrowerID, recipient)
	}
}
