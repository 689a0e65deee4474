package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/book-lending-settlement/lending/catalog"
	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
	"github.com/AntonStoeckl/book-lending-settlement/lending/statemachine"
)

const (
	operationOpen      = "open_borrowing"
	operationReturn    = "mark_returned"
	operationAdjust    = "adjust_borrowing"
	operationDelete    = "delete_borrowing"
	operationDeleteAll = "delete_all_borrowings"

	revertTimeout = 15 * time.Second
)

// OpenBorrowing stores tx as a new BORROWED transaction. It fails with core.ErrLimitReached if the
// borrower already has limit open transactions, or core.ErrItemUnavailable if the item is on loan,
// judged against the history at the moment of the append.
func (r *Repository) OpenBorrowing(ctx context.Context, tx core.Transaction, limit int) error {
	return r.withRetry(ctx, func(ctx context.Context) error {
		filter := borrowerFilter(tx.BorrowerID, tx.ItemID)

		history, maxSequenceNumber, err := r.loadComplete(ctx, filter)
		if err != nil {
			return err
		}

		if err = core.DecideOpenBorrowing(history, tx, limit); err != nil {
			return err
		}

		return r.appendEvents(ctx, filter, maxSequenceNumber, tx.ID, operationOpen,
			core.BuildBorrowingOpened(tx, r.now()),
		)
	})
}

// MarkReturned closes the open transaction returned.ID with the return data of returned.
func (r *Repository) MarkReturned(ctx context.Context, returned core.Transaction) error {
	return r.withRetry(ctx, func(ctx context.Context) error {
		filter := transactionFilter(returned.ID)

		current, maxSequenceNumber, err := r.loadOne(ctx, filter)
		if err != nil {
			return err
		}

		if !current.IsOpen() {
			return core.ErrAlreadyReturned
		}

		return r.appendEvents(ctx, filter, maxSequenceNumber, returned.ID, operationReturn,
			core.BuildBorrowingReturned(current, returned.ReturnedOn, returned.RefundAmount, returned.RefundRef, false, r.now()),
		)
	})
}

// Adjust stores a validated edit. A new borrower must stay within limit. An administrative return
// is stored without a refund.
func (r *Repository) Adjust(ctx context.Context, update statemachine.Update, limit int) error {
	if !update.FieldsChanged && !update.Returning {
		return nil
	}

	return r.withRetry(ctx, func(ctx context.Context) error {
		id := update.After.ID
		filter := transactionFilter(id)
		if update.BorrowerChanged {
			filter = borrowerAndTransactionFilter(update.After.BorrowerID, id)
		}

		history, maxSequenceNumber, err := r.loadComplete(ctx, filter)
		if err != nil {
			return err
		}

		current, found := findTransaction(history, id)
		if !found {
			return core.ErrTransactionNotFound
		}

		if !current.IsOpen() {
			return core.ErrTransactionClosed
		}

		if update.BorrowerChanged && len(core.OpenForBorrower(history, update.After.BorrowerID)) >= limit {
			return core.ErrLimitReached
		}

		events := make(core.DomainEvents, 0, 2)
		if update.FieldsChanged {
			events = append(events, core.BuildBorrowingAdjusted(current, update.After, r.now()))
		}

		if update.Returning {
			events = append(events, core.BuildBorrowingReturned(
				update.After, update.After.ReturnedOn, decimal.Zero, "", true, r.now(),
			))
		}

		return r.appendEvents(ctx, filter, maxSequenceNumber, id, operationAdjust, events...)
	})
}

// DeleteByID removes a transaction. If it is open, the item is made available first.
func (r *Repository) DeleteByID(ctx context.Context, id uuid.UUID) (core.Transaction, error) {
	var deleted core.Transaction

	err := r.withRetry(ctx, func(ctx context.Context) error {
		filter := transactionFilter(id)

		current, maxSequenceNumber, err := r.loadOne(ctx, filter)
		if err != nil {
			return err
		}

		var released []uuid.UUID
		if current.IsOpen() {
			if released, err = r.releaseItems(ctx, released, current.ItemID); err != nil {
				return err
			}
		}

		deleted = current

		err = r.appendEvents(ctx, filter, maxSequenceNumber, id, operationDelete,
			core.BuildBorrowingDeleted(current, r.now()),
		)

		return r.revertReleasedOnFailure(ctx, released, err)
	})

	return deleted, err
}

// DeleteAll removes every transaction, making the items of open ones available first.
// It returns the number of removed transactions.
func (r *Repository) DeleteAll(ctx context.Context) (int, error) {
	deleted := 0

	err := r.withRetry(ctx, func(ctx context.Context) error {
		filter := allEventsFilter()

		transactions, maxSequenceNumber, err := r.load(ctx, filter)
		if err != nil {
			return err
		}

		if len(transactions) == 0 {
			deleted = 0
			return nil
		}

		events := make(core.DomainEvents, 0, len(transactions))
		var released []uuid.UUID
		for _, tx := range transactions {
			if tx.IsOpen() {
				if released, err = r.releaseItems(ctx, released, tx.ItemID); err != nil {
					return r.revertReleasedOnFailure(ctx, released, err)
				}
			}

			events = append(events, core.BuildBorrowingDeleted(tx, r.now()))
		}

		deleted = len(events)

		err = r.appendEvents(ctx, filter, maxSequenceNumber, uuid.New(), operationDeleteAll, events...)

		return r.revertReleasedOnFailure(ctx, released, err)
	})

	return deleted, err
}

// releaseItems sets the item available and adds it to released if this call flipped the flag.
// An item that is available already is fine and is not added.
func (r *Repository) releaseItems(ctx context.Context, released []uuid.UUID, itemID uuid.UUID) ([]uuid.UUID, error) {
	err := r.availability.CompareAndSetAvailability(ctx, itemID, false, true)

	switch {
	case err == nil:
		return append(released, itemID), nil
	case errors.Is(err, catalog.ErrAvailabilityConflict):
		return released, nil
	default:
		return released, errors.Join(ErrRestoringAvailable, err)
	}
}

// revertReleasedOnFailure puts released items back on loan when cause is not nil, so a failed
// or conflicting delete leaves the catalog as it found it. A retry after a conflict releases them again.
// If reverting fails, the result is core.ErrCompensationFailure and no longer a retryable conflict.
func (r *Repository) revertReleasedOnFailure(ctx context.Context, released []uuid.UUID, cause error) error {
	if cause == nil || len(released) == 0 {
		return cause
	}

	revertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), revertTimeout)
	defer cancel()

	var revertErrs []error
	for _, itemID := range released {
		err := r.availability.CompareAndSetAvailability(revertCtx, itemID, true, false)
		if err != nil {
			revertErrs = append(revertErrs, fmt.Errorf("item %s: %w", itemID, err))
		}
	}

	if len(revertErrs) == 0 {
		return cause
	}

	return errors.Join(
		core.ErrCompensationFailure,
		ErrRevertingRelease,
		fmt.Errorf("delete failed: %v", cause), //nolint:errorlint // the cause must not stay retryable
		errors.Join(revertErrs...),
	)
}

func findTransaction(transactions core.Transactions, id uuid.UUID) (core.Transaction, bool) {
	for _, tx := range transactions {
		if tx.ID == id {
			return tx, true
		}
	}

	return core.Transaction{}, false
}
