package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AntonStoeckl/book-lending-settlement/lending/borrowers"
	"github.com/AntonStoeckl/book-lending-settlement/lending/catalog"
	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
	"github.com/AntonStoeckl/book-lending-settlement/lending/settlement"
	"github.com/AntonStoeckl/book-lending-settlement/lending/shell"
	"github.com/AntonStoeckl/book-lending-settlement/lending/statemachine"
)

const (
	OperationCreateBorrowing     = "create_borrowing"
	OperationCreateReturn        = "create_return"
	OperationUpdateBorrowing     = "update_borrowing"
	OperationDeleteBorrowing     = "delete_borrowing"
	OperationDeleteAllBorrowings = "delete_all_borrowings"
	OperationListBorrowings      = "list_borrowings"
	OperationGetBorrowing        = "get_borrowing"
)

// CreateBorrowing lends the item with req.ISBN to the borrower with req.BorrowerEmail from today on.
func (s *Service) CreateBorrowing(ctx context.Context, req BorrowingRequest) (core.Transaction, error) {
	var tx core.Transaction

	err := s.observe(ctx, OperationCreateBorrowing, func(ctx context.Context) error {
		item, borrower, err := s.lookUp(ctx, req.ISBN, req.BorrowerEmail)
		if err != nil {
			return err
		}

		tx, err = s.settlement.Borrow(ctx, settlement.BorrowRequest{
			Item:       item,
			Borrower:   borrower,
			BorrowDate: s.today(),
			ReturnDate: req.ReturnDate,
			CardNumber: req.CardNumber,
			Currency:   req.Currency,
		})

		return err
	}, shell.LogAttrItemID, req.ISBN)

	return tx, err
}

// CreateReturn closes the borrower's open transaction of the item on req.ReturnDate.
func (s *Service) CreateReturn(ctx context.Context, req ReturnRequest) (core.Transaction, error) {
	var returned core.Transaction

	err := s.observe(ctx, OperationCreateReturn, func(ctx context.Context) error {
		item, borrower, err := s.lookUp(ctx, req.ISBN, req.BorrowerEmail)
		if err != nil {
			return err
		}

		tx, err := s.openTransactionOf(ctx, item.ID, borrower.ID)
		if err != nil {
			return err
		}

		returned, err = s.settlement.GiveBack(ctx, settlement.ReturnRequest{
			Transaction:      tx,
			Item:             item,
			Borrower:         borrower,
			ActualReturnDate: req.ReturnDate,
			CardNumber:       req.CardNumber,
			Currency:         req.Currency,
		})

		return err
	}, shell.LogAttrItemID, req.ISBN)

	return returned, err
}

// UpdateBorrowing edits an open transaction. Setting the status to RETURNED closes it
// administratively: the item becomes available and no refund is issued.
func (s *Service) UpdateBorrowing(ctx context.Context, id uuid.UUID, req statemachine.UpdateRequest) (core.Transaction, error) {
	var updated core.Transaction

	err := s.observe(ctx, OperationUpdateBorrowing, func(ctx context.Context) error {
		current, err := s.repository.FindByID(ctx, id)
		if err != nil {
			return err
		}

		update, err := statemachine.ValidateUpdate(current, req, s.today())
		if err != nil {
			return err
		}

		if update.BorrowerChanged {
			if _, err = s.directory.FindByID(ctx, update.After.BorrowerID); err != nil {
				return err
			}

			if err = s.limits.CheckBorrowerLimit(ctx, update.After.BorrowerID); err != nil {
				return err
			}
		}

		released := false
		if update.Returning {
			err = s.catalog.CompareAndSetAvailability(ctx, current.ItemID, false, true)
			if err != nil && !errors.Is(err, catalog.ErrAvailabilityConflict) {
				return errors.Join(core.ErrPersistenceFailure, err)
			}

			released = err == nil
		}

		if err = s.repository.Adjust(ctx, update, s.limits.Limit()); err != nil {
			if released {
				if revertErr := s.catalog.CompareAndSetAvailability(context.WithoutCancel(ctx), current.ItemID, true, false); revertErr != nil {
					return errors.Join(core.ErrCompensationFailure, err, revertErr)
				}
			}

			if core.IsRejection(err) {
				return err
			}

			return errors.Join(core.ErrPersistenceFailure, err)
		}

		updated = update.After

		return nil
	}, shell.LogAttrTransactionID, id.String())

	return updated, err
}

// DeleteBorrowing removes a transaction, releasing its item if it was open.
func (s *Service) DeleteBorrowing(ctx context.Context, id uuid.UUID) (core.Transaction, error) {
	var deleted core.Transaction

	err := s.observe(ctx, OperationDeleteBorrowing, func(ctx context.Context) error {
		var err error
		deleted, err = s.repository.DeleteByID(ctx, id)

		return persistenceFailureUnlessRejected(err)
	}, shell.LogAttrTransactionID, id.String())

	return deleted, err
}

// DeleteAllBorrowings removes every transaction and returns how many were removed.
func (s *Service) DeleteAllBorrowings(ctx context.Context) (int, error) {
	var deleted int

	err := s.observe(ctx, OperationDeleteAllBorrowings, func(ctx context.Context) error {
		var err error
		deleted, err = s.repository.DeleteAll(ctx)

		return persistenceFailureUnlessRejected(err)
	})

	return deleted, err
}

func (s *Service) ListBorrowings(ctx context.Context) (core.Transactions, error) {
	var transactions core.Transactions

	err := s.observe(ctx, OperationListBorrowings, func(ctx context.Context) error {
		var err error
		transactions, err = s.repository.FindAll(ctx)

		return persistenceFailureUnlessRejected(err)
	})

	return transactions, err
}

func (s *Service) GetBorrowing(ctx context.Context, id uuid.UUID) (core.Transaction, error) {
	var tx core.Transaction

	err := s.observe(ctx, OperationGetBorrowing, func(ctx context.Context) error {
		var err error
		tx, err = s.repository.FindByID(ctx, id)

		return persistenceFailureUnlessRejected(err)
	}, shell.LogAttrTransactionID, id.String())

	return tx, err
}

// lookUp fetches item and borrower concurrently.
func (s *Service) lookUp(ctx context.Context, isbn, email string) (core.Item, core.Borrower, error) {
	var item core.Item
	var borrower core.Borrower

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		var err error
		item, err = s.catalog.FindByISBN(groupCtx, catalog.NormalizeISBN(isbn))

		return err
	})

	group.Go(func() error {
		var err error
		borrower, err = s.directory.FindByEmail(groupCtx, borrowers.NormalizeEmail(email))

		return err
	})

	if err := group.Wait(); err != nil {
		return core.Item{}, core.Borrower{}, persistenceFailureUnlessRejected(err)
	}

	return item, borrower, nil
}

// openTransactionOf finds the open transaction lending the item to the borrower.
func (s *Service) openTransactionOf(ctx context.Context, itemID, borrowerID uuid.UUID) (core.Transaction, error) {
	transactions, err := s.repository.FindByItem(ctx, itemID)
	if err != nil {
		return core.Transaction{}, errors.Join(core.ErrPersistenceFailure, err)
	}

	returnedBefore := false
	for _, tx := range transactions {
		if tx.BorrowerID != borrowerID {
			continue
		}

		if tx.IsOpen() {
			return tx, nil
		}

		returnedBefore = true
	}

	if returnedBefore {
		return core.Transaction{}, core.ErrAlreadyReturned
	}

	return core.Transaction{}, core.ErrNoOpenBorrowing
}

func persistenceFailureUnlessRejected(err error) error {
	if err == nil || core.IsRejection(err) {
		return err
	}

	return errors.Join(core.ErrPersistenceFailure, err)
}
