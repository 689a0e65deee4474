// Package statemachine validates status transitions and administrative edits of borrowing transactions.
package statemachine

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
)

// transitions lists the allowed target states per state. BORROWED -> BORROWED is a field-only edit.
var transitions = map[core.Status][]core.Status{
	core.StatusBorrowed: {core.StatusBorrowed, core.StatusReturned},
	core.StatusReturned: {},
}

// CanTransition reports whether a transaction in from may move to to.
func CanTransition(from, to core.Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

// UpdateRequest carries the optional fields of an administrative edit. Nil means "unchanged".
type UpdateRequest struct {
	BorrowerID *uuid.UUID
	BorrowDate *time.Time
	ReturnDate *time.Time
	Status     *core.Status
}

// Update is the validated outcome of an UpdateRequest.
type Update struct {
	Before          core.Transaction
	After           core.Transaction
	BorrowerChanged bool
	FieldsChanged   bool
	Returning       bool
}

// ValidateUpdate applies req to current and checks the result, today being the current calendar date.
// It does not check the borrower limit; callers must do that for the new borrower if BorrowerChanged.
func ValidateUpdate(current core.Transaction, req UpdateRequest, today time.Time) (Update, error) {
	target := current.Status
	if req.Status != nil {
		target = *req.Status
	}

	if !current.IsOpen() {
		if target != current.Status {
			return Update{}, core.ErrInvalidTransition
		}

		return Update{}, core.ErrTransactionClosed
	}

	if !CanTransition(current.Status, target) {
		return Update{}, core.ErrInvalidTransition
	}

	after := current

	if req.BorrowerID != nil {
		after.BorrowerID = *req.BorrowerID
	}

	if req.BorrowDate != nil {
		after.BorrowDate = core.ToDate(*req.BorrowDate)
		after.DueDate = core.DueDateFor(after.BorrowDate)
	}

	if req.ReturnDate != nil {
		after.ReturnDate = core.ToDate(*req.ReturnDate)
	}

	if after.BorrowDate.After(core.ToDate(today)) {
		return Update{}, core.ErrBorrowDateInFuture
	}

	if after.ReturnDate.Before(after.BorrowDate) {
		return Update{}, core.ErrReturnBeforeBorrow
	}

	update := Update{
		Before:          current,
		BorrowerChanged: after.BorrowerID != current.BorrowerID,
		FieldsChanged: after.BorrowerID != current.BorrowerID ||
			!after.BorrowDate.Equal(current.BorrowDate) ||
			!after.ReturnDate.Equal(current.ReturnDate),
		Returning: target == core.StatusReturned,
	}

	if update.Returning {
		after.Status = core.StatusReturned
		after.ReturnedOn = core.ToDate(today)
	}

	update.After = after

	return update, nil
}
