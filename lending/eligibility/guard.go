// Package eligibility decides whether a borrower may borrow an item, before anything is mutated.
package eligibility

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
)

// DefaultTransactionLimit is the maximum number of open transactions per borrower.
const DefaultTransactionLimit = 4

var (
	ErrInvalidLimit             = errors.New("transaction limit must be positive")
	ErrNilOpenCounter           = errors.New("open counter must not be nil")
	ErrCountingOpenBorrowFailed = errors.New("counting open transactions failed")
)

// OpenCounter returns the live number of open transactions of a borrower.
type OpenCounter interface {
	CountOpenByBorrower(ctx context.Context, borrowerID uuid.UUID) (int, error)
}

// Guard checks availability and the per-borrower limit. It has no side effects.
type Guard struct {
	counter OpenCounter
	limit   int
}

func NewGuard(counter OpenCounter, limit int) (Guard, error) {
	if counter == nil {
		return Guard{}, ErrNilOpenCounter
	}

	if limit <= 0 {
		return Guard{}, ErrInvalidLimit
	}

	return Guard{counter: counter, limit: limit}, nil
}

// Limit returns the configured transaction limit.
func (g Guard) Limit() int {
	return g.limit
}

// CheckBorrowEligibility rejects with core.ErrItemUnavailable or core.ErrLimitReached.
func (g Guard) CheckBorrowEligibility(ctx context.Context, item core.Item, borrower core.Borrower) error {
	if !item.Available {
		return core.ErrItemUnavailable
	}

	return g.CheckBorrowerLimit(ctx, borrower.ID)
}

// CheckBorrowerLimit rejects with core.ErrLimitReached if the borrower has limit or more open transactions.
func (g Guard) CheckBorrowerLimit(ctx context.Context, borrowerID uuid.UUID) error {
	open, err := g.counter.CountOpenByBorrower(ctx, borrowerID)
	if err != nil {
		return errors.Join(ErrCountingOpenBorrowFailed, err)
	}

	if open >= g.limit {
		return core.ErrLimitReached
	}

	return nil
}
