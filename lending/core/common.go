package core

import (
	"time"
)

// Alias types instead of full value objects.

// TransactionIDString identifies a borrowing transaction.
type TransactionIDString = string

// ItemIDString identifies a catalog item.
type ItemIDString = string

// BorrowerIDString identifies a borrower.
type BorrowerIDString = string

// CurrencyString is an ISO 4217 currency code, e.g. "EUR".
type CurrencyString = string

// OccurredAt represents when an event occurred.
type OccurredAt = time.Time

// LoanPeriod is the fee-free lending period, the due date is the borrow date plus LoanPeriod.
const LoanPeriod = 7 * 24 * time.Hour

// ToOccurredAt normalizes to UTC with microsecond precision, which is what Postgres stores.
func ToOccurredAt(t time.Time) OccurredAt {
	return t.UTC().Truncate(time.Microsecond)
}

// ToDate reduces t to its calendar date, represented as UTC midnight.
func ToDate(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DueDateFor returns the due date for a borrowing that starts on borrowDate.
func DueDateFor(borrowDate time.Time) time.Time {
	return ToDate(borrowDate).Add(LoanPeriod)
}

// DaysBetween returns the number of calendar days from a to b, negative if b is before a.
func DaysBetween(a, b time.Time) int {
	return int(ToDate(b).Sub(ToDate(a)).Hours() / 24)
}
