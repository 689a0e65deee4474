// Package pricing computes borrowing fees and insurance refunds with decimal arithmetic.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
)

// ExtraDays is the number of days the requested return lies after the due date, never negative.
func ExtraDays(dueDate, requestedReturnDate time.Time) int {
	return max(0, core.DaysBetween(dueDate, requestedReturnDate))
}

// CalculateFee returns base + extraDays*extraDaysRentalPrice + insuranceFee.
// The whole fee is charged up front when borrowing.
func CalculateFee(dueDate, requestedReturnDate time.Time, pricing core.Pricing) decimal.Decimal {
	extraDays := decimal.NewFromInt(int64(ExtraDays(dueDate, requestedReturnDate)))

	return pricing.BasePrice.
		Add(extraDays.Mul(pricing.ExtraDaysRentalPrice)).
		Add(pricing.InsuranceFee)
}

// QualifiesForRefund reports whether the borrower met the due obligation: the item came back on or
// before the due date, or on or before the return date that was requested (and paid for).
func QualifiesForRefund(actualReturnDate, dueDate, requestedReturnDate time.Time) bool {
	actual := core.ToDate(actualReturnDate)

	return !actual.After(core.ToDate(dueDate)) || !actual.After(core.ToDate(requestedReturnDate))
}

// RefundFor returns insuranceFee, the one charged at borrow time, if the return qualifies for a
// refund, zero otherwise.
func RefundFor(actualReturnDate, dueDate, requestedReturnDate time.Time, insuranceFee decimal.Decimal) decimal.Decimal {
	if QualifiesForRefund(actualReturnDate, dueDate, requestedReturnDate) {
		return insuranceFee
	}

	return decimal.Zero
}
