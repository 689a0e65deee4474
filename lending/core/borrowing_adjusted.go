package core

import (
	"time"
)

const BorrowingAdjustedEventType = "BorrowingAdjusted"

// BorrowingAdjusted records an administrative field edit of an open transaction.
// PreviousBorrowerID is set when the borrower changed, so the old borrower's stream sees the event too.
type BorrowingAdjusted struct {
	EventType          string
	TransactionID      TransactionIDString
	ItemID             ItemIDString
	BorrowerID         BorrowerIDString
	PreviousBorrowerID BorrowerIDString
	BorrowDate         time.Time
	DueDate            time.Time
	ReturnDate         time.Time
	OccurredAt         OccurredAt
}

// BuildBorrowingAdjusted creates the event that moves before to after.
func BuildBorrowingAdjusted(before, after Transaction, occurredAt time.Time) BorrowingAdjusted {
	event := BorrowingAdjusted{
		EventType:     BorrowingAdjustedEventType,
		TransactionID: after.ID.String(),
		ItemID:        after.ItemID.String(),
		BorrowerID:    after.BorrowerID.String(),
		BorrowDate:    ToDate(after.BorrowDate),
		DueDate:       ToDate(after.DueDate),
		ReturnDate:    ToDate(after.ReturnDate),
		OccurredAt:    ToOccurredAt(occurredAt),
	}

	if before.BorrowerID != after.BorrowerID {
		event.PreviousBorrowerID = before.BorrowerID.String()
	}

	return event
}

func (e BorrowingAdjusted) IsEventType() string                  { return BorrowingAdjustedEventType }
func (e BorrowingAdjusted) HasOccurredAt() time.Time             { return e.OccurredAt }
func (e BorrowingAdjusted) TransactionIDOf() TransactionIDString { return e.TransactionID }
