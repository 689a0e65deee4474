package core

import (
	"time"
)

const BorrowingDeletedEventType = "BorrowingDeleted"

// BorrowingDeleted removes a transaction record. WasOpen tells whether the item had to be released.
type BorrowingDeleted struct {
	EventType     string
	TransactionID TransactionIDString
	ItemID        ItemIDString
	BorrowerID    BorrowerIDString
	WasOpen       bool
	OccurredAt    OccurredAt
}

func BuildBorrowingDeleted(tx Transaction, occurredAt time.Time) BorrowingDeleted {
	return BorrowingDeleted{
		EventType:     BorrowingDeletedEventType,
		TransactionID: tx.ID.String(),
		ItemID:        tx.ItemID.String(),
		BorrowerID:    tx.BorrowerID.String(),
		WasOpen:       tx.IsOpen(),
		OccurredAt:    ToOccurredAt(occurredAt),
	}
}

func (e BorrowingDeleted) IsEventType() string                  { return BorrowingDeletedEventType }
func (e BorrowingDeleted) HasOccurredAt() time.Time             { return e.OccurredAt }
func (e BorrowingDeleted) TransactionIDOf() TransactionIDString { return e.TransactionID }
