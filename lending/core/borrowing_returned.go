package core

import (
	"time"

	"github.com/shopspring/decimal"
)

const BorrowingReturnedEventType = "BorrowingReturned"

// BorrowingReturned closes a transaction. Administrative returns carry no refund.
type BorrowingReturned struct {
	EventType      string
	TransactionID  TransactionIDString
	ItemID         ItemIDString
	BorrowerID     BorrowerIDString
	ReturnedOn     time.Time
	RefundAmount   decimal.Decimal
	RefundRef      string
	Administrative bool
	OccurredAt     OccurredAt
}

func BuildBorrowingReturned(
	tx Transaction,
	returnedOn time.Time,
	refundAmount decimal.Decimal,
	refundRef string,
	administrative bool,
	occurredAt time.Time,
) BorrowingReturned {

	return BorrowingReturned{
		EventType:      BorrowingReturnedEventType,
		TransactionID:  tx.ID.String(),
		ItemID:         tx.ItemID.String(),
		BorrowerID:     tx.BorrowerID.String(),
		ReturnedOn:     ToDate(returnedOn),
		RefundAmount:   refundAmount,
		RefundRef:      refundRef,
		Administrative: administrative,
		OccurredAt:     ToOccurredAt(occurredAt),
	}
}

func (e BorrowingReturned) IsEventType() string                  { return BorrowingReturnedEventType }
func (e BorrowingReturned) HasOccurredAt() time.Time             { return e.OccurredAt }
func (e BorrowingReturned) TransactionIDOf() TransactionIDString { return e.TransactionID }
