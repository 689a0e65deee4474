package core

import (
	"time"

	"github.com/shopspring/decimal"
)

const BorrowingOpenedEventType = "BorrowingOpened"

// BorrowingOpened is appended once the fee was debited and the item reserved.
type BorrowingOpened struct {
	EventType     string
	TransactionID TransactionIDString
	ItemID        ItemIDString
	BorrowerID    BorrowerIDString
	BorrowDate    time.Time
	DueDate       time.Time
	ReturnDate    time.Time
	Fee           decimal.Decimal
	InsuranceFee  decimal.Decimal
	Currency      CurrencyString
	SettlementRef string
	OccurredAt    OccurredAt
}

// BuildBorrowingOpened creates the event that opens tx.
func BuildBorrowingOpened(tx Transaction, occurredAt time.Time) BorrowingOpened {
	return BorrowingOpened{
		EventType:     BorrowingOpenedEventType,
		TransactionID: tx.ID.String(),
		ItemID:        tx.ItemID.String(),
		BorrowerID:    tx.BorrowerID.String(),
		BorrowDate:    ToDate(tx.BorrowDate),
		DueDate:       ToDate(tx.DueDate),
		ReturnDate:    ToDate(tx.ReturnDate),
		Fee:           tx.Fee,
		InsuranceFee:  tx.InsuranceFee,
		Currency:      tx.Currency,
		SettlementRef: tx.SettlementRef,
		OccurredAt:    ToOccurredAt(occurredAt),
	}
}

func (e BorrowingOpened) IsEventType() string                  { return BorrowingOpenedEventType }
func (e BorrowingOpened) HasOccurredAt() time.Time             { return e.OccurredAt }
func (e BorrowingOpened) TransactionIDOf() TransactionIDString { return e.TransactionID }
