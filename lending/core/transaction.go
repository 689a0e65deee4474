package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status of a borrowing transaction.
type Status string

const (
	StatusBorrowed Status = "BORROWED"
	StatusReturned Status = "RETURNED"
)

// Transaction is a borrowing transaction as projected from its events.
type Transaction struct {
	ID            uuid.UUID
	ItemID        uuid.UUID
	BorrowerID    uuid.UUID
	BorrowDate    time.Time
	DueDate       time.Time
	ReturnDate    time.Time // requested return date
	ReturnedOn    time.Time // zero until returned
	Status        Status
	Fee           decimal.Decimal
	InsuranceFee  decimal.Decimal // part of Fee that a qualifying return refunds
	Currency      CurrencyString
	SettlementRef string
	RefundAmount  decimal.Decimal
	RefundRef     string
}

// Transactions is an alias type for a slice of Transaction.
type Transactions = []Transaction

func (t Transaction) IsOpen() bool {
	return t.Status == StatusBorrowed
}

// IsZero reports whether t is the zero Transaction, i.e. "not found".
func (t Transaction) IsZero() bool {
	return t.ID == uuid.Nil
}
