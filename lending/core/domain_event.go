package core

import (
	"time"
)

// DomainEvents is a slice of DomainEvent instances.
type DomainEvents = []DomainEvent

// DomainEvent is a fact about a borrowing transaction.
// Every event carries TransactionID, ItemID and BorrowerID as top-level payload fields,
// which is what the event store filters use as predicates.
type DomainEvent interface {
	IsEventType() string
	HasOccurredAt() time.Time
	TransactionIDOf() TransactionIDString
}

// Payload keys used as event store predicates.
const (
	PredicateTransactionID      = "TransactionID"
	PredicateItemID             = "ItemID"
	PredicateBorrowerID         = "BorrowerID"
	PredicatePreviousBorrowerID = "PreviousBorrowerID"
)

// AllEventTypes lists the event types that make up a transaction's history.
func AllEventTypes() []string {
	return []string{
		BorrowingOpenedEventType,
		BorrowingReturnedEventType,
		BorrowingAdjustedEventType,
		BorrowingDeletedEventType,
	}
}
