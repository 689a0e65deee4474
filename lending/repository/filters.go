package repository

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/book-lending-settlement/eventstore"
	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
)

func allTransactionEventTypes() (string, []string) {
	types := core.AllEventTypes()

	return types[0], types[1:]
}

// allEventsFilter selects the complete lending history.
func allEventsFilter() eventstore.Filter {
	first, rest := allTransactionEventTypes()

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(first, rest...).
		Finalize()
}

// transactionFilter selects the history of one transaction. Every event carries the transaction id.
func transactionFilter(id uuid.UUID) eventstore.Filter {
	first, rest := allTransactionEventTypes()

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(first, rest...).
		AndAnyPredicateOf(eventstore.P(core.PredicateTransactionID, id.String())).
		Finalize()
}

// transactionsFilter selects the histories of several transactions.
func transactionsFilter(ids []string) eventstore.Filter {
	first, rest := allTransactionEventTypes()

	predicates := make([]eventstore.FilterPredicate, 0, len(ids))
	for _, id := range ids {
		predicates = append(predicates, eventstore.P(core.PredicateTransactionID, id))
	}

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(first, rest...).
		AndAnyPredicateOf(predicates[0], predicates[1:]...).
		Finalize()
}

// itemFilter selects everything that happened to an item. A transaction never changes its item.
func itemFilter(itemID uuid.UUID) eventstore.Filter {
	first, rest := allTransactionEventTypes()

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(first, rest...).
		AndAnyPredicateOf(eventstore.P(core.PredicateItemID, itemID.String())).
		Finalize()
}

// borrowerFilter selects every event that may change the open count of the borrower, including
// transactions moved away from them. If itemID is not uuid.Nil the item's events are selected as well.
func borrowerFilter(borrowerID, itemID uuid.UUID) eventstore.Filter {
	first, rest := allTransactionEventTypes()

	predicates := []eventstore.FilterPredicate{
		eventstore.P(core.PredicateBorrowerID, borrowerID.String()),
		eventstore.P(core.PredicatePreviousBorrowerID, borrowerID.String()),
	}

	if itemID != uuid.Nil {
		predicates = append(predicates, eventstore.P(core.PredicateItemID, itemID.String()))
	}

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(first, rest...).
		AndAnyPredicateOf(predicates[0], predicates[1:]...).
		Finalize()
}

// borrowerAndTransactionFilter is borrowerFilter for the new borrower plus the edited transaction.
func borrowerAndTransactionFilter(borrowerID, transactionID uuid.UUID) eventstore.Filter {
	first, rest := allTransactionEventTypes()

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(first, rest...).
		AndAnyPredicateOf(
			eventstore.P(core.PredicateBorrowerID, borrowerID.String()),
			eventstore.P(core.PredicatePreviousBorrowerID, borrowerID.String()),
			eventstore.P(core.PredicateTransactionID, transactionID.String()),
		).
		Finalize()
}
