// Package eventstore provides the storage abstractions behind the borrowing transaction records.
//
// Every change to a borrowing transaction is persisted as an event. Events are appended
// conditionally: the append only succeeds if no event matching the same Filter has been
// stored since the caller's Query. This "dynamic event stream" is what serializes concurrent
// borrow requests for the same borrower or item without holding a lock across a remote call.
//
// Key types:
//   - Filter: criteria for querying events (event types and JSON payload predicates)
//   - StorableEvent: an event as it is stored and retrieved
//   - MetricsCollector, Logger, ContextualLogger: dependency-free observability hooks
//
// Common usage pattern:
//
//	filter := BuildEventFilter().
//		Matching().
//		AnyEventTypeOf(
//			core.BorrowingOpenedEventType,
//			core.BorrowingReturnedEventType).
//		AndAnyPredicateOf(P("BorrowerID", borrowerID.String())).
//		Finalize()
//
//	events, maxSeq, err := store.Query(ctx, filter)
//	if err != nil {
//		// handle error
//	}
//
//	err = store.Append(ctx, filter, maxSeq, newEvent)
//	if errors.Is(err, ErrConcurrencyConflict) {
//		// somebody else appended a matching event, query again and re-decide
//	}
package eventstore
