package memengine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/book-lending-settlement/eventstore"
	"github.com/AntonStoeckl/book-lending-settlement/eventstore/memengine"
)

func event(t *testing.T, eventType, payload string) eventstore.StorableEvent {
	t.Helper()

	e, err := eventstore.BuildStorableEventWithEmptyMetadata(eventType, time.Now(), []byte(payload))
	require.NoError(t, err)

	return e
}

func filterFor(borrowerID, itemID string) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("BorrowingOpened", "BorrowingReturned").
		AndAnyPredicateOf(eventstore.P("BorrowerID", borrowerID), eventstore.P("ItemID", itemID)).
		Finalize()
}

func Test_EventStore_QueryReturnsOnlyMatchingEvents(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.NewEventStore()
	everything := eventstore.BuildEventFilter().MatchingAnyEvent()
	require.NoError(t, store.Append(ctx, everything, 0, event(t, "BorrowingOpened", `{"BorrowerID":"b-1","ItemID":"i-1"}`)))
	require.NoError(t, store.Append(ctx, everything, 1, event(t, "BorrowingOpened", `{"BorrowerID":"b-2","ItemID":"i-2"}`)))
	require.NoError(t, store.Append(ctx, everything, 2, event(t, "BorrowingDeleted", `{"BorrowerID":"b-1","ItemID":"i-1"}`)))

	// act
	events, maxSeq, err := store.Query(ctx, filterFor("b-1", "i-9"))

	// assert
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, eventstore.MaxSequenceNumberUint(1), maxSeq)
}

func Test_EventStore_AllPredicatesMustMatch(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.NewEventStore()
	everything := eventstore.BuildEventFilter().MatchingAnyEvent()
	require.NoError(t, store.Append(ctx, everything, 0,
		event(t, "BorrowingOpened", `{"BorrowerID":"b-1","ItemID":"i-1"}`),
		event(t, "BorrowingOpened", `{"BorrowerID":"b-1","ItemID":"i-2"}`),
	))
	filter := eventstore.BuildEventFilter().
		Matching().
		AllPredicatesOf(eventstore.P("BorrowerID", "b-1"), eventstore.P("ItemID", "i-2")).
		Finalize()

	// act
	events, maxSeq, err := store.Query(ctx, filter)

	// assert
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, eventstore.MaxSequenceNumberUint(2), maxSeq)
}

func Test_EventStore_AppendConflictsOnStaleSequence(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.NewEventStore()
	filter := filterFor("b-1", "i-1")
	_, maxSeq, err := store.Query(ctx, filter)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, filter, maxSeq, event(t, "BorrowingOpened", `{"BorrowerID":"b-1","ItemID":"i-1"}`)))

	// act
	err = store.Append(ctx, filter, maxSeq, event(t, "BorrowingOpened", `{"BorrowerID":"b-1","ItemID":"i-2"}`))

	// assert
	assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
	assert.Equal(t, 1, store.Len())
}

func Test_EventStore_UnrelatedStreamsDoNotConflict(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.NewEventStore()
	require.NoError(t, store.Append(ctx, filterFor("b-1", "i-1"), 0, event(t, "BorrowingOpened", `{"BorrowerID":"b-1","ItemID":"i-1"}`)))

	// act
	err := store.Append(ctx, filterFor("b-2", "i-2"), 0, event(t, "BorrowingOpened", `{"BorrowerID":"b-2","ItemID":"i-2"}`))

	// assert
	assert.NoError(t, err)
}

func Test_EventStore_ConcurrentAppendsOnSameStream_OnlyOneWins(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.NewEventStore()
	filter := filterFor("b-1", "i-1")
	opened := event(t, "BorrowingOpened", `{"BorrowerID":"b-1","ItemID":"i-1"}`)
	const attempts = 20

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	// act
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Append(ctx, filter, 0, opened); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// assert
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, store.Len())
}
