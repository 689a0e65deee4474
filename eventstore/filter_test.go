package eventstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_FilterBuilder_EventTypesAndAnyPredicate(t *testing.T) {
	// act
	filter := BuildEventFilter().
		Matching().
		AnyEventTypeOf("BorrowingReturned", "BorrowingOpened").
		AndAnyPredicateOf(P("ItemID", "item-1"), P("BorrowerID", "borrower-1")).
		Finalize()

	// assert
	assert.Len(t, filter.Items(), 1)
	item := filter.Items()[0]
	assert.Equal(t, []string{"BorrowingOpened", "BorrowingReturned"}, item.EventTypes())
	assert.Equal(t, []FilterPredicate{P("BorrowerID", "borrower-1"), P("ItemID", "item-1")}, item.Predicates())
	assert.False(t, item.AllPredicatesMustMatch())
	assert.False(t, filter.IsEmpty())
}

func Test_FilterBuilder_AllPredicatesOf(t *testing.T) {
	// act
	filter := BuildEventFilter().
		Matching().
		AllPredicatesOf(P("TransactionID", "tx-1"), P("BorrowerID", "b-1")).
		AndAnyEventTypeOf("BorrowingAdjusted").
		Finalize()

	// assert
	item := filter.Items()[0]
	assert.True(t, item.AllPredicatesMustMatch())
	assert.Equal(t, []string{"BorrowingAdjusted"}, item.EventTypes())
	assert.Equal(t, []FilterPredicate{P("BorrowerID", "b-1"), P("TransactionID", "tx-1")}, item.Predicates())
}

func Test_FilterBuilder_OrMatching(t *testing.T) {
	// act
	filter := BuildEventFilter().
		Matching().
		AnyEventTypeOf("BorrowingOpened").
		AndAnyPredicateOf(P("BorrowerID", "b-1")).
		OrMatching().
		AnyPredicateOf(P("ItemID", "i-1")).
		Finalize()

	// assert
	assert.Len(t, filter.Items(), 2)
	assert.Equal(t, []FilterPredicate{P("BorrowerID", "b-1")}, filter.Items()[0].Predicates())
	assert.Empty(t, filter.Items()[1].EventTypes())
	assert.Equal(t, []FilterPredicate{P("ItemID", "i-1")}, filter.Items()[1].Predicates())
}

func Test_FilterBuilder_InputSanitization(t *testing.T) {
	// act
	filter := BuildEventFilter().
		Matching().
		AnyEventTypeOf("B", "", "A", "B").
		AndAnyPredicateOf(
			P("ItemID", "2"),
			P("ItemID", "1"),
			P("", "x"),
			P("BorrowerID", ""),
			P("ItemID", "2"),
		).
		Finalize()

	// assert
	item := filter.Items()[0]
	assert.Equal(t, []string{"A", "B"}, item.EventTypes())
	assert.Equal(t, []FilterPredicate{P("ItemID", "1"), P("ItemID", "2")}, item.Predicates())
}

func Test_FilterBuilder_MatchingAnyEvent(t *testing.T) {
	// act
	filter := BuildEventFilter().MatchingAnyEvent()

	// assert
	assert.Empty(t, filter.Items())
	assert.True(t, filter.IsEmpty())
}

func Test_FilterBuilder_BranchesDoNotShareState(t *testing.T) {
	// arrange
	base := BuildEventFilter().Matching().AnyEventTypeOf("BorrowingOpened")

	// act
	forBorrower := base.AndAnyPredicateOf(P("BorrowerID", "b-1")).Finalize()
	forItem := base.AndAnyPredicateOf(P("ItemID", "i-1")).Finalize()

	// assert
	assert.Equal(t, []FilterPredicate{P("BorrowerID", "b-1")}, forBorrower.Items()[0].Predicates())
	assert.Equal(t, []FilterPredicate{P("ItemID", "i-1")}, forItem.Items()[0].Predicates())
}
