package core_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
)

var day = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func openTx(itemID, borrowerID uuid.UUID) core.Transaction {
	return core.Transaction{
		ID:            uuid.New(),
		ItemID:        itemID,
		BorrowerID:    borrowerID,
		BorrowDate:    day,
		DueDate:       core.DueDateFor(day),
		ReturnDate:    day.AddDate(0, 0, 10),
		Status:        core.StatusBorrowed,
		Fee:           decimal.NewFromInt(19),
		InsuranceFee:  decimal.NewFromInt(3),
		Currency:      "EUR",
		SettlementRef: "debit-1",
	}
}

func Test_TransactionsFrom_FoldsLifecycle(t *testing.T) {
	// arrange
	borrowerID, newBorrowerID := uuid.New(), uuid.New()
	tx := openTx(uuid.New(), borrowerID)
	adjusted := tx
	adjusted.BorrowerID = newBorrowerID
	adjusted.ReturnDate = day.AddDate(0, 0, 12)

	history := core.DomainEvents{
		core.BuildBorrowingOpened(tx, day),
		core.BuildBorrowingAdjusted(tx, adjusted, day),
		core.BuildBorrowingReturned(adjusted, day.AddDate(0, 0, 5), decimal.NewFromInt(3), "credit-1", false, day),
	}

	// act
	transactions, err := core.TransactionsFrom(history)

	// assert
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	got := transactions[0]
	assert.Equal(t, tx.ID, got.ID)
	assert.Equal(t, newBorrowerID, got.BorrowerID)
	assert.Equal(t, core.StatusReturned, got.Status)
	assert.Equal(t, day.AddDate(0, 0, 12), got.ReturnDate)
	assert.Equal(t, day.AddDate(0, 0, 5), got.ReturnedOn)
	assert.True(t, decimal.NewFromInt(3).Equal(got.RefundAmount))
	assert.Equal(t, "credit-1", got.RefundRef)
	assert.Equal(t, "debit-1", got.SettlementRef)
	assert.True(t, decimal.NewFromInt(3).Equal(got.InsuranceFee))
}

func Test_TransactionsFrom_DropsDeletedTransactions(t *testing.T) {
	// arrange
	first := openTx(uuid.New(), uuid.New())
	second := openTx(uuid.New(), uuid.New())

	history := core.DomainEvents{
		core.BuildBorrowingOpened(first, day),
		core.BuildBorrowingOpened(second, day),
		core.BuildBorrowingDeleted(first, day),
	}

	// act
	transactions, err := core.TransactionsFrom(history)

	// assert
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, second.ID, transactions[0].ID)
}

func Test_TransactionsFrom_RejectsMalformedIDs(t *testing.T) {
	// arrange
	opened := core.BuildBorrowingOpened(openTx(uuid.New(), uuid.New()), day)
	opened.ItemID = "not-a-uuid"

	// act
	_, err := core.TransactionsFrom(core.DomainEvents{opened})

	// assert
	assert.ErrorIs(t, err, core.ErrMalformedEvent)
}

func Test_DecideOpenBorrowing(t *testing.T) {
	itemID, borrowerID := uuid.New(), uuid.New()

	openFor := func(n int, borrowerID uuid.UUID) core.Transactions {
		txs := make(core.Transactions, 0, n)
		for range n {
			txs = append(txs, openTx(uuid.New(), borrowerID))
		}

		return txs
	}

	returned := openTx(itemID, borrowerID)
	returned.Status = core.StatusReturned

	testCases := []struct {
		name     string
		history  core.Transactions
		expected error
	}{
		{name: "empty history", history: nil, expected: nil},
		{name: "below limit", history: openFor(3, borrowerID), expected: nil},
		{name: "at limit", history: openFor(4, borrowerID), expected: core.ErrLimitReached},
		{name: "other borrowers do not count", history: openFor(4, uuid.New()), expected: nil},
		{name: "item on loan", history: core.Transactions{openTx(itemID, uuid.New())}, expected: core.ErrItemUnavailable},
		{name: "item returned before", history: core.Transactions{returned}, expected: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := core.DecideOpenBorrowing(tc.history, openTx(itemID, borrowerID), 4)

			if tc.expected == nil {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func Test_DaysBetween_And_DueDate(t *testing.T) {
	assert.Equal(t, 3, core.DaysBetween(day.AddDate(0, 0, 7), day.AddDate(0, 0, 10)))
	assert.Equal(t, -2, core.DaysBetween(day, day.AddDate(0, 0, -2)))
	assert.Equal(t, 0, core.DaysBetween(day, day.Add(23*time.Hour)))
	assert.Equal(t, day.AddDate(0, 0, 7), core.DueDateFor(day.Add(15*time.Hour)))
}
