package core

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrMalformedEvent is returned when an event references an ID that is not a UUID.
var ErrMalformedEvent = errors.New("event contains a malformed id")

// TransactionsFrom folds the events into transactions, in the order the transactions were opened.
// Deleted transactions are left out. Events for transactions whose BorrowingOpened is not part of
// the history are ignored.
func TransactionsFrom(history DomainEvents) (Transactions, error) {
	byID := make(map[TransactionIDString]*Transaction)
	order := make([]TransactionIDString, 0)

	for _, event := range history {
		switch e := event.(type) {
		case BorrowingOpened:
			tx, err := openedTransaction(e)
			if err != nil {
				return nil, err
			}

			byID[e.TransactionID] = &tx
			order = append(order, e.TransactionID)

		case BorrowingReturned:
			if tx, ok := byID[e.TransactionID]; ok {
				tx.Status = StatusReturned
				tx.ReturnedOn = e.ReturnedOn
				tx.RefundAmount = e.RefundAmount
				tx.RefundRef = e.RefundRef
			}

		case BorrowingAdjusted:
			if tx, ok := byID[e.TransactionID]; ok {
				borrowerID, err := uuid.Parse(e.BorrowerID)
				if err != nil {
					return nil, errors.Join(ErrMalformedEvent, err)
				}

				tx.BorrowerID = borrowerID
				tx.BorrowDate = e.BorrowDate
				tx.DueDate = e.DueDate
				tx.ReturnDate = e.ReturnDate
			}

		case BorrowingDeleted:
			delete(byID, e.TransactionID)
		}
	}

	transactions := make(Transactions, 0, len(byID))
	for _, id := range order {
		if tx, ok := byID[id]; ok {
			transactions = append(transactions, *tx)
		}
	}

	return transactions, nil
}

func openedTransaction(e BorrowingOpened) (Transaction, error) {
	ids := make([]uuid.UUID, 3)

	for i, raw := range []string{e.TransactionID, e.ItemID, e.BorrowerID} {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Transaction{}, errors.Join(ErrMalformedEvent, err)
		}

		ids[i] = id
	}

	return Transaction{
		ID:            ids[0],
		ItemID:        ids[1],
		BorrowerID:    ids[2],
		BorrowDate:    e.BorrowDate,
		DueDate:       e.DueDate,
		ReturnDate:    e.ReturnDate,
		Status:        StatusBorrowed,
		Fee:           e.Fee,
		InsuranceFee:  e.InsuranceFee,
		Currency:      e.Currency,
		SettlementRef: e.SettlementRef,
		RefundAmount:  decimal.Zero,
	}, nil
}

// OpenForBorrower returns the open transactions of the borrower.
func OpenForBorrower(transactions Transactions, borrowerID uuid.UUID) Transactions {
	open := make(Transactions, 0)

	for _, tx := range transactions {
		if tx.IsOpen() && tx.BorrowerID == borrowerID {
			open = append(open, tx)
		}
	}

	return open
}

// OpenForItem returns the open transaction of the item, if there is one.
func OpenForItem(transactions Transactions, itemID uuid.UUID) (Transaction, bool) {
	for _, tx := range transactions {
		if tx.IsOpen() && tx.ItemID == itemID {
			return tx, true
		}
	}

	return Transaction{}, false
}

// DecideOpenBorrowing is the last check before a new transaction is stored: the item must not be
// on loan and the borrower must stay within limit. history must contain every event of the
// borrower and the item.
func DecideOpenBorrowing(history Transactions, tx Transaction, limit int) error {
	if _, onLoan := OpenForItem(history, tx.ItemID); onLoan {
		return ErrItemUnavailable
	}

	if len(OpenForBorrower(history, tx.BorrowerID)) >= limit {
		return ErrLimitReached
	}

	return nil
}
