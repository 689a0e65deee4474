package main

import (
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
)

type transactionView struct {
	ID            string `json:"id"`
	ItemID        string `json:"itemId"`
	BorrowerID    string `json:"borrowerId"`
	BorrowDate    string `json:"borrowDate"`
	DueDate       string `json:"dueDate"`
	ReturnDate    string `json:"returnDate"`
	ReturnedOn    string `json:"returnedOn,omitempty"`
	Status        string `json:"status"`
	Fee           string `json:"fee"`
	InsuranceFee  string `json:"insuranceFee,omitempty"`
	Currency      string `json:"currency"`
	SettlementRef string `json:"settlementRef,omitempty"`
	RefundAmount  string `json:"refundAmount,omitempty"`
	RefundRef     string `json:"refundRef,omitempty"`
}

type deletedView struct {
	Deleted int `json:"deleted"`
}

type errorView struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
	Kind   string `json:"kind"`
}

func transactionViewOf(tx core.Transaction) transactionView {
	view := transactionView{
		ID:            tx.ID.String(),
		ItemID:        tx.ItemID.String(),
		BorrowerID:    tx.BorrowerID.String(),
		BorrowDate:    tx.BorrowDate.Format(dateLayout),
		DueDate:       tx.DueDate.Format(dateLayout),
		ReturnDate:    tx.ReturnDate.Format(dateLayout),
		Status:        string(tx.Status),
		Fee:           tx.Fee.StringFixed(2),
		Currency:      tx.Currency,
		SettlementRef: tx.SettlementRef,
		RefundRef:     tx.RefundRef,
	}

	if !tx.ReturnedOn.IsZero() {
		view.ReturnedOn = tx.ReturnedOn.Format(dateLayout)
	}

	if !tx.InsuranceFee.IsZero() {
		view.InsuranceFee = tx.InsuranceFee.StringFixed(2)
	}

	if !tx.RefundAmount.IsZero() {
		view.RefundAmount = tx.RefundAmount.StringFixed(2)
	}

	return view
}

func transactionViewsOf(transactions core.Transactions) []transactionView {
	views := make([]transactionView, 0, len(transactions))
	for _, tx := range transactions {
		views = append(views, transactionViewOf(tx))
	}

	return views
}

func errorViewOf(err error) errorView {
	return errorView{
		Error:  err.Error(),
		Reason: string(core.ReasonCodeOf(err)),
		Kind:   string(core.KindOf(err)),
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
