package core

import (
	"errors"
)

var (
	ErrInvalidTransition  = errors.New("status transition is not allowed")
	ErrTransactionClosed  = errors.New("transaction is already returned and cannot be edited")
	ErrBorrowDateInFuture = errors.New("borrow date must not be in the future")
	ErrReturnBeforeBorrow = errors.New("return date must not be before the borrow date")
	ErrAlreadyReturned    = errors.New("transaction is already returned")

	ErrItemUnavailable = errors.New("item is not available")
	ErrLimitReached    = errors.New("borrower reached the transaction limit")

	ErrTransactionNotFound = errors.New("transaction not found")
	ErrItemNotFound        = errors.New("item not found")
	ErrBorrowerNotFound    = errors.New("borrower not found")
	ErrNoOpenBorrowing     = errors.New("no open borrowing for this item and borrower")

	ErrPaymentDeclined           = errors.New("payment declined")
	ErrPaymentGatewayUnreachable = errors.New("payment gateway unreachable")

	ErrPersistenceFailure  = errors.New("the request could not be completed, please retry or contact support")
	ErrCompensationFailure = errors.New("the system may be in an inconsistent state, please contact support")

	ErrNotificationFailed = errors.New("notification could not be delivered")
)

// ReasonCode is the stable, machine-readable reason of a failed operation.
type ReasonCode string

const (
	ReasonInvalidTransition         ReasonCode = "INVALID_TRANSITION"
	ReasonTransactionClosed         ReasonCode = "TRANSACTION_CLOSED"
	ReasonBorrowDateInFuture        ReasonCode = "BORROW_DATE_IN_FUTURE"
	ReasonReturnBeforeBorrow        ReasonCode = "RETURN_BEFORE_BORROW"
	ReasonAlreadyReturned           ReasonCode = "ALREADY_RETURNED"
	ReasonItemUnavailable           ReasonCode = "ITEM_UNAVAILABLE"
	ReasonLimitReached              ReasonCode = "LIMIT_REACHED"
	ReasonTransactionNotFound       ReasonCode = "TRANSACTION_NOT_FOUND"
	ReasonItemNotFound              ReasonCode = "ITEM_NOT_FOUND"
	ReasonBorrowerNotFound          ReasonCode = "BORROWER_NOT_FOUND"
	ReasonNoOpenBorrowing           ReasonCode = "NO_OPEN_BORROWING"
	ReasonPaymentDeclined           ReasonCode = "PAYMENT_DECLINED"
	ReasonPaymentGatewayUnreachable ReasonCode = "PAYMENT_GATEWAY_UNREACHABLE"
	ReasonPersistenceFailure        ReasonCode = "PERSISTENCE_FAILURE"
	ReasonCompensationFailure       ReasonCode = "COMPENSATION_FAILURE"
	ReasonNotificationFailed        ReasonCode = "NOTIFICATION_FAILED"
	ReasonUnknown                   ReasonCode = "UNKNOWN"
)

// ErrorKind groups reason codes by how a caller should react.
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation"
	KindBusinessRule       ErrorKind = "business_rule"
	KindNotFound           ErrorKind = "not_found"
	KindExternalDependency ErrorKind = "external_dependency"
	KindConsistency        ErrorKind = "consistency"
	KindBestEffort         ErrorKind = "best_effort"
	KindUnknown            ErrorKind = "unknown"
)

type classification struct {
	err  error
	code ReasonCode
	kind ErrorKind
}

// Consistency failures come first: a failed compensation wraps the rejection that triggered it.
var classifications = []classification{
	{ErrCompensationFailure, ReasonCompensationFailure, KindConsistency},
	{ErrPersistenceFailure, ReasonPersistenceFailure, KindConsistency},
	{ErrInvalidTransition, ReasonInvalidTransition, KindValidation},
	{ErrTransactionClosed, ReasonTransactionClosed, KindValidation},
	{ErrBorrowDateInFuture, ReasonBorrowDateInFuture, KindValidation},
	{ErrReturnBeforeBorrow, ReasonReturnBeforeBorrow, KindValidation},
	{ErrAlreadyReturned, ReasonAlreadyReturned, KindValidation},
	{ErrItemUnavailable, ReasonItemUnavailable, KindBusinessRule},
	{ErrLimitReached, ReasonLimitReached, KindBusinessRule},
	{ErrTransactionNotFound, ReasonTransactionNotFound, KindNotFound},
	{ErrItemNotFound, ReasonItemNotFound, KindNotFound},
	{ErrBorrowerNotFound, ReasonBorrowerNotFound, KindNotFound},
	{ErrNoOpenBorrowing, ReasonNoOpenBorrowing, KindNotFound},
	{ErrPaymentDeclined, ReasonPaymentDeclined, KindExternalDependency},
	{ErrPaymentGatewayUnreachable, ReasonPaymentGatewayUnreachable, KindExternalDependency},
	{ErrNotificationFailed, ReasonNotificationFailed, KindBestEffort},
}

func classify(err error) classification {
	for _, c := range classifications {
		if errors.Is(err, c.err) {
			return c
		}
	}

	return classification{err: err, code: ReasonUnknown, kind: KindUnknown}
}

// ReasonCodeOf returns the reason code of err, ReasonUnknown if err is not a lending error.
func ReasonCodeOf(err error) ReasonCode {
	return classify(err).code
}

// KindOf returns the kind of err, KindUnknown if err is not a lending error.
func KindOf(err error) ErrorKind {
	return classify(err).kind
}

// IsRejection reports whether err was a validation, business or not-found rejection
// that left no side effects.
func IsRejection(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindBusinessRule, KindNotFound:
		return true
	default:
		return false
	}
}
