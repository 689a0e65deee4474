// Package payment talks to the external card payment gateway.
//
// Every failure is mapped onto one of two outcomes: core.ErrPaymentDeclined when the gateway
// answered and refused, core.ErrPaymentGatewayUnreachable for everything else, timeouts included.
package payment

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
)

// SettlementRequest is a debit or a credit of a card.
type SettlementRequest struct {
	CardNumber     string
	Amount         decimal.Decimal
	Currency       core.CurrencyString
	IdempotencyKey string
}

// Gateway debits and credits cards and returns the gateway's settlement reference.
type Gateway interface {
	Debit(ctx context.Context, req SettlementRequest) (string, error)
	Credit(ctx context.Context, req SettlementRequest) (string, error)
}
