package core

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Pricing of an item. All amounts are in the currency of the settlement.
type Pricing struct {
	BasePrice            decimal.Decimal
	ExtraDaysRentalPrice decimal.Decimal
	InsuranceFee         decimal.Decimal
}

// Item is a lendable catalog record. The catalog owns it, the lending core only references it by ID.
type Item struct {
	ID        uuid.UUID
	ISBN      string
	Title     string
	Available bool
	Pricing   Pricing
}

// Borrower is a registered borrower, owned by the borrower directory.
type Borrower struct {
	ID    uuid.UUID
	Name  string
	Email string
}
