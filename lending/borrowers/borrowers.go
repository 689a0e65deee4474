// Package borrowers adapts the borrower directory.
package borrowers

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
)

// Directory looks up borrowers. Email look-ups are case-insensitive.
type Directory interface {
	FindByID(ctx context.Context, id uuid.UUID) (core.Borrower, error)
	FindByEmail(ctx context.Context, email string) (core.Borrower, error)
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
