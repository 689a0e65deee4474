// Package catalog adapts the item catalog: point look-ups and the compare-and-set of the
// availability flag that reserves and releases items.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
)

// ErrAvailabilityConflict is returned by CompareAndSetAvailability when the flag did not have the expected value.
var ErrAvailabilityConflict = errors.New("item availability changed concurrently")

// Store is the catalog as seen by the lending core.
type Store interface {
	FindByID(ctx context.Context, id uuid.UUID) (core.Item, error)
	FindByISBN(ctx context.Context, isbn string) (core.Item, error)

	// CompareAndSetAvailability sets available to next if and only if it currently equals expected.
	CompareAndSetAvailability(ctx context.Context, id uuid.UUID, expected, next bool) error
}

// NormalizeISBN trims surrounding whitespace.
func NormalizeISBN(isbn string) string {
	return strings.TrimSpace(isbn)
}
