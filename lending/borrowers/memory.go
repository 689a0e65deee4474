package borrowers

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
)

// MemoryDirectory is an in-process Directory.
type MemoryDirectory struct {
	mu        sync.RWMutex
	borrowers map[uuid.UUID]core.Borrower
}

func NewMemoryDirectory(borrowers ...core.Borrower) *MemoryDirectory {
	d := &MemoryDirectory{borrowers: make(map[uuid.UUID]core.Borrower, len(borrowers))}
	for _, b := range borrowers {
		d.borrowers[b.ID] = b
	}

	return d
}

func (d *MemoryDirectory) FindByID(_ context.Context, id uuid.UUID) (core.Borrower, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	b, ok := d.borrowers[id]
	if !ok {
		return core.Borrower{}, core.ErrBorrowerNotFound
	}

	return b, nil
}

func (d *MemoryDirectory) FindByEmail(_ context.Context, email string) (core.Borrower, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	email = NormalizeEmail(email)
	for _, b := range d.borrowers {
		if NormalizeEmail(b.Email) == email {
			return b, nil
		}
	}

	return core.Borrower{}, core.ErrBorrowerNotFound
}
