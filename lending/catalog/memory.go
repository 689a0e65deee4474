package catalog

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]core.Item
}

func NewMemoryStore(items ...core.Item) *MemoryStore {
	s := &MemoryStore{items: make(map[uuid.UUID]core.Item, len(items))}
	for _, item := range items {
		s.items[item.ID] = item
	}

	return s
}

// Put adds or replaces an item.
func (s *MemoryStore) Put(item core.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[item.ID] = item
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (core.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return core.Item{}, core.ErrItemNotFound
	}

	return item, nil
}

func (s *MemoryStore) FindByISBN(_ context.Context, isbn string) (core.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	isbn = NormalizeISBN(isbn)
	for _, item := range s.items {
		if item.ISBN == isbn {
			return item, nil
		}
	}

	return core.Item{}, core.ErrItemNotFound
}

func (s *MemoryStore) CompareAndSetAvailability(_ context.Context, id uuid.UUID, expected, next bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return core.ErrItemNotFound
	}

	if item.Available != expected {
		return ErrAvailabilityConflict
	}

	item.Available = next
	s.items[id] = item

	return nil
}
