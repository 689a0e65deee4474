package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/book-lending-settlement/eventstore"
	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
	"github.com/AntonStoeckl/book-lending-settlement/lending/shell"
)

var (
	ErrNilEventStore      = errors.New("event store must not be nil")
	ErrNilAvailability    = errors.New("availability store must not be nil")
	ErrRestoringAvailable = errors.New("restoring item availability failed")
	ErrRevertingRelease   = errors.New("reverting released item availability failed")
)

// EventStore defines the interface needed by the Repository for event store operations.
type EventStore interface {
	Query(ctx context.Context, filter eventstore.Filter) (
		eventstore.StorableEvents,
		eventstore.MaxSequenceNumberUint,
		error,
	)
	Append(
		ctx context.Context,
		filter eventstore.Filter,
		expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
		storableEvents ...eventstore.StorableEvent,
	) error
}

// Availability is the catalog's availability flag, used to release items of deleted open transactions.
type Availability interface {
	CompareAndSetAvailability(ctx context.Context, id uuid.UUID, expected, next bool) error
}

// Repository is the transaction repository facade.
type Repository struct {
	eventStore   EventStore
	availability Availability
	now          func() time.Time
	retryOptions []shell.RetryOption
}

// Option configures a Repository.
type Option func(*Repository)

// WithRetryOptions sets a custom retry configuration for conditional appends.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(r *Repository) {
		r.retryOptions = opts
	}
}

// WithClock replaces time.Now as the source of the events' OccurredAt.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

func NewRepository(eventStore EventStore, availability Availability, opts ...Option) (*Repository, error) {
	if eventStore == nil {
		return nil, ErrNilEventStore
	}

	if availability == nil {
		return nil, ErrNilAvailability
	}

	r := &Repository{
		eventStore:   eventStore,
		availability: availability,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// FindByID returns the transaction or core.ErrTransactionNotFound.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (core.Transaction, error) {
	transactions, _, err := r.load(ctx, transactionFilter(id))
	if err != nil {
		return core.Transaction{}, err
	}

	if len(transactions) == 0 {
		return core.Transaction{}, core.ErrTransactionNotFound
	}

	return transactions[0], nil
}

// CountOpenByBorrower returns the live number of open transactions of the borrower.
func (r *Repository) CountOpenByBorrower(ctx context.Context, borrowerID uuid.UUID) (int, error) {
	transactions, _, err := r.loadComplete(ctx, borrowerFilter(borrowerID, uuid.Nil))
	if err != nil {
		return 0, err
	}

	return len(core.OpenForBorrower(transactions, borrowerID)), nil
}

// FindByItem returns all transactions of the item, oldest first.
func (r *Repository) FindByItem(ctx context.Context, itemID uuid.UUID) (core.Transactions, error) {
	transactions, _, err := r.load(ctx, itemFilter(itemID))

	return transactions, err
}

// FindAll returns all transactions, oldest first.
func (r *Repository) FindAll(ctx context.Context) (core.Transactions, error) {
	transactions, _, err := r.load(ctx, allEventsFilter())

	return transactions, err
}

// load queries filter and folds the result. Filters must select complete transaction histories.
func (r *Repository) load(ctx context.Context, filter eventstore.Filter) (
	core.Transactions,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	storableEvents, maxSequenceNumber, err := r.eventStore.Query(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return nil, 0, err
	}

	transactions, err := core.TransactionsFrom(history)
	if err != nil {
		return nil, 0, err
	}

	return transactions, maxSequenceNumber, nil
}

// loadComplete queries filter to find the transactions it touches and then loads their complete
// histories. The returned sequence number belongs to filter, so it can guard a conditional append.
func (r *Repository) loadComplete(ctx context.Context, filter eventstore.Filter) (
	core.Transactions,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	storableEvents, maxSequenceNumber, err := r.eventStore.Query(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, 0)
	seen := make(map[string]struct{})
	for _, event := range history {
		id := event.TransactionIDOf()
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return core.Transactions{}, maxSequenceNumber, nil
	}

	transactions, _, err := r.load(ctx, transactionsFilter(ids))
	if err != nil {
		return nil, 0, err
	}

	return transactions, maxSequenceNumber, nil
}

// loadOne loads a single transaction history, failing with core.ErrTransactionNotFound.
func (r *Repository) loadOne(ctx context.Context, filter eventstore.Filter) (
	core.Transaction,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	transactions, maxSequenceNumber, err := r.load(ctx, filter)
	if err != nil {
		return core.Transaction{}, 0, err
	}

	if len(transactions) == 0 {
		return core.Transaction{}, 0, core.ErrTransactionNotFound
	}

	return transactions[0], maxSequenceNumber, nil
}

func (r *Repository) appendEvents(
	ctx context.Context,
	filter eventstore.Filter,
	maxSequenceNumber eventstore.MaxSequenceNumberUint,
	correlationID uuid.UUID,
	operation string,
	events ...core.DomainEvent,
) error {

	storableEvents := make(eventstore.StorableEvents, 0, len(events))
	for _, event := range events {
		storableEvent, err := shell.StorableEventFrom(event, shell.BuildEventMetadata(uuid.New(), correlationID, operation))
		if err != nil {
			return err
		}

		storableEvents = append(storableEvents, storableEvent)
	}

	return r.eventStore.Append(ctx, filter, maxSequenceNumber, storableEvents...)
}

func (r *Repository) withRetry(ctx context.Context, fn shell.RetryableFunc) error {
	_, err := shell.RetryWithExponentialBackoff(ctx, fn, r.retryOptions...)

	return err
}
