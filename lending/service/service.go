// Package service exposes the core lending operations to a request layer.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
	"github.com/AntonStoeckl/book-lending-settlement/lending/settlement"
	"github.com/AntonStoeckl/book-lending-settlement/lending/shell"
	"github.com/AntonStoeckl/book-lending-settlement/lending/statemachine"
)

var ErrNilDependency = errors.New("service dependency must not be nil")

// Catalog finds items and flips their availability.
type Catalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (core.Item, error)
	FindByISBN(ctx context.Context, isbn string) (core.Item, error)
	CompareAndSetAvailability(ctx context.Context, id uuid.UUID, expected, next bool) error
}

// Directory finds borrowers.
type Directory interface {
	FindByID(ctx context.Context, id uuid.UUID) (core.Borrower, error)
	FindByEmail(ctx context.Context, email string) (core.Borrower, error)
}

// Repository reads and writes borrowing transactions.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (core.Transaction, error)
	FindByItem(ctx context.Context, itemID uuid.UUID) (core.Transactions, error)
	FindAll(ctx context.Context) (core.Transactions, error)
	Adjust(ctx context.Context, update statemachine.Update, limit int) error
	DeleteByID(ctx context.Context, id uuid.UUID) (core.Transaction, error)
	DeleteAll(ctx context.Context) (int, error)
}

// Settlement runs borrows and returns.
type Settlement interface {
	Borrow(ctx context.Context, req settlement.BorrowRequest) (core.Transaction, error)
	GiveBack(ctx context.Context, req settlement.ReturnRequest) (core.Transaction, error)
}

// LimitChecker checks the per-borrower limit.
type LimitChecker interface {
	CheckBorrowerLimit(ctx context.Context, borrowerID uuid.UUID) error
	Limit() int
}

// BorrowingRequest identifies item and borrower the way a client knows them.
type BorrowingRequest struct {
	ISBN          string
	BorrowerEmail string
	ReturnDate    time.Time
	CardNumber    string
	Currency      core.CurrencyString
}

// ReturnRequest is a BorrowingRequest whose ReturnDate is the actual return date.
type ReturnRequest = BorrowingRequest

// Service implements the core lending operations.
type Service struct {
	catalog    Catalog
	directory  Directory
	repository Repository
	settlement Settlement
	limits     LimitChecker
	now        func() time.Time
	logger     shell.OpsLogger
	metrics    shell.MetricsCollector
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, which decides "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithLogger(logger shell.Logger) Option {
	return func(s *Service) {
		s.logger.Logger = logger
	}
}

func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(s *Service) {
		s.logger.ContextualLogger = logger
	}
}

func WithMetrics(collector shell.MetricsCollector) Option {
	return func(s *Service) {
		s.metrics = collector
	}
}

func NewService(
	catalog Catalog,
	directory Directory,
	repository Repository,
	settlement Settlement,
	limits LimitChecker,
	opts ...Option,
) (*Service, error) {

	if catalog == nil || directory == nil || repository == nil || settlement == nil || limits == nil {
		return nil, ErrNilDependency
	}

	s := &Service{
		catalog:    catalog,
		directory:  directory,
		repository: repository,
		settlement: settlement,
		limits:     limits,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *Service) today() time.Time {
	return core.ToDate(s.now())
}
