// Package settlement runs borrows and returns against the payment gateway and keeps inventory,
// transaction records and money consistent. Work done before a failure is undone with explicit
// compensating actions. A compensation that fails is fatal and escalated to an operator.
package settlement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/book-lending-settlement/lending/alerting"
	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
	"github.com/AntonStoeckl/book-lending-settlement/lending/payment"
	"github.com/AntonStoeckl/book-lending-settlement/lending/shell"
)

const (
	// DefaultPaymentTimeout bounds each gateway call. A timeout counts as unreachable.
	DefaultPaymentTimeout = 10 * time.Second

	compensationTimeout = 15 * time.Second
)

var (
	ErrNilDependency  = errors.New("settlement dependency must not be nil")
	ErrInvalidTimeout = errors.New("payment timeout must be positive")

	ErrRefundWithoutReturn = errors.New("insurance fee refunded but the return was not recorded")
)

// Eligibility is the pre-flight check of a borrow.
type Eligibility interface {
	CheckBorrowEligibility(ctx context.Context, item core.Item, borrower core.Borrower) error
	Limit() int
}

// Availability is the catalog's compare-and-set on the availability flag.
type Availability interface {
	CompareAndSetAvailability(ctx context.Context, id uuid.UUID, expected, next bool) error
}

// Transactions persists borrows and returns.
type Transactions interface {
	OpenBorrowing(ctx context.Context, tx core.Transaction, limit int) error
	MarkReturned(ctx context.Context, returned core.Transaction) error
}

// Notifier queues a notification without blocking.
type Notifier interface {
	Notify(recipient, text string) bool
}

// BorrowRequest asks to lend Item to Borrower from BorrowDate until the requested ReturnDate.
type BorrowRequest struct {
	Item       core.Item
	Borrower   core.Borrower
	BorrowDate time.Time
	ReturnDate time.Time
	CardNumber string
	Currency   core.CurrencyString
}

// ReturnRequest asks to close Transaction, which lends Item to Borrower, on ActualReturnDate.
type ReturnRequest struct {
	Transaction      core.Transaction
	Item             core.Item
	Borrower         core.Borrower
	ActualReturnDate time.Time
	CardNumber       string
	Currency         core.CurrencyString
}

// Orchestrator is the settlement orchestrator.
type Orchestrator struct {
	eligibility    Eligibility
	gateway        payment.Gateway
	availability   Availability
	transactions   Transactions
	notifier       Notifier
	alerter        alerting.Alerter
	paymentTimeout time.Duration
	newID          func() uuid.UUID
	now            func() time.Time
	logger         shell.OpsLogger
	metrics        shell.MetricsCollector
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithPaymentTimeout bounds each gateway call.
func WithPaymentTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) error {
		if timeout <= 0 {
			return ErrInvalidTimeout
		}

		o.paymentTimeout = timeout

		return nil
	}
}

// WithIDGenerator replaces uuid.New for new transaction ids.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(o *Orchestrator) error {
		o.newID = newID
		return nil
	}
}

// WithClock replaces time.Now, used for alert timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) error {
		o.now = now
		return nil
	}
}

func WithLogger(logger shell.Logger) Option {
	return func(o *Orchestrator) error {
		o.logger.Logger = logger
		return nil
	}
}

func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(o *Orchestrator) error {
		o.logger.ContextualLogger = logger
		return nil
	}
}

func WithMetrics(collector shell.MetricsCollector) Option {
	return func(o *Orchestrator) error {
		o.metrics = collector
		return nil
	}
}

func NewOrchestrator(
	eligibility Eligibility,
	gateway payment.Gateway,
	availability Availability,
	transactions Transactions,
	notifier Notifier,
	alerter alerting.Alerter,
	options ...Option,
) (*Orchestrator, error) {

	if eligibility == nil || gateway == nil || availability == nil || transactions == nil || notifier == nil || alerter == nil {
		return nil, ErrNilDependency
	}

	o := &Orchestrator{
		eligibility:    eligibility,
		gateway:        gateway,
		availability:   availability,
		transactions:   transactions,
		notifier:       notifier,
		alerter:        alerter,
		paymentTimeout: DefaultPaymentTimeout,
		newID:          uuid.New,
		now:            time.Now,
	}

	for _, option := range options {
		if err := option(o); err != nil {
			return nil, err
		}
	}

	return o, nil
}
