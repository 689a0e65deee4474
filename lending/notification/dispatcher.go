package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AntonStoeckl/book-lending-settlement/lending/shell"
)

const (
	DefaultQueueSize   = 256
	DefaultWorkers     = 4
	DefaultMaxAttempts = 3

	defaultBaseDelay   = 100 * time.Millisecond
	defaultSendTimeout = 5 * time.Second

	notifyOperation = "notify"

	outcomeSent    = "sent"
	outcomeRetried = "retried"
	outcomeDropped = "dropped"

	logMsgQueueFull    = "notification queue full, message dropped"
	logMsgSendDropped  = "notification dropped after retries"
	logMsgDispatcherUp = "notification dispatcher started"
	logAttrRecipient   = "recipient"
	logAttrAttempts    = "attempts"
	logAttrOutcome     = "outcome"
	logAttrQueueLength = "queue_length"
	logAttrWorkerCount = "workers"
)

var (
	ErrNilSender          = errors.New("notification sender must not be nil")
	ErrInvalidQueueSize   = errors.New("queue size must be positive")
	ErrInvalidWorkerCount = errors.New("worker count must be positive")
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")
	ErrDispatcherStopped  = errors.New("notification dispatcher is stopped")
)

// Message is one queued notification.
type Message struct {
	Recipient string
	Text      string
}

// Dispatcher delivers messages on a pool of detached workers fed by a bounded queue.
// Notify never blocks: when the queue is full the message is dropped.
type Dispatcher struct {
	sender      Sender
	queue       chan Message
	workers     int
	maxAttempts int
	baseDelay   time.Duration
	sendTimeout time.Duration
	logger      shell.OpsLogger
	metrics     shell.MetricsCollector

	mu      sync.RWMutex
	started bool
	stopped bool
	wg      sync.WaitGroup
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher) error

func WithQueueSize(size int) DispatcherOption {
	return func(d *Dispatcher) error {
		if size <= 0 {
			return ErrInvalidQueueSize
		}

		d.queue = make(chan Message, size)

		return nil
	}
}

func WithWorkers(workers int) DispatcherOption {
	return func(d *Dispatcher) error {
		if workers <= 0 {
			return ErrInvalidWorkerCount
		}

		d.workers = workers

		return nil
	}
}

// WithMaxAttempts sets the attempts per message, including the first one.
func WithMaxAttempts(attempts int) DispatcherOption {
	return func(d *Dispatcher) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}

		d.maxAttempts = attempts

		return nil
	}
}

// WithBaseDelay sets the backoff before the first retry.
func WithBaseDelay(delay time.Duration) DispatcherOption {
	return func(d *Dispatcher) error {
		d.baseDelay = delay
		return nil
	}
}

func WithLogger(logger shell.Logger) DispatcherOption {
	return func(d *Dispatcher) error {
		d.logger.Logger = logger
		return nil
	}
}

func WithContextualLogger(logger shell.ContextualLogger) DispatcherOption {
	return func(d *Dispatcher) error {
		d.logger.ContextualLogger = logger
		return nil
	}
}

func WithMetrics(collector shell.MetricsCollector) DispatcherOption {
	return func(d *Dispatcher) error {
		d.metrics = collector
		return nil
	}
}

func NewDispatcher(sender Sender, options ...DispatcherOption) (*Dispatcher, error) {
	if sender == nil {
		return nil, ErrNilSender
	}

	d := &Dispatcher{
		sender:      sender,
		queue:       make(chan Message, DefaultQueueSize),
		workers:     DefaultWorkers,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		sendTimeout: defaultSendTimeout,
	}

	for _, option := range options {
		if err := option(d); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Start launches the workers. Calling it more than once has no effect.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started || d.stopped {
		return
	}

	d.started = true

	for range d.workers {
		d.wg.Add(1)
		go d.work()
	}

	d.logger.Debug(context.Background(), logMsgDispatcherUp, logAttrWorkerCount, d.workers)
}

// Notify queues a message and reports whether it was accepted.
func (d *Dispatcher) Notify(recipient, text string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		return false
	}

	select {
	case d.queue <- Message{Recipient: recipient, Text: text}:
		return true
	default:
		d.logger.Warn(context.Background(), logMsgQueueFull, logAttrRecipient, recipient, logAttrQueueLength, len(d.queue))
		d.count(context.Background(), outcomeDropped)

		return false
	}
}

// Stop closes the queue and waits until the workers drained it, or until ctx is done.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return ErrDispatcherStopped
	}

	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()

	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	ctx := context.Background()

	options := []shell.RetryOption{
		shell.WithMaxAttempts(d.maxAttempts),
		shell.WithBaseDelay(d.baseDelay),
		shell.WithRetryableErrorFunc(func(error) bool { return true }),
	}
	if d.metrics != nil {
		options = append(options, shell.WithMetrics(d.metrics, notifyOperation))
	}

	meta, err := shell.RetryWithExponentialBackoff(
		ctx,
		func(ctx context.Context) error {
			sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
			defer cancel()

			return d.sender.Send(sendCtx, msg.Recipient, msg.Text)
		},
		options...,
	)

	if meta.Attempts > 1 {
		d.count(ctx, outcomeRetried)
	}

	if err != nil {
		d.logger.Warn(ctx, logMsgSendDropped,
			logAttrRecipient, msg.Recipient,
			logAttrAttempts, meta.Attempts,
			shell.LogAttrError, err.Error(),
		)
		d.count(ctx, outcomeDropped)

		return
	}

	d.count(ctx, outcomeSent)
}

func (d *Dispatcher) count(ctx context.Context, outcome string) {
	shell.IncrementCounter(ctx, d.metrics, shell.NotificationsMetric, map[string]string{logAttrOutcome: outcome})
}
