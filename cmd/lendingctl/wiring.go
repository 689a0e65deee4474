package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/AntonStoeckl/book-lending-settlement/config"
	"github.com/AntonStoeckl/book-lending-settlement/eventstore/postgresengine"
	"github.com/AntonStoeckl/book-lending-settlement/lending/alerting"
	"github.com/AntonStoeckl/book-lending-settlement/lending/borrowers"
	"github.com/AntonStoeckl/book-lending-settlement/lending/catalog"
	"github.com/AntonStoeckl/book-lending-settlement/lending/eligibility"
	"github.com/AntonStoeckl/book-lending-settlement/lending/notification"
	"github.com/AntonStoeckl/book-lending-settlement/lending/payment"
	"github.com/AntonStoeckl/book-lending-settlement/lending/repository"
	"github.com/AntonStoeckl/book-lending-settlement/lending/service"
	"github.com/AntonStoeckl/book-lending-settlement/lending/settlement"
	"github.com/AntonStoeckl/book-lending-settlement/oteladapters"
)

const (
	instrumentationName = "github.com/AntonStoeckl/book-lending-settlement"
	shutdownTimeout     = 10 * time.Second
)

// app holds the wired service and everything that must be closed after a command.
type app struct {
	service   *service.Service
	directory borrowers.Directory
	closers   []func(ctx context.Context) error
}

func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}

	return errors.Join(errs...)
}

func (a *app) onClose(fn func(ctx context.Context) error) {
	a.closers = append(a.closers, fn)
}

// wire builds the service from cfg. On error everything opened so far is closed again.
func wire(ctx context.Context, cfg config.Config) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			err = errors.Join(err, a.close())
		}
	}()

	var metrics *oteladapters.MetricsCollector
	if cfg.ObservabilityEnabled {
		var providers *config.ObservabilityProviders
		providers, err = config.NewObservabilityProviders(ctx, cfg.OTLPEndpoint, instrumentationName)
		if err != nil {
			return nil, err
		}
		a.onClose(providers.Shutdown)

		metrics, err = oteladapters.NewMetricsCollector(providers.MeterProvider.Meter(instrumentationName))
		if err != nil {
			return nil, err
		}
	}

	logger, alertLogger := newLoggers(cfg, os.Stderr)

	pool, err := config.PostgresPGXPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	a.onClose(func(context.Context) error { pool.Close(); return nil })

	db, err := config.PostgresSQLX(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	a.onClose(func(context.Context) error { return db.Close() })

	storeOptions := []postgresengine.Option{
		postgresengine.WithTableName(cfg.EventsTable),
		postgresengine.WithContextualLogger(logger),
	}
	if metrics != nil {
		storeOptions = append(storeOptions, postgresengine.WithMetrics(metrics))
	}

	eventStore, err := postgresengine.NewEventStoreFromPGXPool(pool, storeOptions...)
	if err != nil {
		return nil, err
	}

	items, err := catalog.NewPostgresStore(pool)
	if err != nil {
		return nil, err
	}

	directory, err := borrowers.NewPostgresDirectory(db, "")
	if err != nil {
		return nil, err
	}
	a.directory = directory

	gateway, err := payment.NewHTTPClient(cfg.PaymentBaseURL, payment.WithTimeout(cfg.PaymentTimeout))
	if err != nil {
		return nil, err
	}

	sender, err := newNotificationSender(cfg, a)
	if err != nil {
		return nil, err
	}

	dispatcherOptions := []notification.DispatcherOption{
		notification.WithWorkers(cfg.NotificationWorkers),
		notification.WithMaxAttempts(cfg.NotificationMaxAttempts),
		notification.WithContextualLogger(logger),
	}
	if metrics != nil {
		dispatcherOptions = append(dispatcherOptions, notification.WithMetrics(metrics))
	}

	dispatcher, err := notification.NewDispatcher(sender, dispatcherOptions...)
	if err != nil {
		return nil, err
	}
	dispatcher.Start()
	a.onClose(dispatcher.Stop)

	alerter := newAlerter(cfg, alertLogger, a)

	transactions, err := repository.NewRepository(eventStore, items)
	if err != nil {
		return nil, err
	}

	guard, err := eligibility.NewGuard(transactions, cfg.TransactionLimit)
	if err != nil {
		return nil, err
	}

	orchestratorOptions := []settlement.Option{
		settlement.WithPaymentTimeout(cfg.PaymentTimeout),
		settlement.WithContextualLogger(logger),
	}
	if metrics != nil {
		orchestratorOptions = append(orchestratorOptions, settlement.WithMetrics(metrics))
	}

	orchestrator, err := settlement.NewOrchestrator(
		guard, gateway, items, transactions, dispatcher, alerter, orchestratorOptions...,
	)
	if err != nil {
		return nil, err
	}

	serviceOptions := []service.Option{service.WithContextualLogger(logger)}
	if metrics != nil {
		serviceOptions = append(serviceOptions, service.WithMetrics(metrics))
	}

	a.service, err = service.NewService(items, directory, transactions, orchestrator, guard, serviceOptions...)
	if err != nil {
		return nil, err
	}

	return a, nil
}

func newNotificationSender(cfg config.Config, a *app) (notification.Sender, error) {
	if cfg.UsesAMQP() {
		publisher, err := notification.DialAMQPPublisher(cfg.NotificationAMQPURL, cfg.NotificationQueue)
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error { return publisher.Close() })

		return publisher, nil
	}

	return notification.NewHTTPSender(cfg.NotificationBaseURL, nil)
}

// newLoggers returns the application logger and the logger for operator alerts. With observability
// enabled the application logs go to the OTLP collector while alerts are still written to w.
func newLoggers(cfg config.Config, w io.Writer) (*oteladapters.SlogBridgeLogger, *slog.Logger) {
	local := oteladapters.NewSlogLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if !cfg.ObservabilityEnabled {
		return local, local.Slog()
	}

	return oteladapters.NewSlogBridgeLogger(instrumentationName), local.Slog()
}

func newAlerter(cfg config.Config, logger *slog.Logger, a *app) alerting.Alerter {
	if cfg.UsesKafkaAlerts() {
		kafkaAlerter := alerting.NewKafkaAlerter(cfg.AlertKafkaBrokers, cfg.AlertKafkaTopic)
		a.onClose(func(context.Context) error { return kafkaAlerter.Close() })

		return kafkaAlerter
	}

	return alerting.NewLogAlerter(logger)
}
