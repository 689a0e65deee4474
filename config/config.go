package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	EnvDatabaseDSN                = "LENDING_DATABASE_DSN"
	EnvEventsTable                = "LENDING_EVENTS_TABLE"
	EnvTransactionLimit           = "LENDING_TRANSACTION_LIMIT"
	EnvPaymentBaseURL             = "LENDING_PAYMENT_BASE_URL"
	EnvPaymentTimeout             = "LENDING_PAYMENT_TIMEOUT"
	EnvNotificationBaseURL        = "LENDING_NOTIFICATION_BASE_URL"
	EnvNotificationAMQPURL        = "LENDING_NOTIFICATION_AMQP_URL"
	EnvNotificationQueue          = "LENDING_NOTIFICATION_QUEUE"
	EnvNotificationWorkers        = "LENDING_NOTIFICATION_WORKERS"
	EnvNotificationMaxAttempts    = "LENDING_NOTIFICATION_MAX_ATTEMPTS"
	EnvAlertKafkaBrokers          = "LENDING_ALERT_KAFKA_BROKERS"
	EnvAlertKafkaTopic            = "LENDING_ALERT_KAFKA_TOPIC"
	EnvObservabilityEnabled       = "LENDING_OBSERVABILITY_ENABLED"
	EnvOTLPEndpoint               = "LENDING_OTLP_ENDPOINT"
	defaultEventsTable            = "lending_events"
	defaultTransactionLimit       = 4
	defaultPaymentTimeout         = 10 * time.Second
	defaultNotificationQueue      = "lending.notifications"
	defaultNotificationWorkers    = 4
	defaultNotificationMaxAttempt = 3
	defaultAlertKafkaTopic        = "lending.alerts"
	defaultOTLPEndpoint           = "localhost:4317"
)

var (
	ErrLoadingEnvFileFailed = errors.New("loading the env file failed")
	ErrInvalidValue         = errors.New("invalid configuration value")
	ErrValidationFailed     = errors.New("configuration is invalid")
	ErrNoNotificationTarget = errors.New("either " + EnvNotificationBaseURL + " or " + EnvNotificationAMQPURL + " must be set")
)

// Config is the complete lending configuration.
type Config struct {
	DatabaseDSN      string `validate:"required"`
	EventsTable      string `validate:"required"`
	TransactionLimit int    `validate:"gte=1"`

	PaymentBaseURL string        `validate:"required,url"`
	PaymentTimeout time.Duration `validate:"gt=0"`

	// One notification transport is required, AMQP wins if both are set.
	NotificationBaseURL     string `validate:"omitempty,url"`
	NotificationAMQPURL     string `validate:"omitempty,url"`
	NotificationQueue       string `validate:"required_with=NotificationAMQPURL"`
	NotificationWorkers     int    `validate:"gte=1"`
	NotificationMaxAttempts int    `validate:"gte=1,lte=10"`

	AlertKafkaBrokers []string `validate:"omitempty,dive,hostname_port"`
	AlertKafkaTopic   string   `validate:"required_with=AlertKafkaBrokers"`

	// OTLPEndpoint is the gRPC collector that receives metrics and logs when observability is enabled.
	ObservabilityEnabled bool
	OTLPEndpoint         string `validate:"omitempty,hostname_port"`
}

// Load reads the configuration from the environment. envFiles are loaded first, without
// overriding variables that are already set. Missing files are an error, so pass only files that exist.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return Config{}, errors.Join(ErrLoadingEnvFileFailed, err)
		}
	}

	var errs []error

	cfg := Config{
		DatabaseDSN:         os.Getenv(EnvDatabaseDSN),
		EventsTable:         stringOr(EnvEventsTable, defaultEventsTable),
		PaymentBaseURL:      os.Getenv(EnvPaymentBaseURL),
		NotificationBaseURL: os.Getenv(EnvNotificationBaseURL),
		NotificationAMQPURL: os.Getenv(EnvNotificationAMQPURL),
		NotificationQueue:   stringOr(EnvNotificationQueue, defaultNotificationQueue),
		AlertKafkaBrokers:   listOf(EnvAlertKafkaBrokers),
		AlertKafkaTopic:     stringOr(EnvAlertKafkaTopic, defaultAlertKafkaTopic),
		OTLPEndpoint:        stringOr(EnvOTLPEndpoint, defaultOTLPEndpoint),
	}

	cfg.TransactionLimit = intOr(EnvTransactionLimit, defaultTransactionLimit, &errs)
	cfg.PaymentTimeout = durationOr(EnvPaymentTimeout, defaultPaymentTimeout, &errs)
	cfg.NotificationWorkers = intOr(EnvNotificationWorkers, defaultNotificationWorkers, &errs)
	cfg.NotificationMaxAttempts = intOr(EnvNotificationMaxAttempts, defaultNotificationMaxAttempt, &errs)
	cfg.ObservabilityEnabled = boolOr(EnvObservabilityEnabled, false, &errs)

	if len(errs) > 0 {
		return Config{}, errors.Join(append([]error{ErrInvalidValue}, errs...)...)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the struct tags of cfg.
func (cfg Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return errors.Join(ErrValidationFailed, err)
	}

	if cfg.NotificationBaseURL == "" && cfg.NotificationAMQPURL == "" {
		return errors.Join(ErrValidationFailed, ErrNoNotificationTarget)
	}

	return nil
}

// UsesAMQP reports whether notifications go through the message broker instead of the email service.
func (cfg Config) UsesAMQP() bool {
	return cfg.NotificationAMQPURL != ""
}

// UsesKafkaAlerts reports whether operator alerts go to Kafka instead of the log.
func (cfg Config) UsesKafkaAlerts() bool {
	return len(cfg.AlertKafkaBrokers) > 0
}

func stringOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}

	return fallback
}

func listOf(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}

	values := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}

	return values
}

func intOr(key string, fallback int, errs *[]error) int {
	raw := stringOr(key, "")
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, errors.Join(errors.New(key), err))
		return fallback
	}

	return value
}

func durationOr(key string, fallback time.Duration, errs *[]error) time.Duration {
	raw := stringOr(key, "")
	if raw == "" {
		return fallback
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, errors.Join(errors.New(key), err))
		return fallback
	}

	return value
}

func boolOr(key string, fallback bool, errs *[]error) bool {
	raw := stringOr(key, "")
	if raw == "" {
		return fallback
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, errors.Join(errors.New(key), err))
		return fallback
	}

	return value
}
