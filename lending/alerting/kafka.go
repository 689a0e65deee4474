package alerting

import (
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"
)

const defaultWriteTimeout = 3 * time.Second

var (
	ErrNilWriter        = errors.New("kafka writer must not be nil")
	ErrEscalationFailed = errors.New("escalating the alert failed")
)

// Writer is the part of *kafka.Writer the alerter uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaAlerter publishes alerts as JSON to a Kafka topic, keyed by item so alerts for one item stay ordered.
type KafkaAlerter struct {
	writer Writer
}

// NewKafkaAlerter creates an alerter writing to topic on the given brokers.
func NewKafkaAlerter(brokers []string, topic string) *KafkaAlerter {
	return &KafkaAlerter{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}
}

// NewKafkaAlerterWithWriter allows injecting a writer.
func NewKafkaAlerterWithWriter(writer Writer) (*KafkaAlerter, error) {
	if writer == nil {
		return nil, ErrNilWriter
	}

	return &KafkaAlerter{writer: writer}, nil
}

func (a *KafkaAlerter) Escalate(ctx context.Context, alert Alert) error {
	value, err := jsoniter.ConfigFastest.Marshal(alert)
	if err != nil {
		return errors.Join(ErrEscalationFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	if err = a.writer.WriteMessages(ctx, kafka.Message{Key: []byte(alert.ItemID), Value: value}); err != nil {
		return errors.Join(ErrEscalationFailed, err)
	}

	return nil
}

func (a *KafkaAlerter) Close() error {
	return a.writer.Close()
}
