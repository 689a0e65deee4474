package notification

import (
	"context"
	"errors"

	jsoniter "github.com/json-iterator/go"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
)

var (
	ErrEmptyQueueName = errors.New("queue name must not be empty")
	ErrNilChannel     = errors.New("amqp channel must not be nil")
)

// amqpChannel is the part of *amqp.Channel the publisher uses.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher is a Sender that hands messages to a mail worker through a durable RabbitMQ queue.
type AMQPPublisher struct {
	conn  *amqp.Connection
	ch    amqpChannel
	queue string
}

// DialAMQPPublisher connects to url and declares queue as durable.
func DialAMQPPublisher(url, queue string) (*AMQPPublisher, error) {
	if queue == "" {
		return nil, ErrEmptyQueueName
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if _, err = ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()

		return nil, err
	}

	return &AMQPPublisher{conn: conn, ch: ch, queue: queue}, nil
}

// NewAMQPPublisher wraps an already opened channel. The queue must exist.
func NewAMQPPublisher(ch amqpChannel, queue string) (*AMQPPublisher, error) {
	if ch == nil {
		return nil, ErrNilChannel
	}

	if queue == "" {
		return nil, ErrEmptyQueueName
	}

	return &AMQPPublisher{ch: ch, queue: queue}, nil
}

func (p *AMQPPublisher) Send(ctx context.Context, email, text string) error {
	body, err := jsoniter.ConfigFastest.Marshal(sendEmailPayload{Email: email, Message: text})
	if err != nil {
		return errors.Join(core.ErrNotificationFailed, err)
	}

	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return errors.Join(core.ErrNotificationFailed, err)
	}

	return nil
}

// Close closes the channel and, if the publisher dialed it, the connection.
func (p *AMQPPublisher) Close() error {
	err := p.ch.Close()

	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}

	return err
}
