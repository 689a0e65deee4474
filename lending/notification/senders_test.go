package notification_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	jsoniter "github.com/json-iterator/go"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
	"github.com/AntonStoeckl/book-lending-settlement/lending/notification"
)

type channelSpy struct {
	key       string
	published amqp.Publishing
	err       error
	closed    bool
}

func (c *channelSpy) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	c.key = key
	c.published = msg

	return c.err
}

func (c *channelSpy) Close() error {
	c.closed = true
	return nil
}

func Test_HTTPSender_PostsEmailAndMessage(t *testing.T) {
	// arrange
	var gotPath string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = jsoniter.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender, err := notification.NewHTTPSender(server.URL, nil)
	require.NoError(t, err)

	// act
	err = sender.Send(context.Background(), "ada@example.org", "hello")

	// assert
	require.NoError(t, err)
	assert.Equal(t, "/send-email", gotPath)
	assert.Equal(t, map[string]string{"email": "ada@example.org", "message": "hello"}, gotBody)
}

func Test_HTTPSender_FailsOnErrorStatus(t *testing.T) {
	// arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	sender, err := notification.NewHTTPSender(server.URL, server.Client())
	require.NoError(t, err)

	// act
	err = sender.Send(context.Background(), "ada@example.org", "hello")

	// assert
	assert.ErrorIs(t, err, core.ErrNotificationFailed)
}

func Test_AMQPPublisher_PublishesPersistentJSON(t *testing.T) {
	// arrange
	ch := &channelSpy{}
	publisher, err := notification.NewAMQPPublisher(ch, "lending.notifications")
	require.NoError(t, err)

	// act
	err = publisher.Send(context.Background(), "ada@example.org", "hello")

	// assert
	require.NoError(t, err)
	assert.Equal(t, "lending.notifications", ch.key)
	assert.Equal(t, "application/json", ch.published.ContentType)
	assert.Equal(t, amqp.Persistent, ch.published.DeliveryMode)
	assert.JSONEq(t, `{"email":"ada@example.org","message":"hello"}`, string(ch.published.Body))

	require.NoError(t, publisher.Close())
	assert.True(t, ch.closed)
}

func Test_AMQPPublisher_WrapsPublishErrors(t *testing.T) {
	// arrange
	ch := &channelSpy{err: errors.New("channel closed")}
	publisher, err := notification.NewAMQPPublisher(ch, "q")
	require.NoError(t, err)

	// act
	err = publisher.Send(context.Background(), "ada@example.org", "hello")

	// assert
	assert.ErrorIs(t, err, core.ErrNotificationFailed)
}

func Test_NewAMQPPublisher_RejectsMissingArguments(t *testing.T) {
	_, err := notification.NewAMQPPublisher(nil, "q")
	assert.ErrorIs(t, err, notification.ErrNilChannel)

	_, err = notification.NewAMQPPublisher(&channelSpy{}, "")
	assert.ErrorIs(t, err, notification.ErrEmptyQueueName)
}
