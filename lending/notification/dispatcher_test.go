package notification_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/book-lending-settlement/lending/notification"
	"github.com/AntonStoeckl/book-lending-settlement/lending/shell"
	"github.com/AntonStoeckl/book-lending-settlement/testutil/testdoubles"
)

var errMailDown = errors.New("mail server down")

func waitForDelivery(t *testing.T, spy *testdoubles.NotificationSenderSpy) testdoubles.SentMessage {
	t.Helper()

	select {
	case msg := <-spy.Delivered:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("message was not delivered")
		return testdoubles.SentMessage{}
	}
}

func Test_Dispatcher_DeliversQueuedMessage(t *testing.T) {
	// arrange
	spy := testdoubles.NewNotificationSenderSpy()
	metrics := testdoubles.NewMetricsCollectorSpy()
	dispatcher, err := notification.NewDispatcher(spy, notification.WithMetrics(metrics))
	require.NoError(t, err)
	dispatcher.Start()

	// act
	accepted := dispatcher.Notify("ada@example.org", notification.BorrowedText("Dune"))

	// assert
	require.True(t, accepted)
	msg := waitForDelivery(t, spy)
	assert.Equal(t, "ada@example.org", msg.Email)
	assert.Equal(t, `Book "Dune" borrowed successfully.`, msg.Text)

	require.NoError(t, dispatcher.Stop(context.Background()))
	assert.Equal(t, 1, metrics.CounterCalls(shell.NotificationsMetric, map[string]string{"outcome": "sent"}))
}

func Test_Dispatcher_RetriesFailedSends(t *testing.T) {
	// arrange
	spy := testdoubles.NewNotificationSenderSpy()
	spy.FailTimes = 2
	spy.Err = errMailDown

	dispatcher, err := notification.NewDispatcher(spy, notification.WithBaseDelay(time.Millisecond))
	require.NoError(t, err)
	dispatcher.Start()

	// act
	dispatcher.Notify("ada@example.org", notification.ReturnedText("Dune"))

	// assert
	msg := waitForDelivery(t, spy)
	assert.Equal(t, `Book "Dune" returned successfully.`, msg.Text)
	require.NoError(t, dispatcher.Stop(context.Background()))
	assert.Equal(t, 3, spy.Calls())
}

func Test_Dispatcher_DropsMessageAfterMaxAttempts(t *testing.T) {
	// arrange
	spy := testdoubles.NewNotificationSenderSpy()
	spy.FailTimes = 100
	spy.Err = errMailDown
	logger, logSpy := testdoubles.NewLogger()
	metrics := testdoubles.NewMetricsCollectorSpy()

	dispatcher, err := notification.NewDispatcher(
		spy,
		notification.WithMaxAttempts(2),
		notification.WithBaseDelay(time.Millisecond),
		notification.WithLogger(logger),
		notification.WithMetrics(metrics),
	)
	require.NoError(t, err)
	dispatcher.Start()

	// act
	dispatcher.Notify("ada@example.org", "hello")
	require.NoError(t, dispatcher.Stop(context.Background()))

	// assert
	assert.Equal(t, 2, spy.Calls())
	assert.Empty(t, spy.Sent())
	assert.True(t, logSpy.HasLog(slog.LevelWarn, "notification dropped after retries"))
	assert.Equal(t, 1, metrics.CounterCalls(shell.NotificationsMetric, map[string]string{"outcome": "dropped"}))
}

func Test_Dispatcher_NotifyNeverBlocksWhenQueueIsFull(t *testing.T) {
	// arrange
	spy := testdoubles.NewNotificationSenderSpy()
	logger, logSpy := testdoubles.NewLogger()
	dispatcher, err := notification.NewDispatcher(spy, notification.WithQueueSize(1), notification.WithLogger(logger))
	require.NoError(t, err)

	// act: workers are not started, so the second message finds the queue full
	first := dispatcher.Notify("a@example.org", "one")
	second := dispatcher.Notify("b@example.org", "two")

	// assert
	assert.True(t, first)
	assert.False(t, second)
	assert.True(t, logSpy.HasLog(slog.LevelWarn, "notification queue full, message dropped"))
}

func Test_Dispatcher_StopDrainsQueue(t *testing.T) {
	// arrange
	spy := testdoubles.NewNotificationSenderSpy()
	dispatcher, err := notification.NewDispatcher(spy, notification.WithWorkers(2))
	require.NoError(t, err)

	for range 10 {
		dispatcher.Notify("ada@example.org", "hello")
	}

	// act
	dispatcher.Start()
	err = dispatcher.Stop(context.Background())

	// assert
	require.NoError(t, err)
	assert.Len(t, spy.Sent(), 10)
	assert.False(t, dispatcher.Notify("ada@example.org", "too late"))
	assert.ErrorIs(t, dispatcher.Stop(context.Background()), notification.ErrDispatcherStopped)
}

func Test_Dispatcher_ConcurrentNotify(t *testing.T) {
	// arrange
	spy := testdoubles.NewNotificationSenderSpy()
	dispatcher, err := notification.NewDispatcher(spy, notification.WithQueueSize(100))
	require.NoError(t, err)
	dispatcher.Start()

	// act
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dispatcher.Notify("ada@example.org", "hello")
		}()
	}
	wg.Wait()
	require.NoError(t, dispatcher.Stop(context.Background()))

	// assert
	assert.Len(t, spy.Sent(), 50)
}

func Test_NewDispatcher_RejectsInvalidOptions(t *testing.T) {
	_, err := notification.NewDispatcher(nil)
	assert.ErrorIs(t, err, notification.ErrNilSender)

	spy := testdoubles.NewNotificationSenderSpy()

	_, err = notification.NewDispatcher(spy, notification.WithQueueSize(0))
	assert.ErrorIs(t, err, notification.ErrInvalidQueueSize)

	_, err = notification.NewDispatcher(spy, notification.WithWorkers(0))
	assert.ErrorIs(t, err, notification.ErrInvalidWorkerCount)

	_, err = notification.NewDispatcher(spy, notification.WithMaxAttempts(0))
	assert.ErrorIs(t, err, notification.ErrInvalidMaxAttempts)
}
