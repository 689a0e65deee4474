package testdoubles

import (
	"context"
	"sync"
)

// SentMessage is one message seen by a NotificationSenderSpy.
type SentMessage struct {
	Email string
	Text  string
}

// NotificationSenderSpy records Send calls. The first FailTimes calls fail with Err.
type NotificationSenderSpy struct {
	mu        sync.Mutex
	calls     int
	sent      []SentMessage
	FailTimes int
	Err       error
	Delivered chan SentMessage
}

func NewNotificationSenderSpy() *NotificationSenderSpy {
	return &NotificationSenderSpy{Delivered: make(chan SentMessage, 64)}
}

func (s *NotificationSenderSpy) Send(_ context.Context, email, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.calls <= s.FailTimes {
		return s.Err
	}

	msg := SentMessage{Email: email, Text: text}
	s.sent = append(s.sent, msg)

	select {
	case s.Delivered <- msg:
	default:
	}

	return nil
}

func (s *NotificationSenderSpy) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls
}

func (s *NotificationSenderSpy) Sent() []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SentMessage(nil), s.sent...)
}
