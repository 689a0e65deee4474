package notification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
)

const (
	sendEmailPath      = "/send-email"
	defaultHTTPTimeout = 5 * time.Second
)

var ErrEmptyBaseURL = errors.New("notification service base url must not be empty")

type sendEmailPayload struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

// HTTPSender posts messages to the email service.
type HTTPSender struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSender(baseURL string, client *http.Client) (*HTTPSender, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrEmptyBaseURL
	}

	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}

	return &HTTPSender{baseURL: strings.TrimRight(baseURL, "/"), client: client}, nil
}

func (s *HTTPSender) Send(ctx context.Context, email, text string) error {
	body, err := jsoniter.ConfigFastest.Marshal(sendEmailPayload{Email: email, Message: text})
	if err != nil {
		return errors.Join(core.ErrNotificationFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+sendEmailPath, bytes.NewReader(body))
	if err != nil {
		return errors.Join(core.ErrNotificationFailed, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Join(core.ErrNotificationFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Join(core.ErrNotificationFailed, fmt.Errorf("email service answered %d", resp.StatusCode))
	}

	return nil
}
