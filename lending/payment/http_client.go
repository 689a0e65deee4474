package payment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
)

const (
	// DefaultTimeout bounds every gateway call.
	DefaultTimeout = 10 * time.Second

	debitPath  = "/debit"
	creditPath = "/credit"

	idempotencyKeyHeader = "Idempotency-Key"
)

var (
	ErrEmptyBaseURL      = errors.New("payment gateway base url must not be empty")
	ErrInvalidTimeout    = errors.New("payment gateway timeout must be positive")
	ErrMissingSettlement = errors.New("payment gateway response carries no settlement id")
)

type settlementPayload struct {
	CardNumber string `json:"cardNumber"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
}

type settlementResponse struct {
	ID string `json:"id"`
}

// HTTPClient is a Gateway speaking JSON over HTTP.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// HTTPClientOption configures an HTTPClient.
type HTTPClientOption func(*HTTPClient) error

// WithTimeout sets the per-call timeout. A timed out call counts as unreachable.
func WithTimeout(timeout time.Duration) HTTPClientOption {
	return func(c *HTTPClient) error {
		if timeout <= 0 {
			return ErrInvalidTimeout
		}

		c.timeout = timeout

		return nil
	}
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(client *http.Client) HTTPClientOption {
	return func(c *HTTPClient) error {
		c.client = client
		return nil
	}
}

func NewHTTPClient(baseURL string, options ...HTTPClientOption) (*HTTPClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrEmptyBaseURL
	}

	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		timeout: DefaultTimeout,
	}

	for _, option := range options {
		if err := option(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *HTTPClient) Debit(ctx context.Context, req SettlementRequest) (string, error) {
	return c.settle(ctx, debitPath, req)
}

func (c *HTTPClient) Credit(ctx context.Context, req SettlementRequest) (string, error) {
	return c.settle(ctx, creditPath, req)
}

func (c *HTTPClient) settle(ctx context.Context, path string, req SettlementRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := jsoniter.ConfigFastest.Marshal(settlementPayload{
		CardNumber: req.CardNumber,
		Amount:     req.Amount.String(),
		Currency:   req.Currency,
	})
	if err != nil {
		return "", errors.Join(core.ErrPaymentGatewayUnreachable, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", errors.Join(core.ErrPaymentGatewayUnreachable, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if req.IdempotencyKey != "" {
		httpReq.Header.Set(idempotencyKeyHeader, req.IdempotencyKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", errors.Join(core.ErrPaymentGatewayUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Join(core.ErrPaymentGatewayUnreachable, err)
	}

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
		decoded := settlementResponse{}
		if err = jsoniter.ConfigFastest.Unmarshal(respBody, &decoded); err != nil {
			return "", errors.Join(core.ErrPaymentGatewayUnreachable, err)
		}

		if decoded.ID == "" {
			return "", errors.Join(core.ErrPaymentGatewayUnreachable, ErrMissingSettlement)
		}

		return decoded.ID, nil

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return "", errors.Join(core.ErrPaymentDeclined, statusError(resp.StatusCode, respBody))

	default:
		return "", errors.Join(core.ErrPaymentGatewayUnreachable, statusError(resp.StatusCode, respBody))
	}
}

func statusError(status int, body []byte) error {
	return fmt.Errorf("gateway answered %d: %s", status, strings.TrimSpace(string(body)))
}
