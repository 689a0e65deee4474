package payment_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
	"github.com/AntonStoeckl/book-lending-settlement/lending/payment"
)

func newRequest() payment.SettlementRequest {
	return payment.SettlementRequest{
		CardNumber:     "4111111111111111",
		Amount:         decimal.RequireFromString("19"),
		Currency:       "EUR",
		IdempotencyKey: "key-1",
	}
}

func Test_HTTPClient_Debit_SendsRequestAndReturnsSettlementID(t *testing.T) {
	// arrange
	var gotPath, gotKey string
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("Idempotency-Key")
		raw, _ := io.ReadAll(r.Body)
		_ = jsoniter.Unmarshal(raw, &gotBody)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"stl-42"}`))
	}))
	defer server.Close()

	client, err := payment.NewHTTPClient(server.URL)
	require.NoError(t, err)

	// act
	id, err := client.Debit(context.Background(), newRequest())

	// assert
	require.NoError(t, err)
	assert.Equal(t, "stl-42", id)
	assert.Equal(t, "/debit", gotPath)
	assert.Equal(t, "key-1", gotKey)
	assert.Equal(t, "19", gotBody["amount"])
	assert.Equal(t, "EUR", gotBody["currency"])
	assert.Equal(t, "4111111111111111", gotBody["cardNumber"])
}

func Test_HTTPClient_Debit_SendsAmountWithoutRounding(t *testing.T) {
	// arrange
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = jsoniter.Unmarshal(raw, &gotBody)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"stl-43"}`))
	}))
	defer server.Close()

	client, err := payment.NewHTTPClient(server.URL)
	require.NoError(t, err)

	req := newRequest()
	req.Amount = decimal.RequireFromString("19.505")

	// act
	_, err = client.Debit(context.Background(), req)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "19.505", gotBody["amount"])
}

func Test_HTTPClient_Credit_UsesCreditPath(t *testing.T) {
	// arrange
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"ref-1"}`))
	}))
	defer server.Close()

	client, err := payment.NewHTTPClient(server.URL + "/")
	require.NoError(t, err)

	// act
	id, err := client.Credit(context.Background(), newRequest())

	// assert
	require.NoError(t, err)
	assert.Equal(t, "ref-1", id)
	assert.Equal(t, "/credit", gotPath)
}

func Test_HTTPClient_MapsStatusCodes(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "payment required is a decline", status: http.StatusPaymentRequired, wantErr: core.ErrPaymentDeclined},
		{name: "bad request is a decline", status: http.StatusBadRequest, wantErr: core.ErrPaymentDeclined},
		{name: "server error is unreachable", status: http.StatusInternalServerError, wantErr: core.ErrPaymentGatewayUnreachable},
		{name: "bad gateway is unreachable", status: http.StatusBadGateway, wantErr: core.ErrPaymentGatewayUnreachable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			client, err := payment.NewHTTPClient(server.URL)
			require.NoError(t, err)

			// act
			_, err = client.Debit(context.Background(), newRequest())

			// assert
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func Test_HTTPClient_TimeoutIsUnreachable(t *testing.T) {
	// arrange
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client, err := payment.NewHTTPClient(server.URL, payment.WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	// act
	_, err = client.Debit(context.Background(), newRequest())

	// assert
	assert.ErrorIs(t, err, core.ErrPaymentGatewayUnreachable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func Test_HTTPClient_ClosedServerIsUnreachable(t *testing.T) {
	// arrange
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := payment.NewHTTPClient(url)
	require.NoError(t, err)

	// act
	_, err = client.Debit(context.Background(), newRequest())

	// assert
	assert.ErrorIs(t, err, core.ErrPaymentGatewayUnreachable)
}

func Test_NewHTTPClient_RejectsInvalidConfig(t *testing.T) {
	_, err := payment.NewHTTPClient(" ")
	assert.ErrorIs(t, err, payment.ErrEmptyBaseURL)

	_, err = payment.NewHTTPClient("http://gateway", payment.WithTimeout(0))
	assert.ErrorIs(t, err, payment.ErrInvalidTimeout)
}
