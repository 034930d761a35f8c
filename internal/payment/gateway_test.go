package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderGateway_ProcessPaymentAccepted(t *testing.T) {
	var received chargeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/charges", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chargeResponse{
			Accepted:      true,
			TransactionID: "txn_abc123",
			Message:       "Charge captured",
		})
	}))
	defer server.Close()

	gw := NewProviderGateway(server.URL, "test-key")
	result, err := gw.ProcessPayment(context.Background(), "121212", decimal.NewFromFloat(6.50), "Late fees for 'The tests'")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "txn_abc123", result.TransactionID)
	assert.Equal(t, "Charge captured", result.Message)

	assert.Equal(t, "121212", received.PatronID)
	assert.Equal(t, "6.5", received.Amount)
	assert.Equal(t, "Late fees for 'The tests'", received.Description)
	assert.NotEmpty(t, received.IdempotencyKey)
}

func TestProviderGateway_ProcessPaymentDeclined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(chargeResponse{
			Accepted: false,
			Message:  "Card declined",
		})
	}))
	defer server.Close()

	gw := NewProviderGateway(server.URL, "")
	result, err := gw.ProcessPayment(context.Background(), "778899", decimal.NewFromInt(5), "Late fees for 'Can't charge me'")
	require.NoError(t, err, "a decline is a result, not a fault")

	assert.False(t, result.Success)
	assert.Empty(t, result.TransactionID)
	assert.Equal(t, "Card declined", result.Message)
}

func TestProviderGateway_ProcessPaymentUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	gw := NewProviderGateway(server.URL, "")
	_, err := gw.ProcessPayment(context.Background(), "121212", decimal.NewFromInt(5), "Late fees for 'Broken'")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidStatusCode)
}

func TestProviderGateway_ProcessPaymentTransportFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing is listening anymore

	gw := NewProviderGateway(server.URL, "")
	_, err := gw.ProcessPayment(context.Background(), "121212", decimal.NewFromInt(5), "Late fees for 'Offline'")
	require.Error(t, err)
}

func TestProviderGateway_RefundAccepted(t *testing.T) {
	var received refundRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/refunds", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(refundResponse{
			Accepted: true,
			Message:  "Reversal accepted",
		})
	}))
	defer server.Close()

	gw := NewProviderGateway(server.URL, "")
	result, err := gw.RefundPayment(context.Background(), "txn_1", decimal.NewFromFloat(9.75))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "Reversal accepted", result.Message)
	assert.Equal(t, "txn_1", received.TransactionID)
	assert.Equal(t, "9.75", received.Amount)
}

func TestProviderGateway_RefundDeclined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(refundResponse{
			Accepted: false,
			Message:  "Card expired",
		})
	}))
	defer server.Close()

	gw := NewProviderGateway(server.URL, "")
	result, err := gw.RefundPayment(context.Background(), "txn_110", decimal.NewFromInt(7))
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "Card expired", result.Message)
}
