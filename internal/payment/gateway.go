// Package payment wraps the external payment provider behind a small Gateway
// interface. Transport failures surface as errors; declines come back as
// unsuccessful results carrying the provider's message.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"circulation/internal/models"
)

// ErrInvalidStatusCode is returned when the provider answers with a status
// the client cannot interpret as an accepted or declined operation.
var ErrInvalidStatusCode = errors.New("invalid status code")

// Gateway is the payment collaborator used by the payment orchestrator
type Gateway interface {
	ProcessPayment(ctx context.Context, patronID string, amount decimal.Decimal, description string) (models.PaymentResult, error)
	RefundPayment(ctx context.Context, transactionID string, amount decimal.Decimal) (models.RefundResult, error)
}

// ProviderGateway talks to the payment provider's HTTP API
type ProviderGateway struct {
	conn *resty.Client
}

// NewProviderGateway creates a gateway client for the given provider base URL.
// The API key may be empty for providers that authenticate by network.
func NewProviderGateway(baseURL, apiKey string) *ProviderGateway {
	client := resty.New().
		SetTransport(&http.Transport{
			MaxIdleConns:    10,
			IdleConnTimeout: 30 * time.Second,
		}).
		SetTimeout(15 * time.Second).
		SetBaseURL(baseURL)

	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}

	return &ProviderGateway{conn: client}
}

type chargeRequest struct {
	PatronID       string `json:"patron_id"`
	Amount         string `json:"amount"`
	Description    string `json:"description"`
	IdempotencyKey string `json:"idempotency_key"`
}

type chargeResponse struct {
	Accepted      bool   `json:"accepted"`
	TransactionID string `json:"transaction_id"`
	Message       string `json:"message"`
}

type refundRequest struct {
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
}

type refundResponse struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message"`
}

// ProcessPayment submits a charge to the provider. Each call carries a fresh
// idempotency key; the caller never retries, so a key is never reused.
func (g *ProviderGateway) ProcessPayment(ctx context.Context, patronID string, amount decimal.Decimal, description string) (models.PaymentResult, error) {
	req := chargeRequest{
		PatronID:       patronID,
		Amount:         amount.String(),
		Description:    description,
		IdempotencyKey: uuid.NewString(),
	}

	resp, err := g.conn.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&chargeResponse{}).
		SetError(&chargeResponse{}).
		Post("/charges")
	if err != nil {
		return models.PaymentResult{}, fmt.Errorf("failed to execute http request: %w", err)
	}

	body, ok := pickResponse[chargeResponse](resp)
	if !ok {
		return models.PaymentResult{}, fmt.Errorf("%d: %w", resp.StatusCode(), ErrInvalidStatusCode)
	}

	return models.PaymentResult{
		Success:       body.Accepted,
		TransactionID: body.TransactionID,
		Message:       body.Message,
	}, nil
}

// RefundPayment submits a refund against a prior charge
func (g *ProviderGateway) RefundPayment(ctx context.Context, transactionID string, amount decimal.Decimal) (models.RefundResult, error) {
	req := refundRequest{
		TransactionID: transactionID,
		Amount:        amount.String(),
	}

	resp, err := g.conn.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&refundResponse{}).
		SetError(&refundResponse{}).
		Post("/refunds")
	if err != nil {
		return models.RefundResult{}, fmt.Errorf("failed to execute http request: %w", err)
	}

	body, ok := pickResponse[refundResponse](resp)
	if !ok {
		return models.RefundResult{}, fmt.Errorf("%d: %w", resp.StatusCode(), ErrInvalidStatusCode)
	}

	return models.RefundResult{
		Success: body.Accepted,
		Message: body.Message,
	}, nil
}

// pickResponse extracts the decoded body for accepted (2xx) and declined
// (422) answers; anything else is unusable.
func pickResponse[T any](resp *resty.Response) (*T, bool) {
	switch {
	case resp.IsSuccess():
		body, ok := resp.Result().(*T)
		return body, ok && body != nil
	case resp.StatusCode() == http.StatusUnprocessableEntity:
		body, ok := resp.Error().(*T)
		return body, ok && body != nil
	default:
		return nil, false
	}
}
