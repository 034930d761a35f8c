package stubs

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"circulation/internal/models"
)

// ChargeCall records one ProcessPayment invocation
type ChargeCall struct {
	PatronID    string
	Amount      decimal.Decimal
	Description string
}

// RefundCall records one RefundPayment invocation
type RefundCall struct {
	TransactionID string
	Amount        decimal.Decimal
}

// Gateway is a scriptable in-memory payment gateway for tests and local
// development. Unless scripted otherwise it accepts every operation and
// issues txn_<uuid> references.
type Gateway struct {
	mu      sync.Mutex
	Charges []ChargeCall
	Refunds []RefundCall

	// Optional scripts; when nil, the default accept behavior applies
	ChargeFunc func(patronID string, amount decimal.Decimal, description string) (models.PaymentResult, error)
	RefundFunc func(transactionID string, amount decimal.Decimal) (models.RefundResult, error)
}

// NewGateway creates a stub gateway with the default accept behavior
func NewGateway() *Gateway {
	return &Gateway{}
}

// ProcessPayment records the call and answers per the script
func (g *Gateway) ProcessPayment(ctx context.Context, patronID string, amount decimal.Decimal, description string) (models.PaymentResult, error) {
	g.mu.Lock()
	g.Charges = append(g.Charges, ChargeCall{PatronID: patronID, Amount: amount, Description: description})
	g.mu.Unlock()

	if g.ChargeFunc != nil {
		return g.ChargeFunc(patronID, amount, description)
	}
	return models.PaymentResult{
		Success:       true,
		TransactionID: "txn_" + uuid.NewString(),
		Message:       "Payment accepted",
	}, nil
}

// RefundPayment records the call and answers per the script
func (g *Gateway) RefundPayment(ctx context.Context, transactionID string, amount decimal.Decimal) (models.RefundResult, error) {
	g.mu.Lock()
	g.Refunds = append(g.Refunds, RefundCall{TransactionID: transactionID, Amount: amount})
	g.mu.Unlock()

	if g.RefundFunc != nil {
		return g.RefundFunc(transactionID, amount)
	}
	return models.RefundResult{
		Success: true,
		Message: "Refund accepted",
	}, nil
}
