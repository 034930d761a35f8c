// Package circulation holds the borrow-eligibility and late-fee payment
// workflows. Both are linear guard pipelines over injected collaborators:
// every expected failure comes back as an (ok, message) result, never as an
// error, and each collaborator is called at most once per invocation.
package circulation

import (
	"regexp"
	"time"

	"go.uber.org/zap"

	"circulation/internal/fees"
	"circulation/internal/payment"
	"circulation/internal/storage"
)

const (
	// borrowQuota is the maximum number of simultaneous active loans per patron
	borrowQuota = 5

	// loanTerm is how long a borrowed book may be kept
	loanTerm = 14 * 24 * time.Hour
)

var (
	patronIDPattern      = regexp.MustCompile(`^\d{6}$`)
	transactionIDPattern = regexp.MustCompile(`^txn_\w+$`)
)

// Service orchestrates borrowing and late-fee payments over the store, the
// fee calculator and the payment gateway
type Service struct {
	db         storage.Store
	feeCalc    fees.Calculator
	newGateway func() payment.Gateway
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates the circulation service. newGateway builds the payment
// gateway used when a call does not bring its own; it is invoked at most once
// per call and the result is never cached.
func NewService(db storage.Store, feeCalc fees.Calculator, newGateway func() payment.Gateway, logger *zap.Logger) *Service {
	if newGateway == nil {
		newGateway = func() payment.Gateway { return payment.NewProviderGateway("", "") }
	}
	return &Service{
		db:         db,
		feeCalc:    feeCalc,
		newGateway: newGateway,
		logger:     logger,
		now:        time.Now,
	}
}

// validPatronID reports whether id is exactly six ASCII digits
func validPatronID(id string) bool {
	return patronIDPattern.MatchString(id)
}

// validTransactionID reports whether id looks like a gateway transaction
// reference (txn_ prefix plus a word token)
func validTransactionID(id string) bool {
	return transactionIDPattern.MatchString(id)
}
