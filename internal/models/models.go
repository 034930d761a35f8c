package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book represents a title in the library catalog
type Book struct {
	ID              int64
	Title           string
	Author          string
	ISBN            string
	TotalCopies     int
	AvailableCopies int
}

// BorrowRecord represents a single loan of a book to a patron.
// A nil ReturnedAt marks the loan as active.
type BorrowRecord struct {
	PatronID   string
	BookID     int64
	BorrowedAt time.Time
	DueAt      time.Time
	ReturnedAt *time.Time
}

// Active reports whether the loan is still outstanding
func (r BorrowRecord) Active() bool {
	return r.ReturnedAt == nil
}

// FeeAssessment is the result of pricing a patron's late fee for one book
type FeeAssessment struct {
	FeeAmount   decimal.Decimal
	DaysOverdue int
	Status      string
}

// PaymentResult is the gateway's answer to a charge attempt
type PaymentResult struct {
	Success       bool
	TransactionID string
	Message       string
}

// RefundResult is the gateway's answer to a refund attempt
type RefundResult struct {
	Success bool
	Message string
}
