package fees

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"circulation/internal/models"
	"circulation/internal/storage"
)

// MaxLateFee is the system-wide cap on a single book's late fee, in currency units.
// Refunds above this amount are rejected by the payment orchestrator.
var MaxLateFee = decimal.NewFromInt(15)

var (
	dailyRate        = decimal.NewFromFloat(0.50)
	elevatedRate     = decimal.NewFromInt(1)
	elevatedRateFrom = 7 // overdue days charged at dailyRate before switching
)

// Assessment statuses
const (
	StatusOK             = "ok"
	StatusNoActiveBorrow = "no_active_borrow"
)

// Calculator prices the late fee a patron owes for a single book
type Calculator interface {
	CalculateLateFeeForBook(ctx context.Context, patronID string, bookID int64) (models.FeeAssessment, error)
}

// StoreCalculator computes late fees from the borrow records in the store
type StoreCalculator struct {
	db     storage.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewStoreCalculator creates a calculator backed by the given store
func NewStoreCalculator(db storage.Store, logger *zap.Logger) *StoreCalculator {
	return &StoreCalculator{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// CalculateLateFeeForBook prices the patron's overdue fee for the book.
// A patron with no active loan for the book owes nothing.
func (c *StoreCalculator) CalculateLateFeeForBook(ctx context.Context, patronID string, bookID int64) (models.FeeAssessment, error) {
	record, err := c.db.GetActiveBorrowRecord(ctx, patronID, bookID)
	if err != nil {
		return models.FeeAssessment{}, fmt.Errorf("failed to load borrow record: %w", err)
	}
	if record == nil {
		return models.FeeAssessment{
			FeeAmount: decimal.Zero,
			Status:    StatusNoActiveBorrow,
		}, nil
	}

	daysOverdue := daysBetween(record.DueAt, c.now())
	fee := feeForDays(daysOverdue)

	c.logger.Debug("Late fee assessed",
		zap.String("patron_id", patronID),
		zap.Int64("book_id", bookID),
		zap.Int("days_overdue", daysOverdue),
		zap.String("fee_amount", fee.String()),
	)

	return models.FeeAssessment{
		FeeAmount:   fee,
		DaysOverdue: daysOverdue,
		Status:      StatusOK,
	}, nil
}

// daysBetween returns the number of whole days from due to now, floored at zero
func daysBetween(due, now time.Time) int {
	if !now.After(due) {
		return 0
	}
	return int(now.Sub(due).Hours() / 24)
}

// feeForDays applies the tiered daily rate and the system-wide cap
func feeForDays(daysOverdue int) decimal.Decimal {
	if daysOverdue <= 0 {
		return decimal.Zero
	}

	baseDays := daysOverdue
	if baseDays > elevatedRateFrom {
		baseDays = elevatedRateFrom
	}
	fee := dailyRate.Mul(decimal.NewFromInt(int64(baseDays)))
	if daysOverdue > elevatedRateFrom {
		fee = fee.Add(elevatedRate.Mul(decimal.NewFromInt(int64(daysOverdue - elevatedRateFrom))))
	}

	if fee.GreaterThan(MaxLateFee) {
		return MaxLateFee
	}
	return fee
}
