package fees

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"circulation/internal/storage/stubs"
)

func setupCalculator(t *testing.T, now time.Time) (*StoreCalculator, *stubs.MockDB) {
	t.Helper()
	db := stubs.NewMockDB()
	calc := NewStoreCalculator(db, zap.NewNop())
	calc.now = func() time.Time { return now }
	return calc, db
}

func TestCalculateLateFee_NoActiveBorrow(t *testing.T) {
	calc, _ := setupCalculator(t, time.Now())

	assessment, err := calc.CalculateLateFeeForBook(context.Background(), "123456", 42)
	require.NoError(t, err)
	assert.Equal(t, StatusNoActiveBorrow, assessment.Status)
	assert.True(t, assessment.FeeAmount.IsZero())
	assert.Zero(t, assessment.DaysOverdue)
}

func TestCalculateLateFee_NotOverdue(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	calc, db := setupCalculator(t, now)
	ctx := context.Background()

	id, err := db.InsertBook(ctx, "On Time", "A.", "9780000000001", 1, 0)
	require.NoError(t, err)
	borrowedAt := now.Add(-5 * 24 * time.Hour)
	require.NoError(t, db.InsertBorrowRecord(ctx, "123456", id, borrowedAt, borrowedAt.Add(14*24*time.Hour)))

	assessment, err := calc.CalculateLateFeeForBook(ctx, "123456", id)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, assessment.Status)
	assert.Zero(t, assessment.DaysOverdue)
	assert.True(t, assessment.FeeAmount.IsZero())
}

func TestCalculateLateFee_TieredRates(t *testing.T) {
	tests := []struct {
		name        string
		daysOverdue int
		want        string
	}{
		{"four days at base rate", 4, "2"},
		{"seven days at base rate", 7, "3.5"},
		{"ten days switches to elevated rate", 10, "6.5"},
		{"thirty days hits the cap", 30, "15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
			calc, db := setupCalculator(t, now)
			ctx := context.Background()

			id, err := db.InsertBook(ctx, "Overdue", "B.", "9780000000002", 1, 0)
			require.NoError(t, err)
			dueAt := now.Add(-time.Duration(tt.daysOverdue) * 24 * time.Hour)
			require.NoError(t, db.InsertBorrowRecord(ctx, "123456", id, dueAt.Add(-14*24*time.Hour), dueAt))

			assessment, err := calc.CalculateLateFeeForBook(ctx, "123456", id)
			require.NoError(t, err)
			assert.Equal(t, StatusOK, assessment.Status)
			assert.Equal(t, tt.daysOverdue, assessment.DaysOverdue)
			assert.True(t, assessment.FeeAmount.Equal(decimal.RequireFromString(tt.want)),
				"want %s, got %s", tt.want, assessment.FeeAmount)
		})
	}
}

func TestCalculateLateFee_ReturnedBookOwesNothing(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	calc, db := setupCalculator(t, now)
	ctx := context.Background()

	id, err := db.InsertBook(ctx, "Given Back", "C.", "9780000000003", 1, 1)
	require.NoError(t, err)
	dueAt := now.Add(-10 * 24 * time.Hour)
	require.NoError(t, db.InsertBorrowRecord(ctx, "123456", id, dueAt.Add(-14*24*time.Hour), dueAt))
	require.NoError(t, db.MarkBorrowRecordReturned(ctx, "123456", id, now))

	assessment, err := calc.CalculateLateFeeForBook(ctx, "123456", id)
	require.NoError(t, err)
	assert.Equal(t, StatusNoActiveBorrow, assessment.Status)
	assert.True(t, assessment.FeeAmount.IsZero())
}

func TestFeeNeverExceedsMaximum(t *testing.T) {
	for days := 0; days <= 60; days++ {
		fee := feeForDays(days)
		assert.False(t, fee.GreaterThan(MaxLateFee), "fee for %d days exceeds the cap: %s", days, fee)
		assert.False(t, fee.IsNegative())
	}
}
