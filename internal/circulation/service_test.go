package circulation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"circulation/internal/fees"
	"circulation/internal/models"
	"circulation/internal/payment"
	"circulation/internal/storage"
	"circulation/internal/storage/stubs"
)

// scriptedStore wraps the in-memory store, counts every call and lets single
// operations be overridden to fail or return canned data
type scriptedStore struct {
	inner storage.Store
	calls map[string]int

	getBookByIDFunc            func(ctx context.Context, bookID int64) (*models.Book, error)
	getPatronBorrowCountFunc   func(ctx context.Context, patronID string) (int, error)
	insertBorrowRecordFunc     func(ctx context.Context, patronID string, bookID int64, borrowedAt, dueAt time.Time) error
	updateBookAvailabilityFunc func(ctx context.Context, bookID int64, delta int) error
	getActiveBorrowRecordFunc  func(ctx context.Context, patronID string, bookID int64) (*models.BorrowRecord, error)
}

func newScriptedStore() *scriptedStore {
	return &scriptedStore{
		inner: stubs.NewMockDB(),
		calls: make(map[string]int),
	}
}

func (s *scriptedStore) totalCalls() int {
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

func (s *scriptedStore) InsertBook(ctx context.Context, title, author, isbn string, totalCopies, availableCopies int) (int64, error) {
	s.calls["InsertBook"]++
	return s.inner.InsertBook(ctx, title, author, isbn, totalCopies, availableCopies)
}

func (s *scriptedStore) GetBookByID(ctx context.Context, bookID int64) (*models.Book, error) {
	s.calls["GetBookByID"]++
	if s.getBookByIDFunc != nil {
		return s.getBookByIDFunc(ctx, bookID)
	}
	return s.inner.GetBookByID(ctx, bookID)
}

func (s *scriptedStore) GetBookByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	s.calls["GetBookByISBN"]++
	return s.inner.GetBookByISBN(ctx, isbn)
}

func (s *scriptedStore) UpdateBookAvailability(ctx context.Context, bookID int64, delta int) error {
	s.calls["UpdateBookAvailability"]++
	if s.updateBookAvailabilityFunc != nil {
		return s.updateBookAvailabilityFunc(ctx, bookID, delta)
	}
	return s.inner.UpdateBookAvailability(ctx, bookID, delta)
}

func (s *scriptedStore) InsertBorrowRecord(ctx context.Context, patronID string, bookID int64, borrowedAt, dueAt time.Time) error {
	s.calls["InsertBorrowRecord"]++
	if s.insertBorrowRecordFunc != nil {
		return s.insertBorrowRecordFunc(ctx, patronID, bookID, borrowedAt, dueAt)
	}
	return s.inner.InsertBorrowRecord(ctx, patronID, bookID, borrowedAt, dueAt)
}

func (s *scriptedStore) GetPatronBorrowCount(ctx context.Context, patronID string) (int, error) {
	s.calls["GetPatronBorrowCount"]++
	if s.getPatronBorrowCountFunc != nil {
		return s.getPatronBorrowCountFunc(ctx, patronID)
	}
	return s.inner.GetPatronBorrowCount(ctx, patronID)
}

func (s *scriptedStore) GetActiveBorrowRecord(ctx context.Context, patronID string, bookID int64) (*models.BorrowRecord, error) {
	s.calls["GetActiveBorrowRecord"]++
	if s.getActiveBorrowRecordFunc != nil {
		return s.getActiveBorrowRecordFunc(ctx, patronID, bookID)
	}
	return s.inner.GetActiveBorrowRecord(ctx, patronID, bookID)
}

func (s *scriptedStore) MarkBorrowRecordReturned(ctx context.Context, patronID string, bookID int64, returnedAt time.Time) error {
	s.calls["MarkBorrowRecordReturned"]++
	return s.inner.MarkBorrowRecordReturned(ctx, patronID, bookID, returnedAt)
}

func (s *scriptedStore) Initialize(ctx context.Context) error { return s.inner.Initialize(ctx) }
func (s *scriptedStore) Close() error                         { return s.inner.Close() }

// scriptedFeeCalc answers with a canned assessment and counts calls
type scriptedFeeCalc struct {
	calls      int
	lastPatron string
	lastBook   int64
	assessment models.FeeAssessment
	err        error
}

func (c *scriptedFeeCalc) CalculateLateFeeForBook(ctx context.Context, patronID string, bookID int64) (models.FeeAssessment, error) {
	c.calls++
	c.lastPatron = patronID
	c.lastBook = bookID
	return c.assessment, c.err
}

func feeOf(amount float64, daysOverdue int) models.FeeAssessment {
	return models.FeeAssessment{
		FeeAmount:   decimal.NewFromFloat(amount),
		DaysOverdue: daysOverdue,
		Status:      fees.StatusOK,
	}
}

func newTestService(db storage.Store, feeCalc fees.Calculator, newGateway func() payment.Gateway) *Service {
	return NewService(db, feeCalc, newGateway, zap.NewNop())
}
