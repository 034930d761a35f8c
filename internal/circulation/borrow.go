package circulation

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// BorrowBookByPatron lends the book to the patron. Each guard below either
// aborts with a message or falls through to the next; nothing is retried.
// The borrow record is inserted before availability is decremented, so a
// failed availability update leaves a record with a stale stock count; that
// is reported, not compensated.
func (s *Service) BorrowBookByPatron(ctx context.Context, patronID string, bookID int64) (bool, string) {
	if !validPatronID(patronID) {
		return false, "Invalid patron ID. Must be exactly 6 digits."
	}

	book, err := s.db.GetBookByID(ctx, bookID)
	if err != nil {
		s.logger.Error("Failed to look up book", zap.Int64("book_id", bookID), zap.Error(err))
		return false, "Book not found."
	}
	if book == nil {
		return false, "Book not found."
	}

	if book.AvailableCopies <= 0 {
		return false, "This book is currently not available."
	}

	count, err := s.db.GetPatronBorrowCount(ctx, patronID)
	if err != nil {
		s.logger.Error("Failed to count active loans", zap.String("patron_id", patronID), zap.Error(err))
		return false, "Database error occurred while checking borrow limit."
	}
	if count >= borrowQuota {
		return false, fmt.Sprintf("You have reached the maximum borrowing limit of %d books.", borrowQuota)
	}

	borrowedAt := s.now()
	dueAt := borrowedAt.Add(loanTerm)
	if err := s.db.InsertBorrowRecord(ctx, patronID, bookID, borrowedAt, dueAt); err != nil {
		s.logger.Error("Failed to create borrow record",
			zap.String("patron_id", patronID),
			zap.Int64("book_id", bookID),
			zap.Error(err),
		)
		return false, "Database error occurred while creating borrow record."
	}

	if err := s.db.UpdateBookAvailability(ctx, bookID, -1); err != nil {
		// The record above already exists; availability is now stale.
		s.logger.Error("Failed to update book availability after borrow",
			zap.String("patron_id", patronID),
			zap.Int64("book_id", bookID),
			zap.Error(err),
		)
		return false, "Database error occurred while updating book availability."
	}

	s.logger.Info("Book borrowed",
		zap.String("patron_id", patronID),
		zap.Int64("book_id", bookID),
		zap.String("title", book.Title),
		zap.Time("due_at", dueAt),
	)
	return true, fmt.Sprintf("Successfully borrowed '%s'. Due date: %s.", book.Title, dueAt.Format("2006-01-02"))
}

// ReturnBookByPatron closes the patron's active loan for the book and puts
// the copy back in stock
func (s *Service) ReturnBookByPatron(ctx context.Context, patronID string, bookID int64) (bool, string) {
	if !validPatronID(patronID) {
		return false, "Invalid patron ID. Must be exactly 6 digits."
	}

	book, err := s.db.GetBookByID(ctx, bookID)
	if err != nil {
		s.logger.Error("Failed to look up book", zap.Int64("book_id", bookID), zap.Error(err))
		return false, "Book not found."
	}
	if book == nil {
		return false, "Book not found."
	}

	record, err := s.db.GetActiveBorrowRecord(ctx, patronID, bookID)
	if err != nil {
		s.logger.Error("Failed to look up borrow record",
			zap.String("patron_id", patronID),
			zap.Int64("book_id", bookID),
			zap.Error(err),
		)
		return false, "Database error occurred while looking up borrow record."
	}
	if record == nil {
		return false, "No active borrow record found for this book."
	}

	if err := s.db.MarkBorrowRecordReturned(ctx, patronID, bookID, s.now()); err != nil {
		s.logger.Error("Failed to mark borrow record returned",
			zap.String("patron_id", patronID),
			zap.Int64("book_id", bookID),
			zap.Error(err),
		)
		return false, "Database error occurred while updating borrow record."
	}

	if err := s.db.UpdateBookAvailability(ctx, bookID, 1); err != nil {
		s.logger.Error("Failed to update book availability after return",
			zap.String("patron_id", patronID),
			zap.Int64("book_id", bookID),
			zap.Error(err),
		)
		return false, "Database error occurred while updating book availability."
	}

	s.logger.Info("Book returned",
		zap.String("patron_id", patronID),
		zap.Int64("book_id", bookID),
		zap.String("title", book.Title),
	)
	return true, fmt.Sprintf("Successfully returned '%s'.", book.Title)
}
