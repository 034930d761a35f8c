package storage

import (
	"context"
	"time"

	"circulation/internal/models"
)

// Store defines the interface for catalog and loan persistence
type Store interface {
	// Book operations
	InsertBook(ctx context.Context, title, author, isbn string, totalCopies, availableCopies int) (int64, error)
	GetBookByID(ctx context.Context, bookID int64) (*models.Book, error)
	GetBookByISBN(ctx context.Context, isbn string) (*models.Book, error)

	// UpdateBookAvailability adjusts available_copies by delta (negative to
	// take a copy, positive to return one)
	UpdateBookAvailability(ctx context.Context, bookID int64, delta int) error

	// Borrow record operations
	InsertBorrowRecord(ctx context.Context, patronID string, bookID int64, borrowedAt, dueAt time.Time) error
	GetPatronBorrowCount(ctx context.Context, patronID string) (int, error)

	// GetActiveBorrowRecord returns the patron's unreturned loan for the book,
	// or nil if there is none
	GetActiveBorrowRecord(ctx context.Context, patronID string, bookID int64) (*models.BorrowRecord, error)
	MarkBorrowRecordReturned(ctx context.Context, patronID string, bookID int64, returnedAt time.Time) error

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}
