package stubs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"circulation/internal/models"
)

// MockDB is an in-memory implementation of the Store interface for testing
type MockDB struct {
	mu      sync.RWMutex
	nextID  int64
	books   map[int64]models.Book
	byISBN  map[string]int64
	records []models.BorrowRecord
}

// NewMockDB creates a new mock database
func NewMockDB() *MockDB {
	return &MockDB{
		nextID: 1,
		books:  make(map[int64]models.Book),
		byISBN: make(map[string]int64),
	}
}

// Initialize does nothing for the mock DB
func (m *MockDB) Initialize(ctx context.Context) error {
	return nil
}

// InsertBook creates a new book and returns its id
func (m *MockDB) InsertBook(ctx context.Context, title, author, isbn string, totalCopies, availableCopies int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byISBN[isbn]; exists {
		return 0, fmt.Errorf("book with ISBN %s already exists", isbn)
	}

	id := m.nextID
	m.nextID++
	m.books[id] = models.Book{
		ID:              id,
		Title:           title,
		Author:          author,
		ISBN:            isbn,
		TotalCopies:     totalCopies,
		AvailableCopies: availableCopies,
	}
	m.byISBN[isbn] = id
	return id, nil
}

// GetBookByID returns the book with the given id, or nil if absent
func (m *MockDB) GetBookByID(ctx context.Context, bookID int64) (*models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	book, ok := m.books[bookID]
	if !ok {
		return nil, nil
	}
	return &book, nil
}

// GetBookByISBN returns the book with the given ISBN, or nil if absent
func (m *MockDB) GetBookByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byISBN[isbn]
	if !ok {
		return nil, nil
	}
	book := m.books[id]
	return &book, nil
}

// UpdateBookAvailability adjusts available_copies by delta
func (m *MockDB) UpdateBookAvailability(ctx context.Context, bookID int64, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books[bookID]
	if !ok {
		return fmt.Errorf("book %d not found", bookID)
	}

	updated := book.AvailableCopies + delta
	if updated < 0 || updated > book.TotalCopies {
		return fmt.Errorf("availability update out of range for book %d: %d", bookID, updated)
	}

	book.AvailableCopies = updated
	m.books[bookID] = book
	return nil
}

// InsertBorrowRecord creates a new active borrow record
func (m *MockDB) InsertBorrowRecord(ctx context.Context, patronID string, bookID int64, borrowedAt, dueAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, models.BorrowRecord{
		PatronID:   patronID,
		BookID:     bookID,
		BorrowedAt: borrowedAt,
		DueAt:      dueAt,
	})
	return nil
}

// GetPatronBorrowCount returns the number of active loans held by the patron
func (m *MockDB) GetPatronBorrowCount(ctx context.Context, patronID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, record := range m.records {
		if record.PatronID == patronID && record.Active() {
			count++
		}
	}
	return count, nil
}

// GetActiveBorrowRecord returns the patron's unreturned loan for the book, or nil
func (m *MockDB) GetActiveBorrowRecord(ctx context.Context, patronID string, bookID int64) (*models.BorrowRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.records {
		record := m.records[i]
		if record.PatronID == patronID && record.BookID == bookID && record.Active() {
			return &record, nil
		}
	}
	return nil, nil
}

// MarkBorrowRecordReturned stamps the patron's active loan for the book as returned
func (m *MockDB) MarkBorrowRecordReturned(ctx context.Context, patronID string, bookID int64, returnedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.records {
		record := &m.records[i]
		if record.PatronID == patronID && record.BookID == bookID && record.Active() {
			record.ReturnedAt = &returnedAt
			return nil
		}
	}
	return fmt.Errorf("no active borrow record for patron %s and book %d", patronID, bookID)
}

// Close does nothing for the mock DB
func (m *MockDB) Close() error {
	return nil
}
