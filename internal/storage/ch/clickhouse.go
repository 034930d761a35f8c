package ch

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"circulation/internal/models"

	"github.com/ClickHouse/clickhouse-go/v2"
)

type ClickHouseDB struct {
	conn clickhouse.Conn
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(host string, port int, database, user, password string, useTLS bool) (*ClickHouseDB, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	options := &clickhouse.Options{
		Addr:     []string{addr},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
		Settings: clickhouse.Settings{
			// Availability and return updates are mutations; wait for them so
			// a read issued right after an update sees the new value.
			"mutations_sync": 2,
		},
	}

	// Configure TLS if enabled
	if useTLS {
		options.TLS = &tls.Config{
			InsecureSkipVerify: false,
		}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test the connection
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Initialize is a no-op - tables are managed via migrations
func (db *ClickHouseDB) Initialize(ctx context.Context) error {
	// Tables are managed via migrations (see migrations/ directory)
	// This method is kept for interface compatibility
	return nil
}

// InsertBook creates a new book and returns its id
func (db *ClickHouseDB) InsertBook(ctx context.Context, title, author, isbn string, totalCopies, availableCopies int) (int64, error) {
	existing, err := db.GetBookByISBN(ctx, isbn)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, fmt.Errorf("book with ISBN %s already exists", isbn)
	}

	var nextID int64
	row := db.conn.QueryRow(ctx, `SELECT coalesce(max(id), 0) + 1 FROM books`)
	if err := row.Scan(&nextID); err != nil {
		return 0, fmt.Errorf("failed to allocate book id: %w", err)
	}

	err = db.conn.Exec(ctx, `INSERT INTO books (id, title, author, isbn, total_copies, available_copies) VALUES (?, ?, ?, ?, ?, ?)`,
		nextID, title, author, isbn, int32(totalCopies), int32(availableCopies))
	if err != nil {
		return 0, fmt.Errorf("failed to insert book: %w", err)
	}
	return nextID, nil
}

// GetBookByID returns the book with the given id, or nil if absent
func (db *ClickHouseDB) GetBookByID(ctx context.Context, bookID int64) (*models.Book, error) {
	return db.getBook(ctx, `SELECT id, title, author, isbn, total_copies, available_copies FROM books WHERE id = ?`, bookID)
}

// GetBookByISBN returns the book with the given ISBN, or nil if absent
func (db *ClickHouseDB) GetBookByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	return db.getBook(ctx, `SELECT id, title, author, isbn, total_copies, available_copies FROM books WHERE isbn = ?`, isbn)
}

func (db *ClickHouseDB) getBook(ctx context.Context, query string, arg interface{}) (*models.Book, error) {
	rows, err := db.conn.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query book: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var book models.Book
	var total, available int32
	if err := rows.Scan(&book.ID, &book.Title, &book.Author, &book.ISBN, &total, &available); err != nil {
		return nil, fmt.Errorf("failed to scan book: %w", err)
	}
	book.TotalCopies = int(total)
	book.AvailableCopies = int(available)
	return &book, nil
}

// UpdateBookAvailability adjusts available_copies by delta
func (db *ClickHouseDB) UpdateBookAvailability(ctx context.Context, bookID int64, delta int) error {
	err := db.conn.Exec(ctx, `ALTER TABLE books UPDATE available_copies = available_copies + ? WHERE id = ?`,
		int32(delta), bookID)
	if err != nil {
		return fmt.Errorf("failed to update book availability: %w", err)
	}
	return nil
}

// InsertBorrowRecord creates a new active borrow record
func (db *ClickHouseDB) InsertBorrowRecord(ctx context.Context, patronID string, bookID int64, borrowedAt, dueAt time.Time) error {
	err := db.conn.Exec(ctx, `INSERT INTO borrow_records (patron_id, book_id, borrowed_at, due_at, returned_at) VALUES (?, ?, ?, ?, NULL)`,
		patronID, bookID, borrowedAt, dueAt)
	if err != nil {
		return fmt.Errorf("failed to insert borrow record: %w", err)
	}
	return nil
}

// GetPatronBorrowCount returns the number of active loans held by the patron
func (db *ClickHouseDB) GetPatronBorrowCount(ctx context.Context, patronID string) (int, error) {
	var count uint64
	row := db.conn.QueryRow(ctx, `SELECT count() FROM borrow_records WHERE patron_id = ? AND returned_at IS NULL`, patronID)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count borrow records: %w", err)
	}
	return int(count), nil
}

// GetActiveBorrowRecord returns the patron's unreturned loan for the book, or nil
func (db *ClickHouseDB) GetActiveBorrowRecord(ctx context.Context, patronID string, bookID int64) (*models.BorrowRecord, error) {
	rows, err := db.conn.Query(ctx,
		`SELECT patron_id, book_id, borrowed_at, due_at, returned_at FROM borrow_records
		 WHERE patron_id = ? AND book_id = ? AND returned_at IS NULL
		 ORDER BY borrowed_at DESC LIMIT 1`,
		patronID, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to query borrow record: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var record models.BorrowRecord
	if err := rows.Scan(&record.PatronID, &record.BookID, &record.BorrowedAt, &record.DueAt, &record.ReturnedAt); err != nil {
		return nil, fmt.Errorf("failed to scan borrow record: %w", err)
	}
	return &record, nil
}

// MarkBorrowRecordReturned stamps the patron's active loan for the book as returned
func (db *ClickHouseDB) MarkBorrowRecordReturned(ctx context.Context, patronID string, bookID int64, returnedAt time.Time) error {
	err := db.conn.Exec(ctx, `ALTER TABLE borrow_records UPDATE returned_at = ? WHERE patron_id = ? AND book_id = ? AND returned_at IS NULL`,
		returnedAt, patronID, bookID)
	if err != nil {
		return fmt.Errorf("failed to mark borrow record returned: %w", err)
	}
	return nil
}

// Close closes the database connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
