package api

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"circulation/internal/circulation"
	"circulation/internal/storage"
)

// Server handles the JSON HTTP surface over the circulation service
type Server struct {
	svc    *circulation.Service
	db     storage.Store
	logger *zap.Logger
}

// NewServer creates the HTTP server for the circulation API
func NewServer(svc *circulation.Service, db storage.Store, logger *zap.Logger) *Server {
	return &Server{
		svc:    svc,
		db:     db,
		logger: logger,
	}
}

// RegisterRoutes registers API routes on the provided mux
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/books", s.handleCreateBook)
	mux.HandleFunc("/api/borrow", s.handleBorrow)
	mux.HandleFunc("/api/returns", s.handleReturn)
	mux.HandleFunc("/api/late-fees/pay", s.handlePayLateFees)
	mux.HandleFunc("/api/late-fees/refund", s.handleRefund)
}

// CreateBookRequest represents the request body for adding a book
type CreateBookRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	ISBN        string `json:"isbn"`
	TotalCopies int    `json:"total_copies"`
}

// PatronBookRequest represents a request acting on one patron and one book
type PatronBookRequest struct {
	PatronID string `json:"patron_id"`
	BookID   int64  `json:"book_id"`
}

// RefundRequest represents the request body for refunding a late-fee payment
type RefundRequest struct {
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
}

// OperationResponse is the common answer shape for circulation operations
type OperationResponse struct {
	OK            bool   `json:"ok"`
	Message       string `json:"message"`
	TransactionID string `json:"transaction_id,omitempty"`
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"Method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	var req CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("Failed to decode request body", zap.Error(err))
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	if req.Title == "" || req.ISBN == "" || req.TotalCopies <= 0 {
		http.Error(w, `{"error":"Missing required fields"}`, http.StatusBadRequest)
		return
	}

	id, err := s.db.InsertBook(r.Context(), req.Title, req.Author, req.ISBN, req.TotalCopies, req.TotalCopies)
	if err != nil {
		s.logger.Error("Failed to insert book", zap.String("isbn", req.ISBN), zap.Error(err))
		http.Error(w, `{"error":"Failed to create book"}`, http.StatusInternalServerError)
		return
	}

	s.logger.Info("Book created", zap.Int64("book_id", id), zap.String("title", req.Title))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]int64{"book_id": id})
}

func (s *Server) handleBorrow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"Method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	var req PatronBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("Failed to decode request body", zap.Error(err))
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	ok, message := s.svc.BorrowBookByPatron(r.Context(), req.PatronID, req.BookID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(OperationResponse{OK: ok, Message: message})
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"Method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	var req PatronBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("Failed to decode request body", zap.Error(err))
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	ok, message := s.svc.ReturnBookByPatron(r.Context(), req.PatronID, req.BookID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(OperationResponse{OK: ok, Message: message})
}

func (s *Server) handlePayLateFees(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"Method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	var req PatronBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("Failed to decode request body", zap.Error(err))
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	ok, message, transactionID := s.svc.PayLateFees(r.Context(), req.PatronID, req.BookID, nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(OperationResponse{OK: ok, Message: message, TransactionID: transactionID})
}

func (s *Server) handleRefund(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"Method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	var req RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("Failed to decode request body", zap.Error(err))
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	ok, message := s.svc.RefundLateFeePayment(r.Context(), req.TransactionID, decimal.NewFromFloat(req.Amount), nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(OperationResponse{OK: ok, Message: message})
}
