package circulation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"circulation/internal/fees"
	"circulation/internal/payment"
)

// PayLateFees charges the patron's late fee for the book through the payment
// gateway. A nil gateway means "use the default", which is built fresh for
// this call only. The returned transaction id is empty on every failure path.
func (s *Service) PayLateFees(ctx context.Context, patronID string, bookID int64, gateway payment.Gateway) (bool, string, string) {
	if !validPatronID(patronID) {
		return false, "Invalid patron ID. Must be exactly 6 digits.", ""
	}

	assessment, err := s.feeCalc.CalculateLateFeeForBook(ctx, patronID, bookID)
	if err != nil {
		s.logger.Error("Failed to calculate late fee",
			zap.String("patron_id", patronID),
			zap.Int64("book_id", bookID),
			zap.Error(err),
		)
		return false, "Database error occurred while calculating late fees.", ""
	}

	if !assessment.FeeAmount.IsPositive() {
		return false, "No late fees to pay for this book.", ""
	}

	book, err := s.db.GetBookByID(ctx, bookID)
	if err != nil {
		s.logger.Error("Failed to look up book", zap.Int64("book_id", bookID), zap.Error(err))
		return false, "Book not found.", ""
	}
	if book == nil {
		return false, "Book not found.", ""
	}

	if gateway == nil {
		gateway = s.newGateway()
	}

	description := fmt.Sprintf("Late fees for '%s'", book.Title)
	result, err := gateway.ProcessPayment(ctx, patronID, assessment.FeeAmount, description)
	if err != nil {
		s.logger.Error("Payment gateway fault",
			zap.String("patron_id", patronID),
			zap.Int64("book_id", bookID),
			zap.Error(err),
		)
		return false, "Payment processing error: " + err.Error(), ""
	}

	if !result.Success {
		s.logger.Warn("Payment declined",
			zap.String("patron_id", patronID),
			zap.Int64("book_id", bookID),
			zap.String("gateway_message", result.Message),
		)
		return false, "Payment failed: " + result.Message, ""
	}

	s.logger.Info("Late fees paid",
		zap.String("patron_id", patronID),
		zap.Int64("book_id", bookID),
		zap.String("amount", assessment.FeeAmount.String()),
		zap.String("transaction_id", result.TransactionID),
	)
	return true, "Payment successful! " + result.Message, result.TransactionID
}

// RefundLateFeePayment reverses a prior late-fee charge. The amount must be
// positive and no larger than the maximum late fee a single book can accrue.
func (s *Service) RefundLateFeePayment(ctx context.Context, transactionID string, amount decimal.Decimal, gateway payment.Gateway) (bool, string) {
	if !validTransactionID(transactionID) {
		return false, "Invalid transaction ID."
	}

	if !amount.IsPositive() {
		return false, "Refund amount must be greater than 0."
	}

	if amount.GreaterThan(fees.MaxLateFee) {
		return false, "Refund amount exceeds maximum late fee."
	}

	if gateway == nil {
		gateway = s.newGateway()
	}

	result, err := gateway.RefundPayment(ctx, transactionID, amount)
	if err != nil {
		s.logger.Error("Refund gateway fault",
			zap.String("transaction_id", transactionID),
			zap.Error(err),
		)
		return false, "Refund processing error: " + err.Error()
	}

	if !result.Success {
		s.logger.Warn("Refund declined",
			zap.String("transaction_id", transactionID),
			zap.String("gateway_message", result.Message),
		)
		return false, "Refund failed: " + result.Message
	}

	s.logger.Info("Late fee refunded",
		zap.String("transaction_id", transactionID),
		zap.String("amount", amount.String()),
	)
	return true, result.Message
}
