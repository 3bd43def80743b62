package credit

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/textile-erp/internal/shared"
)

// TxRepository exposes the transactional writes of the credit ledger.
type TxRepository interface {
	InsertSale(ctx context.Context, sale Sale) (int64, error)
	// LockSale and LockSaleByInvoice return a *shared.NotFoundError when absent.
	LockSale(ctx context.Context, id int64) (Sale, error)
	LockSaleByInvoice(ctx context.Context, invoiceID int64) (Sale, error)
	InsertPayment(ctx context.Context, payment Payment) (int64, error)
	UpdateSale(ctx context.Context, id int64, paid decimal.Decimal, status Status, at time.Time) error
	UpdateInvoiceSettlement(ctx context.Context, invoiceID int64, paid decimal.Decimal, status Status, at time.Time) error
}

// Open creates the pending receivable of a credit invoice inside the caller's
// transaction.
func Open(ctx context.Context, tx TxRepository, in OpenInput) (Sale, error) {
	if in.InvoiceID <= 0 {
		return Sale{}, shared.Invalid("invoice_id", "is required")
	}
	if in.CustomerID <= 0 {
		return Sale{}, shared.Invalid("customer_id", "is required")
	}
	if !in.TotalAmount.IsPositive() {
		return Sale{}, shared.Invalid("total_amount", "must be greater than zero for a credit sale")
	}
	term := in.TermDays
	if term <= 0 {
		term = DefaultTermDays
	}
	date := in.InvoiceDate
	if date.IsZero() {
		date = time.Now().UTC()
	}
	sale := Sale{
		InvoiceID:   in.InvoiceID,
		CustomerID:  in.CustomerID,
		DueDate:     date.AddDate(0, 0, term),
		TotalAmount: in.TotalAmount,
		PaidAmount:  decimal.Zero,
		Status:      StatusPending,
		CreatedAt:   date,
		UpdatedAt:   date,
	}
	id, err := tx.InsertSale(ctx, sale)
	if err != nil {
		return Sale{}, err
	}
	sale.ID = id
	return sale, nil
}

// Settle applies one payment inside the caller's transaction: it locks the
// credit sale, rejects overpayment, appends the payment and writes the new
// paid amount and status to both the credit sale and its invoice.
func Settle(ctx context.Context, tx TxRepository, in PaymentInput) (PaymentResult, error) {
	if in.CreditID <= 0 {
		return PaymentResult{}, shared.Invalid("credit_id", "is required")
	}
	if !in.Amount.IsPositive() {
		return PaymentResult{}, shared.Invalid("amount", "must be greater than zero")
	}
	if !shared.FitsScale(in.Amount, shared.AmountPlaces) {
		return PaymentResult{}, shared.Invalid("amount", "must have at most 2 decimal places")
	}
	method := strings.TrimSpace(in.Method)
	if method == "" {
		return PaymentResult{}, shared.Invalid("method", "is required")
	}
	at := in.PaidAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	sale, err := tx.LockSale(ctx, in.CreditID)
	if err != nil {
		return PaymentResult{}, err
	}
	if sale.Status == StatusCancelled {
		return PaymentResult{}, shared.Invalid("credit_id", "credit sale is cancelled")
	}
	balance := sale.Balance()
	if in.Amount.GreaterThan(balance) {
		return PaymentResult{}, &shared.OverpaymentError{CreditID: sale.ID, Amount: in.Amount, MaxAllowed: balance}
	}

	payment := Payment{
		CreditID:   sale.ID,
		PaidAt:     at,
		Method:     method,
		Reference:  strings.TrimSpace(in.Reference),
		Amount:     in.Amount,
		RecordedBy: in.RecordedBy,
		CreatedAt:  at,
	}
	if payment.ID, err = tx.InsertPayment(ctx, payment); err != nil {
		return PaymentResult{}, err
	}

	newPaid := sale.PaidAmount.Add(in.Amount)
	status := SettlementStatus(sale.TotalAmount, newPaid)
	if err := tx.UpdateSale(ctx, sale.ID, newPaid, status, at); err != nil {
		return PaymentResult{}, err
	}
	if err := tx.UpdateInvoiceSettlement(ctx, sale.InvoiceID, newPaid, status, at); err != nil {
		return PaymentResult{}, err
	}
	sale.PaidAmount = newPaid
	sale.Status = status
	sale.UpdatedAt = at
	return PaymentResult{Payment: payment, Sale: sale}, nil
}

// Void cancels the unpaid credit sale of invoiceID inside the caller's
// transaction. The invoice row itself is left to the caller.
func Void(ctx context.Context, tx TxRepository, invoiceID int64, at time.Time) (Sale, error) {
	sale, err := tx.LockSaleByInvoice(ctx, invoiceID)
	if err != nil {
		return Sale{}, err
	}
	if sale.Status == StatusCancelled {
		return Sale{}, shared.Invalid("invoice_id", "credit sale is already cancelled")
	}
	if !sale.PaidAmount.IsZero() {
		return Sale{}, shared.Invalid("invoice_id", "credit sale has payments")
	}
	if err := tx.UpdateSale(ctx, sale.ID, sale.PaidAmount, StatusCancelled, at); err != nil {
		return Sale{}, err
	}
	sale.Status = StatusCancelled
	sale.UpdatedAt = at
	return sale, nil
}
