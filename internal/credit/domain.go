package credit

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/textile-erp/internal/shared"
)

// Status of a credit sale. The values are shared with the parent invoice.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPartial   Status = "partial"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// DefaultTermDays is the payment term applied when none is configured.
const DefaultTermDays = 30

// Sale is the receivable opened for a credit invoice.
type Sale struct {
	ID          int64           `json:"id"`
	InvoiceID   int64           `json:"invoice_id"`
	CustomerID  int64           `json:"customer_id"`
	DueDate     time.Time       `json:"due_date"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Payments    []Payment       `json:"payments,omitempty"`
}

// Balance returns the amount still owed.
func (s Sale) Balance() decimal.Decimal {
	return s.TotalAmount.Sub(s.PaidAmount)
}

// Payment is one append-only settlement against a Sale.
type Payment struct {
	ID         int64           `json:"id"`
	CreditID   int64           `json:"credit_id"`
	PaidAt     time.Time       `json:"paid_at"`
	Method     string          `json:"method"`
	Reference  string          `json:"reference,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	RecordedBy int64           `json:"recorded_by"`
	CreatedAt  time.Time       `json:"created_at"`
}

// OpenInput describes the receivable created alongside a credit invoice.
type OpenInput struct {
	InvoiceID   int64
	CustomerID  int64
	InvoiceDate time.Time
	TotalAmount decimal.Decimal
	TermDays    int
}

// PaymentInput describes a payment against a credit sale.
type PaymentInput struct {
	CreditID   int64
	Amount     decimal.Decimal
	Method     string
	Reference  string
	RecordedBy int64
	PaidAt     time.Time
}

// PaymentResult is the recorded payment and the credit sale after it.
type PaymentResult struct {
	Payment Payment `json:"payment"`
	Sale    Sale    `json:"credit_sale"`
}

// AgingReport buckets outstanding balances by days past due.
type AgingReport struct {
	AsOf       time.Time       `json:"as_of"`
	Current    decimal.Decimal `json:"current"`
	Days1To30  decimal.Decimal `json:"days_1_30"`
	Days31To60 decimal.Decimal `json:"days_31_60"`
	Days61To90 decimal.Decimal `json:"days_61_90"`
	Over90     decimal.Decimal `json:"over_90"`
	Total      decimal.Decimal `json:"total"`
}

// Discrepancy describes a credit sale whose bookkeeping disagrees with its
// payments or with its invoice.
type Discrepancy struct {
	CreditID      int64           `json:"credit_id"`
	InvoiceID     int64           `json:"invoice_id"`
	CreditPaid    decimal.Decimal `json:"credit_paid"`
	PaymentsTotal decimal.Decimal `json:"payments_total"`
	InvoicePaid   decimal.Decimal `json:"invoice_paid"`
	CreditStatus  Status          `json:"credit_status"`
	InvoiceStatus Status          `json:"invoice_status"`
}

// SettlementStatus derives the status after a payment brought the paid amount
// to paid. A remainder within shared.MoneyEpsilon counts as settled.
func SettlementStatus(total, paid decimal.Decimal) Status {
	if total.Sub(paid).LessThanOrEqual(shared.MoneyEpsilon) {
		return StatusPaid
	}
	if paid.IsPositive() {
		return StatusPartial
	}
	return StatusPending
}
