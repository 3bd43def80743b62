package sales

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod of an invoice.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCredit PaymentMethod = "credit"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentCredit
}

// Status of an invoice. Credit invoices follow their credit sale.
type Status string

const (
	StatusPaid      Status = "paid"
	StatusPending   Status = "pending"
	StatusPartial   Status = "partial"
	StatusCancelled Status = "cancelled"
)

// Invoice is a sales invoice header with its lines.
type Invoice struct {
	ID            int64           `json:"id"`
	Number        string          `json:"invoice_number"`
	Date          time.Time       `json:"invoice_date"`
	BranchID      int64           `json:"branch_id"`
	CustomerID    int64           `json:"customer_id"`
	WarehouseID   int64           `json:"warehouse_id"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	Status        Status          `json:"status"`
	IssuedBy      int64           `json:"issued_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Lines         []Line          `json:"lines,omitempty"`
}

// Line is one product sold on an invoice.
type Line struct {
	ID        int64           `json:"id"`
	InvoiceID int64           `json:"invoice_id"`
	ProductID int64           `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Item is a caller supplied invoice line. Price is trusted as given.
type Item struct {
	ProductID int64
	Quantity  decimal.Decimal
	Price     decimal.Decimal
}

// CreateInvoiceInput carries everything needed to issue an invoice.
type CreateInvoiceInput struct {
	CustomerID     int64
	BranchID       int64
	PaymentMethod  PaymentMethod
	Items          []Item
	IssuedBy       int64
	IdempotencyKey string
}

// CreateInvoiceResult identifies the issued invoice.
type CreateInvoiceResult struct {
	InvoiceID     int64  `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	CreditID      int64  `json:"credit_id,omitempty"`
}

// ListFilter narrows ListInvoices.
type ListFilter struct {
	CustomerID int64
	Status     Status
	Limit      int
}

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// FormatInvoiceNumber renders the number of invoice id issued on date.
func FormatInvoiceNumber(date time.Time, id int64) string {
	return fmt.Sprintf("INV-%s-%05d", date.Format("200601"), id)
}
