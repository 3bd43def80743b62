package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/textile-erp/internal/credit"
	"github.com/odyssey-erp/textile-erp/internal/sales"
	"github.com/odyssey-erp/textile-erp/internal/shared"
)

// CreditRepo implements credit.RepositoryPort.
type CreditRepo struct{ s *Store }

// Credit returns the credit ledger view of the store.
func (s *Store) Credit() *CreditRepo { return &CreditRepo{s: s} }

type creditTx struct{ s *Store }

func (r *CreditRepo) WithTx(ctx context.Context, fn func(context.Context, credit.TxRepository) error) error {
	return r.s.withTx(ctx, func(ctx context.Context) error {
		return fn(ctx, &creditTx{s: r.s})
	})
}

func (t *creditTx) InsertSale(_ context.Context, sale credit.Sale) (int64, error) {
	if err := t.s.injected("credit.InsertSale"); err != nil {
		return 0, err
	}
	if _, ok := t.s.data.invoices[sale.InvoiceID]; !ok {
		return 0, shared.Invalid("invoice_id", "violates credit_sales_invoice_id_fkey")
	}
	for _, existing := range t.s.data.credits {
		if existing.InvoiceID == sale.InvoiceID {
			return 0, &shared.ConflictError{Reason: "credit_sales_invoice_id_key"}
		}
	}
	sale.ID = t.s.next("credit_sales")
	t.s.data.credits[sale.ID] = sale
	return sale.ID, nil
}

func (t *creditTx) LockSale(_ context.Context, id int64) (credit.Sale, error) {
	sale, ok := t.s.data.credits[id]
	if !ok {
		return credit.Sale{}, shared.NotFound("credit sale", id)
	}
	return sale, nil
}

func (t *creditTx) LockSaleByInvoice(_ context.Context, invoiceID int64) (credit.Sale, error) {
	for _, sale := range t.s.data.credits {
		if sale.InvoiceID == invoiceID {
			return sale, nil
		}
	}
	return credit.Sale{}, shared.NotFound("credit sale for invoice", invoiceID)
}

func (t *creditTx) InsertPayment(_ context.Context, p credit.Payment) (int64, error) {
	if err := t.s.injected("credit.InsertPayment"); err != nil {
		return 0, err
	}
	if !p.Amount.IsPositive() {
		return 0, shared.Invalid("amount", "violates credit_payments_amount_check")
	}
	p.ID = t.s.next("credit_payments")
	t.s.data.payments = append(t.s.data.payments, p)
	return p.ID, nil
}

func (t *creditTx) UpdateSale(_ context.Context, id int64, paid decimal.Decimal, status credit.Status, at time.Time) error {
	if err := t.s.injected("credit.UpdateSale"); err != nil {
		return err
	}
	sale, ok := t.s.data.credits[id]
	if !ok {
		return shared.NotFound("credit sale", id)
	}
	if paid.GreaterThan(sale.TotalAmount) {
		return shared.Invalid("paid_amount", "violates credit_sales_paid_le_total")
	}
	sale.PaidAmount, sale.Status, sale.UpdatedAt = paid, status, at
	t.s.data.credits[id] = sale
	return nil
}

func (t *creditTx) UpdateInvoiceSettlement(_ context.Context, invoiceID int64, paid decimal.Decimal, status credit.Status, at time.Time) error {
	if err := t.s.injected("credit.UpdateInvoiceSettlement"); err != nil {
		return err
	}
	inv, ok := t.s.data.invoices[invoiceID]
	if !ok {
		return shared.NotFound("sales invoice", invoiceID)
	}
	if paid.GreaterThan(inv.TotalAmount) {
		return shared.Invalid("paid_amount", "violates sales_invoices_paid_le_total")
	}
	inv.PaidAmount, inv.Status, inv.UpdatedAt = paid, sales.Status(status), at
	t.s.data.invoices[invoiceID] = inv
	return nil
}

func (r *CreditRepo) GetSale(_ context.Context, id int64) (credit.Sale, error) {
	defer r.s.read()()
	sale, ok := r.s.data.credits[id]
	if !ok {
		return credit.Sale{}, shared.NotFound("credit sale", id)
	}
	return sale, nil
}

func (r *CreditRepo) ListPayments(_ context.Context, creditID int64) ([]credit.Payment, error) {
	defer r.s.read()()
	var out []credit.Payment
	for _, p := range r.s.data.payments {
		if p.CreditID == creditID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *CreditRepo) ListOutstanding(_ context.Context, customerID int64) ([]credit.Sale, error) {
	defer r.s.read()()
	var out []credit.Sale
	for _, id := range sortedKeys(r.s.data.credits) {
		sale := r.s.data.credits[id]
		if sale.Status != credit.StatusPending && sale.Status != credit.StatusPartial {
			continue
		}
		if customerID > 0 && sale.CustomerID != customerID {
			continue
		}
		out = append(out, sale)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (r *CreditRepo) Reconcile(context.Context) ([]credit.Discrepancy, error) {
	defer r.s.read()()
	totals := map[int64]decimal.Decimal{}
	for _, p := range r.s.data.payments {
		totals[p.CreditID] = totals[p.CreditID].Add(p.Amount)
	}
	var out []credit.Discrepancy
	for _, id := range sortedKeys(r.s.data.credits) {
		sale := r.s.data.credits[id]
		inv := r.s.data.invoices[sale.InvoiceID]
		paid := totals[id]
		if sale.PaidAmount.Equal(paid) && sale.PaidAmount.Equal(inv.PaidAmount) && string(sale.Status) == string(inv.Status) {
			continue
		}
		out = append(out, credit.Discrepancy{
			CreditID:      id,
			InvoiceID:     sale.InvoiceID,
			CreditPaid:    sale.PaidAmount,
			PaymentsTotal: paid,
			InvoicePaid:   inv.PaidAmount,
			CreditStatus:  sale.Status,
			InvoiceStatus: credit.Status(inv.Status),
		})
	}
	return out, nil
}

// CorruptInvoicePaid overwrites an invoice paid amount outside the ledger.
func (s *Store) CorruptInvoicePaid(invoiceID int64, paid decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv := s.data.invoices[invoiceID]
	inv.PaidAmount = paid
	s.data.invoices[invoiceID] = inv
}

// AddCreditSale inserts an invoice and its receivable directly, bypassing
// the issuer, for ledger tests that only care about settlement.
func (s *Store) AddCreditSale(customerID int64, total decimal.Decimal, due time.Time) credit.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	invID := s.next("sales_invoices")
	s.data.invoices[invID] = sales.Invoice{
		ID:            invID,
		Number:        sales.FormatInvoiceNumber(due, invID),
		CustomerID:    customerID,
		PaymentMethod: sales.PaymentCredit,
		TotalAmount:   total,
		PaidAmount:    decimal.Zero,
		Status:        sales.StatusPending,
	}
	sale := credit.Sale{
		ID:          s.next("credit_sales"),
		InvoiceID:   invID,
		CustomerID:  customerID,
		DueDate:     due,
		TotalAmount: total,
		PaidAmount:  decimal.Zero,
		Status:      credit.StatusPending,
	}
	s.data.credits[sale.ID] = sale
	return sale
}

// Invoice returns the stored invoice header.
func (s *Store) Invoice(id int64) (sales.Invoice, bool) {
	defer s.read()()
	inv, ok := s.data.invoices[id]
	return inv, ok
}

var _ credit.RepositoryPort = (*CreditRepo)(nil)
