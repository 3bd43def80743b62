package memstore

import (
	"context"
	"time"

	"github.com/odyssey-erp/textile-erp/internal/credit"
	"github.com/odyssey-erp/textile-erp/internal/inventory"
	"github.com/odyssey-erp/textile-erp/internal/sales"
	"github.com/odyssey-erp/textile-erp/internal/shared"
)

// SalesRepo implements sales.RepositoryPort.
type SalesRepo struct{ s *Store }

// Sales returns the invoice view of the store.
func (s *Store) Sales() *SalesRepo { return &SalesRepo{s: s} }

type salesTx struct{ s *Store }

func (r *SalesRepo) WithTx(ctx context.Context, fn func(context.Context, sales.TxRepository) error) error {
	return r.s.withTx(ctx, func(ctx context.Context) error {
		return fn(ctx, &salesTx{s: r.s})
	})
}

func (t *salesTx) Inventory() inventory.TxRepository { return &inventoryTx{s: t.s} }

func (t *salesTx) Credit() credit.TxRepository { return &creditTx{s: t.s} }

func (t *salesTx) NextInvoiceID(context.Context) (int64, error) {
	if err := t.s.injected("sales.NextInvoiceID"); err != nil {
		return 0, err
	}
	return t.s.next("sales_invoices"), nil
}

func (t *salesTx) InsertInvoice(_ context.Context, inv sales.Invoice) error {
	if err := t.s.injected("sales.InsertInvoice"); err != nil {
		return err
	}
	for _, existing := range t.s.data.invoices {
		if existing.Number == inv.Number {
			return &shared.ConflictError{Reason: "sales_invoices_number_key"}
		}
	}
	if inv.PaidAmount.GreaterThan(inv.TotalAmount) {
		return shared.Invalid("paid_amount", "violates sales_invoices_paid_le_total")
	}
	inv.Lines = nil
	t.s.data.invoices[inv.ID] = inv
	return nil
}

func (t *salesTx) InsertLine(_ context.Context, line sales.Line) (int64, error) {
	if err := t.s.injected("sales.InsertLine"); err != nil {
		return 0, err
	}
	if _, ok := t.s.data.invoices[line.InvoiceID]; !ok {
		return 0, shared.Invalid("invoice_id", "violates sales_invoice_lines_invoice_id_fkey")
	}
	line.ID = t.s.next("sales_invoice_lines")
	t.s.data.lines = append(t.s.data.lines, line)
	return line.ID, nil
}

func (t *salesTx) LockInvoice(_ context.Context, id int64) (sales.Invoice, error) {
	inv, ok := t.s.data.invoices[id]
	if !ok {
		return sales.Invoice{}, shared.NotFound("sales invoice", id)
	}
	return inv, nil
}

func (t *salesTx) ListLines(_ context.Context, invoiceID int64) ([]sales.Line, error) {
	return t.s.linesOf(invoiceID), nil
}

func (t *salesTx) UpdateInvoiceStatus(_ context.Context, id int64, status sales.Status, at time.Time) error {
	if err := t.s.injected("sales.UpdateInvoiceStatus"); err != nil {
		return err
	}
	inv, ok := t.s.data.invoices[id]
	if !ok {
		return shared.NotFound("sales invoice", id)
	}
	inv.Status, inv.UpdatedAt = status, at
	t.s.data.invoices[id] = inv
	return nil
}

func (t *salesTx) ClaimIdempotencyKey(_ context.Context, key string) error {
	if _, ok := t.s.data.idempotency[key]; ok {
		return shared.ErrIdempotencyConflict
	}
	t.s.data.idempotency[key] = time.Now()
	return nil
}

func (s *Store) linesOf(invoiceID int64) []sales.Line {
	var out []sales.Line
	for _, l := range s.data.lines {
		if l.InvoiceID == invoiceID {
			out = append(out, l)
		}
	}
	return out
}

func (r *SalesRepo) GetInvoice(_ context.Context, id int64) (sales.Invoice, error) {
	defer r.s.read()()
	inv, ok := r.s.data.invoices[id]
	if !ok {
		return sales.Invoice{}, shared.NotFound("sales invoice", id)
	}
	return inv, nil
}

func (r *SalesRepo) ListLines(_ context.Context, invoiceID int64) ([]sales.Line, error) {
	defer r.s.read()()
	return r.s.linesOf(invoiceID), nil
}

func (r *SalesRepo) ListInvoices(_ context.Context, f sales.ListFilter) ([]sales.Invoice, error) {
	defer r.s.read()()
	ids := sortedKeys(r.s.data.invoices)
	var out []sales.Invoice
	for i := len(ids) - 1; i >= 0; i-- {
		inv := r.s.data.invoices[ids[i]]
		if f.CustomerID > 0 && inv.CustomerID != f.CustomerID {
			continue
		}
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		out = append(out, inv)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

var _ sales.RepositoryPort = (*SalesRepo)(nil)
