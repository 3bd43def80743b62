package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/textile-erp/internal/credit"
	"github.com/odyssey-erp/textile-erp/internal/inventory"
	"github.com/odyssey-erp/textile-erp/internal/platform/db"
	"github.com/odyssey-erp/textile-erp/internal/shared"
)

const idempotencyModule = "sales.invoice"

const invoiceColumns = `id, invoice_number, invoice_date, branch_id, customer_id, warehouse_id, payment_method,
total_amount, paid_amount, status, issued_by, created_at, updated_at`

// TxRepository exposes transactional invoice writes and the stock and credit
// writers that share the same transaction.
type TxRepository interface {
	NextInvoiceID(ctx context.Context) (int64, error)
	InsertInvoice(ctx context.Context, invoice Invoice) error
	InsertLine(ctx context.Context, line Line) (int64, error)
	LockInvoice(ctx context.Context, id int64) (Invoice, error)
	ListLines(ctx context.Context, invoiceID int64) ([]Line, error)
	UpdateInvoiceStatus(ctx context.Context, id int64, status Status, at time.Time) error
	ClaimIdempotencyKey(ctx context.Context, key string) error
	Inventory() inventory.TxRepository
	Credit() credit.TxRepository
}

// Repository persists invoices in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
	return db.Translate(err)
}

func (t *txRepo) Inventory() inventory.TxRepository { return inventory.NewTxRepository(t.tx) }

func (t *txRepo) Credit() credit.TxRepository { return credit.NewTxRepository(t.tx) }

// NextInvoiceID draws the id from the table sequence so the invoice number
// can be derived before the header is written.
func (t *txRepo) NextInvoiceID(ctx context.Context) (int64, error) {
	var id int64
	if err := t.tx.QueryRow(ctx, `SELECT nextval(pg_get_serial_sequence('sales_invoices', 'id'))`).Scan(&id); err != nil {
		return 0, db.Translate(err)
	}
	return id, nil
}

func (t *txRepo) InsertInvoice(ctx context.Context, inv Invoice) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO sales_invoices
(id, invoice_number, invoice_date, branch_id, customer_id, warehouse_id, payment_method,
 total_amount, paid_amount, status, issued_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		inv.ID, inv.Number, inv.Date, inv.BranchID, inv.CustomerID, inv.WarehouseID, string(inv.PaymentMethod),
		inv.TotalAmount, inv.PaidAmount, string(inv.Status), inv.IssuedBy, inv.CreatedAt, inv.UpdatedAt)
	return db.Translate(err)
}

func (t *txRepo) InsertLine(ctx context.Context, line Line) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO sales_invoice_lines (invoice_id, product_id, quantity, unit_price, line_total)
VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		line.InvoiceID, line.ProductID, line.Quantity, line.UnitPrice, line.LineTotal).Scan(&id)
	if err != nil {
		return 0, db.Translate(err)
	}
	return id, nil
}

func (t *txRepo) LockInvoice(ctx context.Context, id int64) (Invoice, error) {
	inv, err := scanInvoice(t.tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM sales_invoices WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, shared.NotFound("sales invoice", id)
	}
	return inv, db.Translate(err)
}

func (t *txRepo) ListLines(ctx context.Context, invoiceID int64) ([]Line, error) {
	return listLines(ctx, t.tx, invoiceID)
}

func (t *txRepo) UpdateInvoiceStatus(ctx context.Context, id int64, status Status, at time.Time) error {
	_, err := t.tx.Exec(ctx, `UPDATE sales_invoices SET status=$2, updated_at=$3 WHERE id=$1`, id, string(status), at)
	return db.Translate(err)
}

func (t *txRepo) ClaimIdempotencyKey(ctx context.Context, key string) error {
	return shared.ClaimIdempotencyKey(ctx, t.tx, key, idempotencyModule)
}

// GetInvoice returns a header without lines.
func (r *Repository) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM sales_invoices WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, shared.NotFound("sales invoice", id)
	}
	return inv, db.Translate(err)
}

// ListLines returns the lines of an invoice in insertion order.
func (r *Repository) ListLines(ctx context.Context, invoiceID int64) ([]Line, error) {
	return listLines(ctx, r.pool, invoiceID)
}

// ListInvoices returns headers matching filter, newest first.
func (r *Repository) ListInvoices(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	var (
		where []string
		args  []any
	)
	if filter.CustomerID > 0 {
		args = append(args, filter.CustomerID)
		where = append(where, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	query := `SELECT ` + invoiceColumns + ` FROM sales_invoices`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, clampLimit(filter.Limit))
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Translate(err)
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, db.Translate(err)
		}
		out = append(out, inv)
	}
	return out, db.Translate(rows.Err())
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listLines(ctx context.Context, q querier, invoiceID int64) ([]Line, error) {
	rows, err := q.Query(ctx, `SELECT id, invoice_id, product_id, quantity, unit_price, line_total
FROM sales_invoice_lines WHERE invoice_id=$1 ORDER BY id`, invoiceID)
	if err != nil {
		return nil, db.Translate(err)
	}
	defer rows.Close()
	var out []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.LineTotal); err != nil {
			return nil, db.Translate(err)
		}
		out = append(out, l)
	}
	return out, db.Translate(rows.Err())
}

func scanInvoice(row pgx.Row) (Invoice, error) {
	var (
		inv            Invoice
		method, status string
	)
	err := row.Scan(&inv.ID, &inv.Number, &inv.Date, &inv.BranchID, &inv.CustomerID, &inv.WarehouseID, &method,
		&inv.TotalAmount, &inv.PaidAmount, &status, &inv.IssuedBy, &inv.CreatedAt, &inv.UpdatedAt)
	inv.PaymentMethod = PaymentMethod(method)
	inv.Status = Status(status)
	return inv, err
}
