package credit

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/textile-erp/internal/platform/db"
	"github.com/odyssey-erp/textile-erp/internal/shared"
)

const saleColumns = `id, invoice_id, customer_id, due_date, total_amount, paid_amount, status, created_at, updated_at`

// Repository persists the credit ledger in PostgreSQL.
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

// NewTxRepository binds credit writes to a transaction opened by another module.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepo{tx: tx}
}

// WithTx executes the callback inside a transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewTxRepository(tx))
	})
	return db.Translate(err)
}

func scanSale(row pgx.Row) (Sale, error) {
	var (
		s      Sale
		status string
	)
	err := row.Scan(&s.ID, &s.InvoiceID, &s.CustomerID, &s.DueDate, &s.TotalAmount, &s.PaidAmount,
		&status, &s.CreatedAt, &s.UpdatedAt)
	s.Status = Status(status)
	return s, err
}

func (r *txRepo) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO credit_sales
(invoice_id, customer_id, due_date, total_amount, paid_amount, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		sale.InvoiceID, sale.CustomerID, sale.DueDate, sale.TotalAmount, sale.PaidAmount,
		string(sale.Status), sale.CreatedAt, sale.UpdatedAt).Scan(&id)
	if err != nil {
		return 0, db.Translate(err)
	}
	return id, nil
}

func (r *txRepo) LockSale(ctx context.Context, id int64) (Sale, error) {
	sale, err := scanSale(r.tx.QueryRow(ctx, `SELECT `+saleColumns+` FROM credit_sales WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, shared.NotFound("credit sale", id)
	}
	return sale, db.Translate(err)
}

func (r *txRepo) LockSaleByInvoice(ctx context.Context, invoiceID int64) (Sale, error) {
	sale, err := scanSale(r.tx.QueryRow(ctx, `SELECT `+saleColumns+` FROM credit_sales WHERE invoice_id=$1 FOR UPDATE`, invoiceID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, shared.NotFound("credit sale for invoice", invoiceID)
	}
	return sale, db.Translate(err)
}

func (r *txRepo) InsertPayment(ctx context.Context, p Payment) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO credit_payments
(credit_id, paid_at, method, reference, amount, recorded_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		p.CreditID, p.PaidAt, p.Method, p.Reference, p.Amount, p.RecordedBy, p.CreatedAt).Scan(&id)
	if err != nil {
		return 0, db.Translate(err)
	}
	return id, nil
}

func (r *txRepo) UpdateSale(ctx context.Context, id int64, paid decimal.Decimal, status Status, at time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE credit_sales SET paid_amount=$2, status=$3, updated_at=$4 WHERE id=$1`,
		id, paid, string(status), at)
	return db.Translate(err)
}

func (r *txRepo) UpdateInvoiceSettlement(ctx context.Context, invoiceID int64, paid decimal.Decimal, status Status, at time.Time) error {
	tag, err := r.tx.Exec(ctx, `UPDATE sales_invoices SET paid_amount=$2, status=$3, updated_at=$4 WHERE id=$1`,
		invoiceID, paid, string(status), at)
	if err != nil {
		return db.Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("sales invoice", invoiceID)
	}
	return nil
}

// GetSale returns one credit sale without its payments.
func (r *Repository) GetSale(ctx context.Context, id int64) (Sale, error) {
	sale, err := scanSale(r.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM credit_sales WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, shared.NotFound("credit sale", id)
	}
	return sale, db.Translate(err)
}

// ListPayments returns the payments of a credit sale, oldest first.
func (r *Repository) ListPayments(ctx context.Context, creditID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, credit_id, paid_at, method, reference, amount, recorded_by, created_at
FROM credit_payments WHERE credit_id=$1 ORDER BY id`, creditID)
	if err != nil {
		return nil, db.Translate(err)
	}
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.CreditID, &p.PaidAt, &p.Method, &p.Reference, &p.Amount,
			&p.RecordedBy, &p.CreatedAt); err != nil {
			return nil, db.Translate(err)
		}
		out = append(out, p)
	}
	return out, db.Translate(rows.Err())
}

// ListOutstanding returns pending and partial credit sales ordered by due
// date. customerID 0 lists every customer.
func (r *Repository) ListOutstanding(ctx context.Context, customerID int64) ([]Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM credit_sales WHERE status IN ('pending', 'partial')`
	args := []any{}
	if customerID > 0 {
		query += ` AND customer_id=$1`
		args = append(args, customerID)
	}
	query += ` ORDER BY due_date, id`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Translate(err)
	}
	defer rows.Close()
	var out []Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, db.Translate(err)
		}
		out = append(out, sale)
	}
	return out, db.Translate(rows.Err())
}

// Reconcile lists credit sales whose paid amount disagrees with their
// payments or whose invoice carries a different paid amount or status.
func (r *Repository) Reconcile(ctx context.Context) ([]Discrepancy, error) {
	rows, err := r.pool.Query(ctx, `SELECT c.id, c.invoice_id, c.paid_amount, COALESCE(p.total, 0), i.paid_amount, c.status, i.status
FROM credit_sales c
JOIN sales_invoices i ON i.id = c.invoice_id
LEFT JOIN (SELECT credit_id, SUM(amount) AS total FROM credit_payments GROUP BY credit_id) p ON p.credit_id = c.id
WHERE c.paid_amount <> COALESCE(p.total, 0) OR c.paid_amount <> i.paid_amount OR c.status <> i.status
ORDER BY c.id`)
	if err != nil {
		return nil, db.Translate(err)
	}
	defer rows.Close()
	var out []Discrepancy
	for rows.Next() {
		var (
			d                           Discrepancy
			creditStatus, invoiceStatus string
		)
		if err := rows.Scan(&d.CreditID, &d.InvoiceID, &d.CreditPaid, &d.PaymentsTotal, &d.InvoicePaid,
			&creditStatus, &invoiceStatus); err != nil {
			return nil, db.Translate(err)
		}
		d.CreditStatus = Status(creditStatus)
		d.InvoiceStatus = Status(invoiceStatus)
		out = append(out, d)
	}
	return out, db.Translate(rows.Err())
}
