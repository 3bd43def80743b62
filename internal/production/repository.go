package production

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/textile-erp/internal/inventory"
	"github.com/odyssey-erp/textile-erp/internal/platform/db"
	"github.com/odyssey-erp/textile-erp/internal/shared"
)

const orderColumns = `id, order_number, center_id, product_id, planned_quantity, actual_quantity, status,
created_by, created_at, updated_at`

// TxRepository exposes production writes and the stock writer sharing the
// same transaction.
type TxRepository interface {
	InsertLog(ctx context.Context, log Log) (int64, error)
	NextOrderID(ctx context.Context) (int64, error)
	InsertOrder(ctx context.Context, order Order) error
	LockOrder(ctx context.Context, id int64) (Order, error)
	UpdateOrder(ctx context.Context, order Order) error
	Inventory() inventory.TxRepository
}

// Repository persists production data in PostgreSQL.
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

func (t *txRepo) InsertLog(ctx context.Context, l Log) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO production_logs
(production_date, center_id, input_product_id, input_warehouse_id, input_quantity,
 output_product_id, output_warehouse_id, output_quantity, recorded_by, event_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`,
		l.Date, l.CenterID, l.InputProductID, l.InputWarehouseID, l.InputQuantity,
		l.OutputProductID, l.OutputWarehouseID, l.OutputQuantity, l.RecordedBy, l.EventID, l.CreatedAt).Scan(&id)
	if err != nil {
		return 0, db.Translate(err)
	}
	return id, nil
}

func (t *txRepo) NextOrderID(ctx context.Context) (int64, error) {
	var id int64
	if err := t.tx.QueryRow(ctx, `SELECT nextval(pg_get_serial_sequence('production_orders', 'id'))`).Scan(&id); err != nil {
		return 0, db.Translate(err)
	}
	return id, nil
}

func (t *txRepo) InsertOrder(ctx context.Context, o Order) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO production_orders
(id, order_number, center_id, product_id, planned_quantity, actual_quantity, status, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		o.ID, o.Number, o.CenterID, o.ProductID, o.PlannedQuantity, o.ActualQuantity, string(o.Status),
		o.CreatedBy, o.CreatedAt, o.UpdatedAt)
	return db.Translate(err)
}

func (t *txRepo) LockOrder(ctx context.Context, id int64) (Order, error) {
	o, err := scanOrder(t.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM production_orders WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, shared.NotFound("production order", id)
	}
	return o, db.Translate(err)
}

func (t *txRepo) UpdateOrder(ctx context.Context, o Order) error {
	_, err := t.tx.Exec(ctx, `UPDATE production_orders SET status=$2, actual_quantity=$3, updated_at=$4 WHERE id=$1`,
		o.ID, string(o.Status), o.ActualQuantity, o.UpdatedAt)
	return db.Translate(err)
}

// GetOrder returns one order or a *shared.NotFoundError.
func (r *Repository) GetOrder(ctx context.Context, id int64) (Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM production_orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, shared.NotFound("production order", id)
	}
	return o, db.Translate(err)
}

// ListOrders returns orders newest first, optionally of one status.
func (r *Repository) ListOrders(ctx context.Context, status OrderStatus, limit int) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM production_orders`
	args := []any{}
	if status != "" {
		args = append(args, string(status))
		query += ` WHERE status=$1`
	}
	args = append(args, clampLimit(limit))
	query += fmt.Sprintf(` ORDER BY id DESC LIMIT $%d`, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Translate(err)
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, db.Translate(err)
		}
		out = append(out, o)
	}
	return out, db.Translate(rows.Err())
}

// ListLogs returns production logs matching filter, newest first.
func (r *Repository) ListLogs(ctx context.Context, filter LogFilter) ([]Log, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.CenterID > 0 {
		add("center_id=$%d", filter.CenterID)
	}
	if !filter.From.IsZero() {
		add("production_date >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("production_date <= $%d", filter.To)
	}
	query := `SELECT id, production_date, center_id, input_product_id, input_warehouse_id, input_quantity,
       output_product_id, output_warehouse_id, output_quantity, recorded_by, event_id, created_at
FROM production_logs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, clampLimit(filter.Limit))
	query += fmt.Sprintf(" ORDER BY production_date DESC, id DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Translate(err)
	}
	defer rows.Close()
	var out []Log
	for rows.Next() {
		var l Log
		if err := rows.Scan(&l.ID, &l.Date, &l.CenterID, &l.InputProductID, &l.InputWarehouseID, &l.InputQuantity,
			&l.OutputProductID, &l.OutputWarehouseID, &l.OutputQuantity, &l.RecordedBy, &l.EventID, &l.CreatedAt); err != nil {
			return nil, db.Translate(err)
		}
		out = append(out, l)
	}
	return out, db.Translate(rows.Err())
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o      Order
		status string
	)
	err := row.Scan(&o.ID, &o.Number, &o.CenterID, &o.ProductID, &o.PlannedQuantity, &o.ActualQuantity, &status,
		&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	o.Status = OrderStatus(status)
	return o, err
}
