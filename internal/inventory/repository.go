package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/textile-erp/internal/platform/db"
	"github.com/odyssey-erp/textile-erp/internal/shared"
)

// Repository persists inventory data in PostgreSQL.
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

// NewTxRepository binds the stock ledger writes to a transaction opened by
// another module.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepo{tx: tx}
}

// WithTx executes the callback inside a transaction. Errors are mapped onto
// the shared taxonomy.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewTxRepository(tx))
	})
	return db.Translate(err)
}

func (r *txRepo) LockPosition(ctx context.Context, warehouseID, productID int64) (Position, error) {
	if _, err := r.tx.Exec(ctx, `INSERT INTO inventory_positions (warehouse_id, product_id, quantity, updated_at)
VALUES ($1, $2, 0, NOW())
ON CONFLICT (warehouse_id, product_id) DO NOTHING`, warehouseID, productID); err != nil {
		return Position{}, db.Translate(err)
	}
	var pos Position
	err := r.tx.QueryRow(ctx, `SELECT warehouse_id, product_id, quantity, updated_at
FROM inventory_positions WHERE warehouse_id=$1 AND product_id=$2 FOR UPDATE`, warehouseID, productID).
		Scan(&pos.WarehouseID, &pos.ProductID, &pos.Quantity, &pos.UpdatedAt)
	if err != nil {
		return Position{}, db.Translate(err)
	}
	return pos, nil
}

func (r *txRepo) SavePosition(ctx context.Context, pos Position) error {
	_, err := r.tx.Exec(ctx, `UPDATE inventory_positions SET quantity=$3, updated_at=$4
WHERE warehouse_id=$1 AND product_id=$2`, pos.WarehouseID, pos.ProductID, pos.Quantity, pos.UpdatedAt)
	return db.Translate(err)
}

func (r *txRepo) InsertTransaction(ctx context.Context, txn Transaction) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO stock_transactions
(occurred_at, warehouse_id, product_id, type, quantity, balance_after, event_id, ref_module, ref_id, note, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`,
		txn.OccurredAt, txn.WarehouseID, txn.ProductID, string(txn.Type), txn.Quantity, txn.BalanceAfter,
		txn.EventID, txn.RefModule, txn.RefID, txn.Note, txn.CreatedBy).Scan(&id)
	if err != nil {
		return 0, db.Translate(err)
	}
	return id, nil
}

// GetPosition returns one position or a *shared.NotFoundError.
func (r *Repository) GetPosition(ctx context.Context, warehouseID, productID int64) (Position, error) {
	var pos Position
	err := r.pool.QueryRow(ctx, `SELECT warehouse_id, product_id, quantity, updated_at
FROM inventory_positions WHERE warehouse_id=$1 AND product_id=$2`, warehouseID, productID).
		Scan(&pos.WarehouseID, &pos.ProductID, &pos.Quantity, &pos.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Position{}, shared.NotFound("inventory position", productID)
	}
	if err != nil {
		return Position{}, db.Translate(err)
	}
	return pos, nil
}

// ListPositions returns positions, optionally limited to one warehouse.
func (r *Repository) ListPositions(ctx context.Context, warehouseID int64) ([]Position, error) {
	query := `SELECT warehouse_id, product_id, quantity, updated_at FROM inventory_positions`
	args := []any{}
	if warehouseID > 0 {
		query += ` WHERE warehouse_id=$1`
		args = append(args, warehouseID)
	}
	query += ` ORDER BY warehouse_id, product_id`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Translate(err)
	}
	defer rows.Close()
	var positions []Position
	for rows.Next() {
		var pos Position
		if err := rows.Scan(&pos.WarehouseID, &pos.ProductID, &pos.Quantity, &pos.UpdatedAt); err != nil {
			return nil, db.Translate(err)
		}
		positions = append(positions, pos)
	}
	return positions, db.Translate(rows.Err())
}

// ListTransactions returns ledger rows matching filter, oldest first.
func (r *Repository) ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.WarehouseID > 0 {
		add("warehouse_id=$%d", filter.WarehouseID)
	}
	if filter.ProductID > 0 {
		add("product_id=$%d", filter.ProductID)
	}
	if filter.EventID != uuid.Nil {
		add("event_id=$%d", filter.EventID)
	}
	if !filter.From.IsZero() {
		add("occurred_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("occurred_at <= $%d", filter.To)
	}
	query := `SELECT id, occurred_at, warehouse_id, product_id, type, quantity, balance_after, event_id, ref_module, ref_id, note, created_by
FROM stock_transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, clampLimit(filter.Limit))
	query += fmt.Sprintf(" ORDER BY occurred_at, id LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Translate(err)
	}
	defer rows.Close()
	var txns []Transaction
	for rows.Next() {
		var (
			t   Transaction
			typ string
		)
		if err := rows.Scan(&t.ID, &t.OccurredAt, &t.WarehouseID, &t.ProductID, &typ, &t.Quantity, &t.BalanceAfter,
			&t.EventID, &t.RefModule, &t.RefID, &t.Note, &t.CreatedBy); err != nil {
			return nil, db.Translate(err)
		}
		t.Type = TransactionType(typ)
		txns = append(txns, t)
	}
	return txns, db.Translate(rows.Err())
}

// Reconcile lists positions whose quantity differs from the sum of their ledger rows.
func (r *Repository) Reconcile(ctx context.Context) ([]Discrepancy, error) {
	rows, err := r.pool.Query(ctx, `SELECT COALESCE(p.warehouse_id, l.warehouse_id), COALESCE(p.product_id, l.product_id),
       COALESCE(p.quantity, 0), COALESCE(l.total, 0)
FROM inventory_positions p
FULL OUTER JOIN (
    SELECT warehouse_id, product_id, SUM(quantity) AS total
    FROM stock_transactions GROUP BY warehouse_id, product_id
) l ON l.warehouse_id = p.warehouse_id AND l.product_id = p.product_id
WHERE COALESCE(p.quantity, 0) <> COALESCE(l.total, 0)
ORDER BY 1, 2`)
	if err != nil {
		return nil, db.Translate(err)
	}
	defer rows.Close()
	var out []Discrepancy
	for rows.Next() {
		var d Discrepancy
		if err := rows.Scan(&d.WarehouseID, &d.ProductID, &d.Position, &d.LedgerSum); err != nil {
			return nil, db.Translate(err)
		}
		out = append(out, d)
	}
	return out, db.Translate(rows.Err())
}
