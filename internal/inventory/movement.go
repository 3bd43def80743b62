package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/textile-erp/internal/shared"
)

// TxRepository exposes the transactional writes behind every stock movement.
type TxRepository interface {
	// LockPosition returns the position locked for update, creating it at
	// zero when absent.
	LockPosition(ctx context.Context, warehouseID, productID int64) (Position, error)
	SavePosition(ctx context.Context, pos Position) error
	InsertTransaction(ctx context.Context, txn Transaction) (int64, error)
}

// Post applies m to its position inside the caller's transaction and appends
// the matching ledger row. It is the only code path that changes a position.
func Post(ctx context.Context, tx TxRepository, m Movement, policy Policy) (Transaction, error) {
	if m.WarehouseID <= 0 {
		return Transaction{}, shared.Invalid("warehouse_id", "is required")
	}
	if m.ProductID <= 0 {
		return Transaction{}, shared.Invalid("product_id", "is required")
	}
	if m.Quantity.IsZero() {
		return Transaction{}, shared.Invalid("quantity", "must not be zero")
	}
	if !shared.FitsScale(m.Quantity, shared.QuantityPlaces) {
		return Transaction{}, shared.Invalid("quantity", "must have at most 4 decimal places")
	}
	if !m.Type.Valid() {
		return Transaction{}, shared.Invalid("type", "is not a known movement type")
	}
	if m.EventID == uuid.Nil {
		m.EventID = uuid.New()
	}
	if m.OccurredAt.IsZero() {
		m.OccurredAt = time.Now().UTC()
	}

	pos, err := tx.LockPosition(ctx, m.WarehouseID, m.ProductID)
	if err != nil {
		return Transaction{}, err
	}
	newQty := pos.Quantity.Add(m.Quantity)
	if m.Quantity.IsNegative() && newQty.IsNegative() && (m.Strict || !policy.AllowNegative) {
		return Transaction{}, shared.InsufficientStock(m.WarehouseID, m.ProductID, pos.Quantity, m.Quantity.Neg())
	}

	pos.Quantity = newQty
	pos.UpdatedAt = m.OccurredAt
	if err := tx.SavePosition(ctx, pos); err != nil {
		return Transaction{}, err
	}

	txn := Transaction{
		OccurredAt:   m.OccurredAt,
		WarehouseID:  m.WarehouseID,
		ProductID:    m.ProductID,
		Type:         m.Type,
		Quantity:     m.Quantity,
		BalanceAfter: newQty,
		EventID:      m.EventID,
		RefModule:    m.RefModule,
		RefID:        m.RefID,
		Note:         m.Note,
		CreatedBy:    m.ActorID,
	}
	id, err := tx.InsertTransaction(ctx, txn)
	if err != nil {
		return Transaction{}, err
	}
	txn.ID = id
	return txn, nil
}
