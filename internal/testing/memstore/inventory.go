package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/textile-erp/internal/inventory"
	"github.com/odyssey-erp/textile-erp/internal/shared"
)

// InventoryRepo implements inventory.RepositoryPort.
type InventoryRepo struct{ s *Store }

// Inventory returns the stock ledger view of the store.
func (s *Store) Inventory() *InventoryRepo { return &InventoryRepo{s: s} }

type inventoryTx struct{ s *Store }

func (r *InventoryRepo) WithTx(ctx context.Context, fn func(context.Context, inventory.TxRepository) error) error {
	return r.s.withTx(ctx, func(ctx context.Context) error {
		return fn(ctx, &inventoryTx{s: r.s})
	})
}

func (t *inventoryTx) LockPosition(_ context.Context, warehouseID, productID int64) (inventory.Position, error) {
	if err := t.s.injected("inventory.LockPosition"); err != nil {
		return inventory.Position{}, err
	}
	key := posKey{warehouseID, productID}
	pos, ok := t.s.data.positions[key]
	if !ok {
		pos = inventory.Position{WarehouseID: warehouseID, ProductID: productID, Quantity: decimal.Zero}
		t.s.data.positions[key] = pos
	}
	return pos, nil
}

func (t *inventoryTx) SavePosition(_ context.Context, pos inventory.Position) error {
	if err := t.s.injected("inventory.SavePosition"); err != nil {
		return err
	}
	t.s.data.positions[posKey{pos.WarehouseID, pos.ProductID}] = pos
	return nil
}

func (t *inventoryTx) InsertTransaction(_ context.Context, txn inventory.Transaction) (int64, error) {
	if err := t.s.injected("inventory.InsertTransaction"); err != nil {
		return 0, err
	}
	if txn.Quantity.IsZero() {
		return 0, shared.Invalid("quantity", "violates stock_transactions_quantity_check")
	}
	txn.ID = t.s.next("stock_transactions")
	t.s.data.txns = append(t.s.data.txns, txn)
	return txn.ID, nil
}

func (r *InventoryRepo) GetPosition(_ context.Context, warehouseID, productID int64) (inventory.Position, error) {
	defer r.s.read()()
	pos, ok := r.s.data.positions[posKey{warehouseID, productID}]
	if !ok {
		return inventory.Position{}, shared.NotFound("inventory position", productID)
	}
	return pos, nil
}

func (r *InventoryRepo) ListPositions(_ context.Context, warehouseID int64) ([]inventory.Position, error) {
	defer r.s.read()()
	var out []inventory.Position
	for _, pos := range r.s.data.positions {
		if warehouseID > 0 && pos.WarehouseID != warehouseID {
			continue
		}
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WarehouseID != out[j].WarehouseID {
			return out[i].WarehouseID < out[j].WarehouseID
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}

func (r *InventoryRepo) ListTransactions(_ context.Context, f inventory.TransactionFilter) ([]inventory.Transaction, error) {
	defer r.s.read()()
	var out []inventory.Transaction
	for _, t := range r.s.data.txns {
		switch {
		case f.WarehouseID > 0 && t.WarehouseID != f.WarehouseID,
			f.ProductID > 0 && t.ProductID != f.ProductID,
			f.EventID != uuid.Nil && t.EventID != f.EventID,
			!f.From.IsZero() && t.OccurredAt.Before(f.From),
			!f.To.IsZero() && t.OccurredAt.After(f.To):
			continue
		}
		out = append(out, t)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (r *InventoryRepo) Reconcile(context.Context) ([]inventory.Discrepancy, error) {
	defer r.s.read()()
	sums := map[posKey]decimal.Decimal{}
	for _, t := range r.s.data.txns {
		k := posKey{t.WarehouseID, t.ProductID}
		sums[k] = sums[k].Add(t.Quantity)
	}
	keys := map[posKey]struct{}{}
	for k := range sums {
		keys[k] = struct{}{}
	}
	for k := range r.s.data.positions {
		keys[k] = struct{}{}
	}
	var out []inventory.Discrepancy
	for k := range keys {
		qty := r.s.data.positions[k].Quantity
		if !qty.Equal(sums[k]) {
			out = append(out, inventory.Discrepancy{WarehouseID: k.warehouseID, ProductID: k.productID, Position: qty, LedgerSum: sums[k]})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WarehouseID != out[j].WarehouseID {
			return out[i].WarehouseID < out[j].WarehouseID
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}

// CorruptPosition overwrites a position outside the ledger so reconciliation
// has something to find.
func (s *Store) CorruptPosition(warehouseID, productID int64, qty decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := posKey{warehouseID, productID}
	pos := s.data.positions[key]
	pos.WarehouseID, pos.ProductID, pos.Quantity = warehouseID, productID, qty
	s.data.positions[key] = pos
}

var _ inventory.RepositoryPort = (*InventoryRepo)(nil)
