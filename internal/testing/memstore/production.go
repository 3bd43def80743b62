package memstore

import (
	"context"

	"github.com/odyssey-erp/textile-erp/internal/inventory"
	"github.com/odyssey-erp/textile-erp/internal/production"
	"github.com/odyssey-erp/textile-erp/internal/shared"
)

// ProductionRepo implements production.RepositoryPort.
type ProductionRepo struct{ s *Store }

// Production returns the production view of the store.
func (s *Store) Production() *ProductionRepo { return &ProductionRepo{s: s} }

type productionTx struct{ s *Store }

func (r *ProductionRepo) WithTx(ctx context.Context, fn func(context.Context, production.TxRepository) error) error {
	return r.s.withTx(ctx, func(ctx context.Context) error {
		return fn(ctx, &productionTx{s: r.s})
	})
}

func (t *productionTx) Inventory() inventory.TxRepository { return &inventoryTx{s: t.s} }

func (t *productionTx) InsertLog(_ context.Context, l production.Log) (int64, error) {
	if err := t.s.injected("production.InsertLog"); err != nil {
		return 0, err
	}
	for _, existing := range t.s.data.logs {
		if existing.EventID == l.EventID {
			return 0, &shared.ConflictError{Reason: "production_logs_event_id_key"}
		}
	}
	l.ID = t.s.next("production_logs")
	t.s.data.logs = append(t.s.data.logs, l)
	return l.ID, nil
}

func (t *productionTx) NextOrderID(context.Context) (int64, error) {
	return t.s.next("production_orders"), nil
}

func (t *productionTx) InsertOrder(_ context.Context, o production.Order) error {
	if err := t.s.injected("production.InsertOrder"); err != nil {
		return err
	}
	for _, existing := range t.s.data.orders {
		if existing.Number == o.Number {
			return &shared.ConflictError{Reason: "production_orders_number_key"}
		}
	}
	t.s.data.orders[o.ID] = o
	return nil
}

func (t *productionTx) LockOrder(_ context.Context, id int64) (production.Order, error) {
	o, ok := t.s.data.orders[id]
	if !ok {
		return production.Order{}, shared.NotFound("production order", id)
	}
	return o, nil
}

func (t *productionTx) UpdateOrder(_ context.Context, o production.Order) error {
	if err := t.s.injected("production.UpdateOrder"); err != nil {
		return err
	}
	if _, ok := t.s.data.orders[o.ID]; !ok {
		return shared.NotFound("production order", o.ID)
	}
	t.s.data.orders[o.ID] = o
	return nil
}

func (r *ProductionRepo) GetOrder(_ context.Context, id int64) (production.Order, error) {
	defer r.s.read()()
	o, ok := r.s.data.orders[id]
	if !ok {
		return production.Order{}, shared.NotFound("production order", id)
	}
	return o, nil
}

func (r *ProductionRepo) ListOrders(_ context.Context, status production.OrderStatus, limit int) ([]production.Order, error) {
	defer r.s.read()()
	ids := sortedKeys(r.s.data.orders)
	var out []production.Order
	for i := len(ids) - 1; i >= 0; i-- {
		o := r.s.data.orders[ids[i]]
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, o)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *ProductionRepo) ListLogs(_ context.Context, f production.LogFilter) ([]production.Log, error) {
	defer r.s.read()()
	var out []production.Log
	for i := len(r.s.data.logs) - 1; i >= 0; i-- {
		l := r.s.data.logs[i]
		switch {
		case f.CenterID > 0 && l.CenterID != f.CenterID,
			!f.From.IsZero() && l.Date.Before(f.From),
			!f.To.IsZero() && l.Date.After(f.To):
			continue
		}
		out = append(out, l)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

var _ production.RepositoryPort = (*ProductionRepo)(nil)
