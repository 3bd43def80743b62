package production

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/textile-erp/internal/inventory"
	"github.com/odyssey-erp/textile-erp/internal/masterdata"
	"github.com/odyssey-erp/textile-erp/internal/platform/db"
	"github.com/odyssey-erp/textile-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrder(ctx context.Context, id int64) (Order, error)
	ListOrders(ctx context.Context, status OrderStatus, limit int) ([]Order, error)
	ListLogs(ctx context.Context, filter LogFilter) ([]Log, error)
}

// Catalog resolves the reference data a conversion points at.
type Catalog interface {
	Product(ctx context.Context, id int64) (masterdata.Product, error)
	Warehouse(ctx context.Context, id int64) (masterdata.Warehouse, error)
	ProductionCenter(ctx context.Context, id int64) (masterdata.ProductionCenter, error)
}

// Service records production and manages production orders.
type Service struct {
	repo            RepositoryPort
	catalog         Catalog
	audit           shared.AuditRecorder
	conflictRetries int
	logger          *slog.Logger
	now             func() time.Time
}

// NewService builds Service. conflictRetries bounds the retries of order
// creation when two orders race for a number.
func NewService(repo RepositoryPort, catalog Catalog, audit shared.AuditRecorder, conflictRetries int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if conflictRetries <= 0 {
		conflictRetries = 3
	}
	return &Service{
		repo:            repo,
		catalog:         catalog,
		audit:           audit,
		conflictRetries: conflictRetries,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// RecordProduction consumes input stock, adds output stock and writes the
// log in one transaction. The input may never go negative.
func (s *Service) RecordProduction(ctx context.Context, input RecordInput) (Log, error) {
	if err := s.validateRecord(ctx, input); err != nil {
		return Log{}, err
	}
	at := s.now()
	date := input.Date
	if date.IsZero() {
		date = at
	}
	entry := Log{
		Date:              date.Truncate(24 * time.Hour),
		CenterID:          input.CenterID,
		InputProductID:    input.InputProductID,
		InputWarehouseID:  input.InputWarehouseID,
		InputQuantity:     input.InputQuantity,
		OutputProductID:   input.OutputProductID,
		OutputWarehouseID: input.OutputWarehouseID,
		OutputQuantity:    input.OutputQuantity,
		RecordedBy:        input.RecordedBy,
		EventID:           uuid.New(),
		CreatedAt:         at,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		stock := tx.Inventory()
		for _, k := range lockOrder(entry) {
			if _, err := stock.LockPosition(ctx, k[0], k[1]); err != nil {
				return err
			}
		}
		if _, err := inventory.Post(ctx, stock, inventory.Movement{
			WarehouseID: entry.InputWarehouseID,
			ProductID:   entry.InputProductID,
			Quantity:    entry.InputQuantity.Neg(),
			Type:        inventory.TypeProductionInput,
			EventID:     entry.EventID,
			RefModule:   "production",
			RefID:       strconv.FormatInt(entry.CenterID, 10),
			ActorID:     entry.RecordedBy,
			OccurredAt:  at,
			Strict:      true,
		}, inventory.Policy{}); err != nil {
			return err
		}
		if _, err := inventory.Post(ctx, stock, inventory.Movement{
			WarehouseID: entry.OutputWarehouseID,
			ProductID:   entry.OutputProductID,
			Quantity:    entry.OutputQuantity,
			Type:        inventory.TypeProductionOutput,
			EventID:     entry.EventID,
			RefModule:   "production",
			RefID:       strconv.FormatInt(entry.CenterID, 10),
			ActorID:     entry.RecordedBy,
			OccurredAt:  at,
			Strict:      true,
		}, inventory.Policy{}); err != nil {
			return err
		}
		var err error
		entry.ID, err = tx.InsertLog(ctx, entry)
		return err
	})
	if err != nil {
		return Log{}, err
	}

	s.logger.Info("production recorded",
		slog.Int64("log_id", entry.ID),
		slog.String("event_id", entry.EventID.String()),
		slog.Int64("center_id", entry.CenterID),
		slog.String("input_quantity", entry.InputQuantity.String()),
		slog.String("output_quantity", entry.OutputQuantity.String()))
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:  entry.RecordedBy,
		Action:   "production:record",
		Entity:   "production_log",
		EntityID: strconv.FormatInt(entry.ID, 10),
		Meta: map[string]any{
			"event_id":          entry.EventID.String(),
			"input_product_id":  entry.InputProductID,
			"input_quantity":    entry.InputQuantity.String(),
			"output_product_id": entry.OutputProductID,
			"output_quantity":   entry.OutputQuantity.String(),
		},
		At: at,
	})
	return entry, nil
}

// lockOrder returns the two positions of a conversion sorted by warehouse
// then product.
func lockOrder(l Log) [][2]int64 {
	a := [2]int64{l.InputWarehouseID, l.InputProductID}
	b := [2]int64{l.OutputWarehouseID, l.OutputProductID}
	if b[0] < a[0] || (b[0] == a[0] && b[1] < a[1]) {
		a, b = b, a
	}
	return [][2]int64{a, b}
}

func (s *Service) validateRecord(ctx context.Context, in RecordInput) error {
	switch {
	case in.CenterID <= 0:
		return shared.Invalid("center_id", "is required")
	case in.InputProductID <= 0:
		return shared.Invalid("input_product_id", "is required")
	case in.InputWarehouseID <= 0:
		return shared.Invalid("input_warehouse_id", "is required")
	case in.OutputProductID <= 0:
		return shared.Invalid("output_product_id", "is required")
	case in.OutputWarehouseID <= 0:
		return shared.Invalid("output_warehouse_id", "is required")
	case !in.InputQuantity.IsPositive():
		return shared.Invalid("input_quantity", "must be greater than zero")
	case !in.OutputQuantity.IsPositive():
		return shared.Invalid("output_quantity", "must be greater than zero")
	case !shared.FitsScale(in.InputQuantity, shared.QuantityPlaces):
		return shared.Invalid("input_quantity", "must have at most 4 decimal places")
	case !shared.FitsScale(in.OutputQuantity, shared.QuantityPlaces):
		return shared.Invalid("output_quantity", "must have at most 4 decimal places")
	case in.InputProductID == in.OutputProductID && in.InputWarehouseID == in.OutputWarehouseID:
		return shared.Invalid("output_product_id", "must differ from the input in the same warehouse")
	}
	if s.catalog == nil {
		return nil
	}
	if _, err := s.catalog.ProductionCenter(ctx, in.CenterID); err != nil {
		return masterdata.Reference(err, "center_id")
	}
	if _, err := s.catalog.Warehouse(ctx, in.InputWarehouseID); err != nil {
		return masterdata.Reference(err, "input_warehouse_id")
	}
	if _, err := s.catalog.Warehouse(ctx, in.OutputWarehouseID); err != nil {
		return masterdata.Reference(err, "output_warehouse_id")
	}
	if _, err := s.catalog.Product(ctx, in.InputProductID); err != nil {
		return masterdata.Reference(err, "input_product_id")
	}
	out, err := s.catalog.Product(ctx, in.OutputProductID)
	if err != nil {
		return masterdata.Reference(err, "output_product_id")
	}
	if !out.Active() {
		return shared.Invalid("output_product_id", "is discontinued")
	}
	return nil
}

// CreateOrder opens a pending production order.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (Order, error) {
	if input.CenterID <= 0 {
		return Order{}, shared.Invalid("center_id", "is required")
	}
	if input.ProductID <= 0 {
		return Order{}, shared.Invalid("product_id", "is required")
	}
	if !input.PlannedQuantity.IsPositive() {
		return Order{}, shared.Invalid("planned_quantity", "must be greater than zero")
	}
	if s.catalog != nil {
		if _, err := s.catalog.ProductionCenter(ctx, input.CenterID); err != nil {
			return Order{}, masterdata.Reference(err, "center_id")
		}
		if _, err := s.catalog.Product(ctx, input.ProductID); err != nil {
			return Order{}, masterdata.Reference(err, "product_id")
		}
	}

	var order Order
	err := db.RetryConflicts(ctx, s.conflictRetries, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			id, err := tx.NextOrderID(ctx)
			if err != nil {
				return err
			}
			at := s.now()
			order = Order{
				ID:              id,
				Number:          FormatOrderNumber(at, id),
				CenterID:        input.CenterID,
				ProductID:       input.ProductID,
				PlannedQuantity: input.PlannedQuantity,
				Status:          OrderPending,
				CreatedBy:       input.CreatedBy,
				CreatedAt:       at,
				UpdatedAt:       at,
			}
			return tx.InsertOrder(ctx, order)
		})
	})
	if err != nil {
		return Order{}, err
	}

	s.logger.Info("production order created",
		slog.Int64("order_id", order.ID),
		slog.String("order_number", order.Number),
		slog.String("planned_quantity", order.PlannedQuantity.String()))
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:  input.CreatedBy,
		Action:   "production:order.create",
		Entity:   "production_order",
		EntityID: strconv.FormatInt(order.ID, 10),
		Meta:     map[string]any{"order_number": order.Number},
		At:       order.CreatedAt,
	})
	return order, nil
}

// TransitionOrder moves an order along pending → in_progress → completed,
// or cancels a pending or running order.
func (s *Service) TransitionOrder(ctx context.Context, input TransitionInput) (Order, error) {
	if input.OrderID <= 0 {
		return Order{}, shared.Invalid("id", "is required")
	}
	if !input.Target.Valid() {
		return Order{}, shared.Invalid("status", "is not a known order status")
	}
	if input.Target == OrderCompleted {
		if !input.ActualQuantity.Valid {
			return Order{}, shared.Invalid("actual_quantity", "is required to complete an order")
		}
		if input.ActualQuantity.Decimal.IsNegative() {
			return Order{}, shared.Invalid("actual_quantity", "must not be negative")
		}
	}

	var (
		order Order
		from  OrderStatus
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		if order, err = tx.LockOrder(ctx, input.OrderID); err != nil {
			return err
		}
		from = order.Status
		if !CanTransition(from, input.Target) {
			return shared.Invalid("status", "cannot move order from "+string(from)+" to "+string(input.Target))
		}
		order.Status = input.Target
		if input.Target == OrderCompleted {
			order.ActualQuantity = decimal.NewNullDecimal(input.ActualQuantity.Decimal)
		}
		order.UpdatedAt = s.now()
		return tx.UpdateOrder(ctx, order)
	})
	if err != nil {
		return Order{}, err
	}

	s.logger.Info("production order transitioned",
		slog.Int64("order_id", order.ID),
		slog.String("from", string(from)),
		slog.String("to", string(order.Status)))
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:  input.ActorID,
		Action:   "production:order." + string(order.Status),
		Entity:   "production_order",
		EntityID: strconv.FormatInt(order.ID, 10),
		Meta:     map[string]any{"from": string(from), "to": string(order.Status)},
		At:       order.UpdatedAt,
	})
	return order, nil
}

// GetOrder returns one production order.
func (s *Service) GetOrder(ctx context.Context, id int64) (Order, error) {
	if id <= 0 {
		return Order{}, shared.Invalid("id", "is required")
	}
	return s.repo.GetOrder(ctx, id)
}

// ListOrders returns production orders, optionally of one status.
func (s *Service) ListOrders(ctx context.Context, status OrderStatus, limit int) ([]Order, error) {
	if status != "" && !status.Valid() {
		return nil, shared.Invalid("status", "is not a known order status")
	}
	return s.repo.ListOrders(ctx, status, clampLimit(limit))
}

// ListLogs returns production logs matching filter.
func (s *Service) ListLogs(ctx context.Context, filter LogFilter) ([]Log, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, shared.Invalid("to", "must not be before from")
	}
	filter.Limit = clampLimit(filter.Limit)
	return s.repo.ListLogs(ctx, filter)
}
