package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/textile-erp/internal/masterdata"
	"github.com/odyssey-erp/textile-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetPosition(ctx context.Context, warehouseID, productID int64) (Position, error)
	ListPositions(ctx context.Context, warehouseID int64) ([]Position, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error)
	Reconcile(ctx context.Context) ([]Discrepancy, error)
}

// Catalog resolves the products and warehouses a movement references.
type Catalog interface {
	Product(ctx context.Context, id int64) (masterdata.Product, error)
	Warehouse(ctx context.Context, id int64) (masterdata.Warehouse, error)
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	AllowNegativeStock bool
}

// Service coordinates inventory operations.
type Service struct {
	repo    RepositoryPort
	catalog Catalog
	audit   shared.AuditRecorder
	policy  Policy
	logger  *slog.Logger
	now     func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, catalog Catalog, audit shared.AuditRecorder, cfg ServiceConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		catalog: catalog,
		audit:   audit,
		policy:  Policy{AllowNegative: cfg.AllowNegativeStock},
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Policy returns the negative stock policy applied to non-strict deductions.
func (s *Service) Policy() Policy { return s.policy }

// Adjust receives stock into or writes stock off a warehouse.
func (s *Service) Adjust(ctx context.Context, input AdjustInput) (Transaction, error) {
	if !input.Quantity.IsPositive() {
		return Transaction{}, shared.Invalid("quantity", "must be greater than zero")
	}
	var (
		delta = input.Quantity
		typ   TransactionType
	)
	switch input.Direction {
	case DirectionIn:
		typ = TypeReceipt
	case DirectionOut:
		typ = TypeAdjustment
		delta = delta.Neg()
	default:
		return Transaction{}, shared.Invalid("direction", "must be in or out")
	}
	if err := s.checkWarehouse(ctx, "warehouse_id", input.WarehouseID); err != nil {
		return Transaction{}, err
	}
	if err := s.checkProduct(ctx, input.ProductID, input.Direction == DirectionIn); err != nil {
		return Transaction{}, err
	}

	var txn Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		txn, err = Post(ctx, tx, Movement{
			WarehouseID: input.WarehouseID,
			ProductID:   input.ProductID,
			Quantity:    delta,
			Type:        typ,
			RefModule:   "inventory",
			Note:        input.Note,
			ActorID:     input.ActorID,
			OccurredAt:  s.now(),
		}, s.policy)
		return err
	})
	if err != nil {
		return Transaction{}, err
	}

	s.logger.Info("stock adjusted",
		slog.Int64("transaction_id", txn.ID),
		slog.Int64("warehouse_id", txn.WarehouseID),
		slog.Int64("product_id", txn.ProductID),
		slog.String("type", string(txn.Type)),
		slog.String("quantity", txn.Quantity.String()),
		slog.String("balance_after", txn.BalanceAfter.String()))
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:  input.ActorID,
		Action:   "inventory:" + string(typ),
		Entity:   "stock_transaction",
		EntityID: strconv.FormatInt(txn.ID, 10),
		Meta: map[string]any{
			"warehouse_id": txn.WarehouseID,
			"product_id":   txn.ProductID,
			"quantity":     txn.Quantity.String(),
			"note":         input.Note,
		},
		At: txn.OccurredAt,
	})
	return txn, nil
}

// Transfer moves stock between two warehouses in one transaction. The source
// may never go negative.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (TransferResult, error) {
	if input.FromWarehouseID == input.ToWarehouseID {
		return TransferResult{}, shared.Invalid("to_warehouse_id", "must differ from from_warehouse_id")
	}
	if !input.Quantity.IsPositive() {
		return TransferResult{}, shared.Invalid("quantity", "must be greater than zero")
	}
	if err := s.checkWarehouse(ctx, "from_warehouse_id", input.FromWarehouseID); err != nil {
		return TransferResult{}, err
	}
	if err := s.checkWarehouse(ctx, "to_warehouse_id", input.ToWarehouseID); err != nil {
		return TransferResult{}, err
	}
	if err := s.checkProduct(ctx, input.ProductID, false); err != nil {
		return TransferResult{}, err
	}

	result := TransferResult{EventID: uuid.New()}
	at := s.now()
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		// Lock both positions in warehouse order so opposite transfers
		// cannot deadlock.
		first, second := input.FromWarehouseID, input.ToWarehouseID
		if second < first {
			first, second = second, first
		}
		for _, wh := range []int64{first, second} {
			if _, err := tx.LockPosition(ctx, wh, input.ProductID); err != nil {
				return err
			}
		}
		var err error
		result.Out, err = Post(ctx, tx, Movement{
			WarehouseID: input.FromWarehouseID,
			ProductID:   input.ProductID,
			Quantity:    input.Quantity.Neg(),
			Type:        TypeTransferOut,
			EventID:     result.EventID,
			RefModule:   "inventory",
			RefID:       strconv.FormatInt(input.ToWarehouseID, 10),
			Note:        input.Note,
			ActorID:     input.ActorID,
			OccurredAt:  at,
			Strict:      true,
		}, s.policy)
		if err != nil {
			return err
		}
		result.In, err = Post(ctx, tx, Movement{
			WarehouseID: input.ToWarehouseID,
			ProductID:   input.ProductID,
			Quantity:    input.Quantity,
			Type:        TypeTransferIn,
			EventID:     result.EventID,
			RefModule:   "inventory",
			RefID:       strconv.FormatInt(input.FromWarehouseID, 10),
			Note:        input.Note,
			ActorID:     input.ActorID,
			OccurredAt:  at,
			Strict:      true,
		}, s.policy)
		return err
	})
	if err != nil {
		return TransferResult{}, err
	}

	s.logger.Info("stock transferred",
		slog.String("event_id", result.EventID.String()),
		slog.Int64("product_id", input.ProductID),
		slog.Int64("from_warehouse_id", input.FromWarehouseID),
		slog.Int64("to_warehouse_id", input.ToWarehouseID),
		slog.String("quantity", input.Quantity.String()))
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:  input.ActorID,
		Action:   "inventory:transfer",
		Entity:   "stock_transfer",
		EntityID: result.EventID.String(),
		Meta: map[string]any{
			"product_id":        input.ProductID,
			"from_warehouse_id": input.FromWarehouseID,
			"to_warehouse_id":   input.ToWarehouseID,
			"quantity":          input.Quantity.String(),
		},
		At: at,
	})
	return result, nil
}

// GetPosition returns the quantity on hand of one product in one warehouse.
func (s *Service) GetPosition(ctx context.Context, warehouseID, productID int64) (Position, error) {
	if warehouseID <= 0 || productID <= 0 {
		return Position{}, shared.Invalid("position", "warehouse and product are required")
	}
	return s.repo.GetPosition(ctx, warehouseID, productID)
}

// ListPositions returns every position, or those of one warehouse.
func (s *Service) ListPositions(ctx context.Context, warehouseID int64) ([]Position, error) {
	return s.repo.ListPositions(ctx, warehouseID)
}

// ListTransactions returns ledger rows matching filter.
func (s *Service) ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, shared.Invalid("to", "must not be before from")
	}
	filter.Limit = clampLimit(filter.Limit)
	return s.repo.ListTransactions(ctx, filter)
}

// Reconcile lists positions that disagree with their ledger.
func (s *Service) Reconcile(ctx context.Context) ([]Discrepancy, error) {
	out, err := s.repo.Reconcile(ctx)
	if err != nil {
		return nil, fmt.Errorf("inventory: reconcile: %w", err)
	}
	return out, nil
}

func (s *Service) checkWarehouse(ctx context.Context, field string, id int64) error {
	if id <= 0 {
		return shared.Invalid(field, "is required")
	}
	if s.catalog == nil {
		return nil
	}
	_, err := s.catalog.Warehouse(ctx, id)
	return masterdata.Reference(err, field)
}

// checkProduct rejects unknown products. Discontinued products may still be
// moved out or transferred but never received.
func (s *Service) checkProduct(ctx context.Context, id int64, receiving bool) error {
	if id <= 0 {
		return shared.Invalid("product_id", "is required")
	}
	if s.catalog == nil {
		return nil
	}
	p, err := s.catalog.Product(ctx, id)
	if err != nil {
		return masterdata.Reference(err, "product_id")
	}
	if receiving && !p.Active() {
		return shared.Invalid("product_id", "is discontinued")
	}
	return nil
}
