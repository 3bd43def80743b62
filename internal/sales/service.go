package sales

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/textile-erp/internal/credit"
	"github.com/odyssey-erp/textile-erp/internal/inventory"
	"github.com/odyssey-erp/textile-erp/internal/masterdata"
	"github.com/odyssey-erp/textile-erp/internal/platform/db"
	"github.com/odyssey-erp/textile-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetInvoice(ctx context.Context, id int64) (Invoice, error)
	ListLines(ctx context.Context, invoiceID int64) ([]Line, error)
	ListInvoices(ctx context.Context, filter ListFilter) ([]Invoice, error)
}

// Catalog resolves the reference data an invoice points at.
type Catalog interface {
	Customer(ctx context.Context, id int64) (masterdata.Customer, error)
	Branch(ctx context.Context, id int64) (masterdata.Branch, error)
	Product(ctx context.Context, id int64) (masterdata.Product, error)
	Warehouse(ctx context.Context, id int64) (masterdata.Warehouse, error)
}

// ServiceConfig groups invoice settings.
type ServiceConfig struct {
	DefaultWarehouseID int64
	CreditTermDays     int
	ConflictRetries    int
	StockPolicy        inventory.Policy
}

// Service issues and cancels sales invoices.
type Service struct {
	repo    RepositoryPort
	catalog Catalog
	audit   shared.AuditRecorder
	cfg     ServiceConfig
	logger  *slog.Logger
	now     func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, catalog Catalog, audit shared.AuditRecorder, cfg ServiceConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultWarehouseID <= 0 {
		cfg.DefaultWarehouseID = 1
	}
	if cfg.CreditTermDays <= 0 {
		cfg.CreditTermDays = credit.DefaultTermDays
	}
	if cfg.ConflictRetries <= 0 {
		cfg.ConflictRetries = 3
	}
	return &Service{
		repo:    repo,
		catalog: catalog,
		audit:   audit,
		cfg:     cfg,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateInvoice issues an invoice, deducts the sold stock and, for credit
// sales, opens the receivable. Everything commits together or not at all.
func (s *Service) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (CreateInvoiceResult, error) {
	lines, total, err := s.validateInvoice(ctx, input)
	if err != nil {
		return CreateInvoiceResult{}, err
	}
	key := strings.TrimSpace(input.IdempotencyKey)

	var result CreateInvoiceResult
	err = db.RetryConflicts(ctx, s.cfg.ConflictRetries, func(ctx context.Context) error {
		result = CreateInvoiceResult{}
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			var err error
			result, err = s.issue(ctx, tx, input, key, lines, total)
			return err
		})
	})
	if err != nil {
		return CreateInvoiceResult{}, err
	}

	s.logger.Info("sales invoice issued",
		slog.Int64("invoice_id", result.InvoiceID),
		slog.String("invoice_number", result.InvoiceNumber),
		slog.Int64("customer_id", input.CustomerID),
		slog.String("payment_method", string(input.PaymentMethod)),
		slog.String("total_amount", total.StringFixed(2)))
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:  input.IssuedBy,
		Action:   "sales:invoice.create",
		Entity:   "sales_invoice",
		EntityID: strconv.FormatInt(result.InvoiceID, 10),
		Meta: map[string]any{
			"invoice_number": result.InvoiceNumber,
			"customer_id":    input.CustomerID,
			"payment_method": string(input.PaymentMethod),
			"total_amount":   total.StringFixed(2),
			"lines":          len(lines),
		},
	})
	return result, nil
}

func (s *Service) issue(ctx context.Context, tx TxRepository, input CreateInvoiceInput, key string, lines []Line, total decimal.Decimal) (CreateInvoiceResult, error) {
	if key != "" {
		if err := tx.ClaimIdempotencyKey(ctx, key); err != nil {
			return CreateInvoiceResult{}, err
		}
	}
	id, err := tx.NextInvoiceID(ctx)
	if err != nil {
		return CreateInvoiceResult{}, err
	}
	at := s.now()
	inv := Invoice{
		ID:            id,
		Number:        FormatInvoiceNumber(at, id),
		Date:          at.Truncate(24 * time.Hour),
		BranchID:      input.BranchID,
		CustomerID:    input.CustomerID,
		WarehouseID:   s.cfg.DefaultWarehouseID,
		PaymentMethod: input.PaymentMethod,
		TotalAmount:   total,
		PaidAmount:    decimal.Zero,
		Status:        StatusPending,
		IssuedBy:      input.IssuedBy,
		CreatedAt:     at,
		UpdatedAt:     at,
	}
	if input.PaymentMethod == PaymentCash {
		inv.PaidAmount = total
		inv.Status = StatusPaid
	}
	if err := tx.InsertInvoice(ctx, inv); err != nil {
		return CreateInvoiceResult{}, err
	}

	eventID := uuid.New()
	for _, line := range lines {
		line.InvoiceID = id
		if _, err := tx.InsertLine(ctx, line); err != nil {
			return CreateInvoiceResult{}, err
		}
		if _, err := inventory.Post(ctx, tx.Inventory(), inventory.Movement{
			WarehouseID: inv.WarehouseID,
			ProductID:   line.ProductID,
			Quantity:    line.Quantity.Neg(),
			Type:        inventory.TypeSale,
			EventID:     eventID,
			RefModule:   "sales",
			RefID:       inv.Number,
			ActorID:     input.IssuedBy,
			OccurredAt:  at,
		}, s.cfg.StockPolicy); err != nil {
			return CreateInvoiceResult{}, err
		}
	}

	result := CreateInvoiceResult{InvoiceID: id, InvoiceNumber: inv.Number}
	if input.PaymentMethod == PaymentCredit {
		sale, err := credit.Open(ctx, tx.Credit(), credit.OpenInput{
			InvoiceID:   id,
			CustomerID:  input.CustomerID,
			InvoiceDate: inv.Date,
			TotalAmount: total,
			TermDays:    s.cfg.CreditTermDays,
		})
		if err != nil {
			return CreateInvoiceResult{}, err
		}
		result.CreditID = sale.ID
	}
	return result, nil
}

func (s *Service) validateInvoice(ctx context.Context, input CreateInvoiceInput) ([]Line, decimal.Decimal, error) {
	if !input.PaymentMethod.Valid() {
		return nil, decimal.Zero, shared.Invalid("payment_method", "must be cash or credit")
	}
	if len(input.Items) == 0 {
		return nil, decimal.Zero, shared.Invalid("items", "must not be empty")
	}
	if input.CustomerID <= 0 {
		return nil, decimal.Zero, shared.Invalid("customer_id", "is required")
	}
	if input.BranchID <= 0 {
		return nil, decimal.Zero, shared.Invalid("branch_id", "is required")
	}

	lines := make([]Line, 0, len(input.Items))
	total := decimal.Zero
	for i, item := range input.Items {
		field := fmt.Sprintf("items[%d]", i)
		if item.ProductID <= 0 {
			return nil, decimal.Zero, shared.Invalid(field+".product_id", "is required")
		}
		if !item.Quantity.IsPositive() {
			return nil, decimal.Zero, shared.Invalid(field+".quantity", "must be greater than zero")
		}
		if !shared.FitsScale(item.Quantity, shared.QuantityPlaces) {
			return nil, decimal.Zero, shared.Invalid(field+".quantity", "must have at most 4 decimal places")
		}
		if item.Price.IsNegative() {
			return nil, decimal.Zero, shared.Invalid(field+".price", "must not be negative")
		}
		if !shared.FitsScale(item.Price, shared.AmountPlaces) {
			return nil, decimal.Zero, shared.Invalid(field+".price", "must have at most 2 decimal places")
		}
		// Exact at 6 decimals, the scale of line_total and total_amount.
		lineTotal := item.Quantity.Mul(item.Price)
		lines = append(lines, Line{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
			LineTotal: lineTotal,
		})
		total = total.Add(lineTotal)
	}

	if s.catalog == nil {
		return lines, total, nil
	}
	customer, err := s.catalog.Customer(ctx, input.CustomerID)
	if err != nil {
		return nil, decimal.Zero, masterdata.Reference(err, "customer_id")
	}
	if !customer.Active() {
		return nil, decimal.Zero, shared.Invalid("customer_id", "is inactive")
	}
	if _, err := s.catalog.Branch(ctx, input.BranchID); err != nil {
		return nil, decimal.Zero, masterdata.Reference(err, "branch_id")
	}
	if _, err := s.catalog.Warehouse(ctx, s.cfg.DefaultWarehouseID); err != nil {
		return nil, decimal.Zero, fmt.Errorf("sales: default warehouse %d: %w", s.cfg.DefaultWarehouseID, err)
	}
	for i, line := range lines {
		field := fmt.Sprintf("items[%d].product_id", i)
		product, err := s.catalog.Product(ctx, line.ProductID)
		if err != nil {
			return nil, decimal.Zero, masterdata.Reference(err, field)
		}
		if !product.Active() {
			return nil, decimal.Zero, shared.Invalid(field, "is discontinued")
		}
	}
	return lines, total, nil
}

// CancelInvoice voids an unpaid credit invoice and returns its stock.
func (s *Service) CancelInvoice(ctx context.Context, id, actorID int64) (Invoice, error) {
	if id <= 0 {
		return Invoice{}, shared.Invalid("id", "is required")
	}
	at := s.now()
	var inv Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		if inv, err = tx.LockInvoice(ctx, id); err != nil {
			return err
		}
		if inv.Status == StatusCancelled {
			return shared.Invalid("id", "invoice is already cancelled")
		}
		if inv.Status != StatusPending || !inv.PaidAmount.IsZero() {
			return shared.Invalid("id", "only unpaid credit invoices can be cancelled")
		}
		if inv.Lines, err = tx.ListLines(ctx, id); err != nil {
			return err
		}
		eventID := uuid.New()
		for _, line := range inv.Lines {
			if _, err := inventory.Post(ctx, tx.Inventory(), inventory.Movement{
				WarehouseID: inv.WarehouseID,
				ProductID:   line.ProductID,
				Quantity:    line.Quantity,
				Type:        inventory.TypeSaleReturn,
				EventID:     eventID,
				RefModule:   "sales",
				RefID:       inv.Number,
				Note:        "invoice cancelled",
				ActorID:     actorID,
				OccurredAt:  at,
			}, s.cfg.StockPolicy); err != nil {
				return err
			}
		}
		if inv.PaymentMethod == PaymentCredit {
			if _, err := credit.Void(ctx, tx.Credit(), id, at); err != nil {
				return err
			}
		}
		if err := tx.UpdateInvoiceStatus(ctx, id, StatusCancelled, at); err != nil {
			return err
		}
		inv.Status = StatusCancelled
		inv.UpdatedAt = at
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}

	s.logger.Info("sales invoice cancelled",
		slog.Int64("invoice_id", inv.ID),
		slog.String("invoice_number", inv.Number),
		slog.Int("lines_restocked", len(inv.Lines)))
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:  actorID,
		Action:   "sales:invoice.cancel",
		Entity:   "sales_invoice",
		EntityID: strconv.FormatInt(inv.ID, 10),
		Meta:     map[string]any{"invoice_number": inv.Number},
		At:       at,
	})
	return inv, nil
}

// GetInvoice returns an invoice with its lines.
func (s *Service) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	if id <= 0 {
		return Invoice{}, shared.Invalid("id", "is required")
	}
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	if inv.Lines, err = s.repo.ListLines(ctx, id); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// ListInvoices returns invoice headers matching filter.
func (s *Service) ListInvoices(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	switch filter.Status {
	case "", StatusPaid, StatusPending, StatusPartial, StatusCancelled:
	default:
		return nil, shared.Invalid("status", "is not a known invoice status")
	}
	filter.Limit = clampLimit(filter.Limit)
	return s.repo.ListInvoices(ctx, filter)
}
