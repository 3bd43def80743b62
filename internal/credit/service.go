package credit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/textile-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetSale(ctx context.Context, id int64) (Sale, error)
	ListPayments(ctx context.Context, creditID int64) ([]Payment, error)
	ListOutstanding(ctx context.Context, customerID int64) ([]Sale, error)
	Reconcile(ctx context.Context) ([]Discrepancy, error)
}

// Service records payments against credit sales.
type Service struct {
	repo   RepositoryPort
	audit  shared.AuditRecorder
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// RecordPayment settles part or all of a credit sale and mirrors the result
// onto its invoice in one transaction.
func (s *Service) RecordPayment(ctx context.Context, input PaymentInput) (PaymentResult, error) {
	if input.PaidAt.IsZero() {
		input.PaidAt = s.now()
	}
	var result PaymentResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		result, err = Settle(ctx, tx, input)
		return err
	})
	if err != nil {
		return PaymentResult{}, err
	}

	s.logger.Info("credit payment recorded",
		slog.Int64("credit_id", result.Sale.ID),
		slog.Int64("invoice_id", result.Sale.InvoiceID),
		slog.Int64("payment_id", result.Payment.ID),
		slog.String("amount", result.Payment.Amount.StringFixed(2)),
		slog.String("status", string(result.Sale.Status)))
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:  input.RecordedBy,
		Action:   "credit:payment",
		Entity:   "credit_sale",
		EntityID: strconv.FormatInt(result.Sale.ID, 10),
		Meta: map[string]any{
			"payment_id": result.Payment.ID,
			"amount":     result.Payment.Amount.StringFixed(2),
			"method":     result.Payment.Method,
			"status":     string(result.Sale.Status),
		},
		At: result.Payment.PaidAt,
	})
	return result, nil
}

// GetCredit returns a credit sale with its payments.
func (s *Service) GetCredit(ctx context.Context, id int64) (Sale, error) {
	if id <= 0 {
		return Sale{}, shared.Invalid("id", "is required")
	}
	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return Sale{}, err
	}
	if sale.Payments, err = s.repo.ListPayments(ctx, id); err != nil {
		return Sale{}, err
	}
	return sale, nil
}

// ListOutstanding returns unsettled credit sales of one customer, or of all
// customers when customerID is zero.
func (s *Service) ListOutstanding(ctx context.Context, customerID int64) ([]Sale, error) {
	if customerID < 0 {
		return nil, shared.Invalid("customer_id", "must be positive")
	}
	return s.repo.ListOutstanding(ctx, customerID)
}

// Aging buckets outstanding balances by days past their due date.
func (s *Service) Aging(ctx context.Context, asOf time.Time) (AgingReport, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	sales, err := s.repo.ListOutstanding(ctx, 0)
	if err != nil {
		return AgingReport{}, fmt.Errorf("credit: aging: %w", err)
	}
	return BuildAging(sales, asOf), nil
}

// BuildAging folds sales into an AgingReport as of asOf.
func BuildAging(sales []Sale, asOf time.Time) AgingReport {
	report := AgingReport{
		AsOf:       asOf,
		Current:    decimal.Zero,
		Days1To30:  decimal.Zero,
		Days31To60: decimal.Zero,
		Days61To90: decimal.Zero,
		Over90:     decimal.Zero,
		Total:      decimal.Zero,
	}
	for _, sale := range sales {
		if sale.Status == StatusCancelled || sale.Status == StatusPaid {
			continue
		}
		balance := sale.Balance()
		if !balance.IsPositive() {
			continue
		}
		days := int(asOf.Sub(sale.DueDate).Hours() / 24)
		switch {
		case days <= 0:
			report.Current = report.Current.Add(balance)
		case days <= 30:
			report.Days1To30 = report.Days1To30.Add(balance)
		case days <= 60:
			report.Days31To60 = report.Days31To60.Add(balance)
		case days <= 90:
			report.Days61To90 = report.Days61To90.Add(balance)
		default:
			report.Over90 = report.Over90.Add(balance)
		}
		report.Total = report.Total.Add(balance)
	}
	return report
}

// Reconcile lists credit sales whose bookkeeping disagrees.
func (s *Service) Reconcile(ctx context.Context) ([]Discrepancy, error) {
	out, err := s.repo.Reconcile(ctx)
	if err != nil {
		return nil, fmt.Errorf("credit: reconcile: %w", err)
	}
	return out, nil
}
