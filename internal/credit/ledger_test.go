package credit

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/textile-erp/internal/shared"
)

type recordingTx struct {
	TxRepository
	inserted Sale
	voided   Status
	locked   Sale
}

func (r *recordingTx) InsertSale(_ context.Context, sale Sale) (int64, error) {
	r.inserted = sale
	return 11, nil
}

func (r *recordingTx) LockSaleByInvoice(context.Context, int64) (Sale, error) {
	return r.locked, nil
}

func (r *recordingTx) UpdateSale(_ context.Context, _ int64, _ decimal.Decimal, status Status, _ time.Time) error {
	r.voided = status
	return nil
}

func TestOpenDerivesDueDate(t *testing.T) {
	tx := &recordingTx{}
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	sale, err := Open(context.Background(), tx, OpenInput{
		InvoiceID: 3, CustomerID: 1, InvoiceDate: date, TotalAmount: decimal.NewFromInt(750000),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), sale.ID)
	assert.Equal(t, date.AddDate(0, 0, 30), tx.inserted.DueDate)
	assert.Equal(t, StatusPending, tx.inserted.Status)
	assert.True(t, tx.inserted.PaidAmount.IsZero())
}

func TestOpenRejectsZeroTotal(t *testing.T) {
	_, err := Open(context.Background(), &recordingTx{}, OpenInput{InvoiceID: 3, CustomerID: 1, TotalAmount: decimal.Zero})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestVoidRefusesPaidCredit(t *testing.T) {
	tx := &recordingTx{locked: Sale{ID: 1, InvoiceID: 3, TotalAmount: decimal.NewFromInt(10), PaidAmount: decimal.NewFromInt(1), Status: StatusPartial}}
	_, err := Void(context.Background(), tx, 3, time.Now())
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, tx.voided)

	tx.locked.PaidAmount = decimal.Zero
	tx.locked.Status = StatusPending
	sale, err := Void(context.Background(), tx, 3, time.Now())
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, sale.Status)
	assert.Equal(t, StatusCancelled, tx.voided)
}

func TestSettlementStatus(t *testing.T) {
	total := decimal.RequireFromString("250.00")
	assert.Equal(t, StatusPaid, SettlementStatus(total, decimal.RequireFromString("250.00")))
	assert.Equal(t, StatusPaid, SettlementStatus(total, decimal.RequireFromString("249.99")))
	assert.Equal(t, StatusPartial, SettlementStatus(total, decimal.RequireFromString("249.98")))
	assert.Equal(t, StatusPending, SettlementStatus(total, decimal.Zero))
}

func TestBuildAgingSkipsSettledSales(t *testing.T) {
	asOf := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	report := BuildAging([]Sale{
		{DueDate: asOf.AddDate(0, 0, -31), TotalAmount: decimal.NewFromInt(80), PaidAmount: decimal.NewFromInt(20), Status: StatusPartial},
		{DueDate: asOf.AddDate(0, 0, -31), TotalAmount: decimal.NewFromInt(80), PaidAmount: decimal.Zero, Status: StatusCancelled},
		{DueDate: asOf, TotalAmount: decimal.NewFromInt(5), PaidAmount: decimal.Zero, Status: StatusPending},
	}, asOf)
	assert.True(t, report.Days31To60.Equal(decimal.NewFromInt(60)))
	assert.True(t, report.Current.Equal(decimal.NewFromInt(5)))
	assert.True(t, report.Total.Equal(decimal.NewFromInt(65)))
}
