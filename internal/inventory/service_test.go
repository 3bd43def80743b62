package inventory_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/textile-erp/internal/inventory"
	"github.com/odyssey-erp/textile-erp/internal/shared"
	"github.com/odyssey-erp/textile-erp/internal/testing/memstore"
)

func qty(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func newService(t *testing.T, cfg inventory.ServiceConfig) (*inventory.Service, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	store.SeedTextile()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return inventory.NewService(store.Inventory(), store.Catalog(), store, cfg, logger), store
}

func receive(t *testing.T, svc *inventory.Service, warehouseID, productID int64, q string) {
	t.Helper()
	_, err := svc.Adjust(context.Background(), inventory.AdjustInput{
		ProductID: productID, WarehouseID: warehouseID, Quantity: qty(q), Direction: inventory.DirectionIn, ActorID: 7,
	})
	require.NoError(t, err)
}

func TestAdjustInCreatesPositionAndLedgerRow(t *testing.T) {
	svc, store := newService(t, inventory.ServiceConfig{})
	ctx := context.Background()

	txn, err := svc.Adjust(ctx, inventory.AdjustInput{
		ProductID: 1, WarehouseID: 1, Quantity: qty("100"), Direction: inventory.DirectionIn, Note: "GRN 12", ActorID: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, inventory.TypeReceipt, txn.Type)
	assert.True(t, txn.Quantity.Equal(qty("100")))
	assert.True(t, txn.BalanceAfter.Equal(qty("100")))
	assert.Equal(t, int64(7), txn.CreatedBy)

	pos, err := svc.GetPosition(ctx, 1, 1)
	require.NoError(t, err)
	assert.True(t, pos.Quantity.Equal(qty("100")))

	logs := store.AuditLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, "inventory:receipt", logs[0].Action)
}

func TestAdjustOutWritesNegativeDelta(t *testing.T) {
	svc, _ := newService(t, inventory.ServiceConfig{})
	receive(t, svc, 1, 1, "50")

	txn, err := svc.Adjust(context.Background(), inventory.AdjustInput{
		ProductID: 1, WarehouseID: 1, Quantity: qty("12.5"), Direction: inventory.DirectionOut,
	})
	require.NoError(t, err)
	assert.Equal(t, inventory.TypeAdjustment, txn.Type)
	assert.True(t, txn.Quantity.Equal(qty("-12.5")))
	assert.True(t, txn.BalanceAfter.Equal(qty("37.5")))
}

func TestAdjustOutFollowsNegativeStockPolicy(t *testing.T) {
	t.Run("rejected by default", func(t *testing.T) {
		svc, store := newService(t, inventory.ServiceConfig{})
		assert.False(t, svc.Policy().AllowNegative)
		receive(t, svc, 1, 1, "5")

		_, err := svc.Adjust(context.Background(), inventory.AdjustInput{
			ProductID: 1, WarehouseID: 1, Quantity: qty("8"), Direction: inventory.DirectionOut,
		})
		var short *shared.InsufficientStockError
		require.True(t, errors.As(err, &short))
		assert.True(t, short.Available.Equal(qty("5")))
		assert.True(t, short.Shortfall.Equal(qty("3")))

		pos, _ := store.Quantity(1, 1)
		assert.True(t, pos.Quantity.Equal(qty("5")))
		assert.Len(t, store.Transactions(), 1)
	})

	t.Run("allowed for backorder deployments", func(t *testing.T) {
		svc, store := newService(t, inventory.ServiceConfig{AllowNegativeStock: true})
		assert.True(t, svc.Policy().AllowNegative)
		receive(t, svc, 1, 1, "5")

		txn, err := svc.Adjust(context.Background(), inventory.AdjustInput{
			ProductID: 1, WarehouseID: 1, Quantity: qty("8"), Direction: inventory.DirectionOut,
		})
		require.NoError(t, err)
		assert.True(t, txn.BalanceAfter.Equal(qty("-3")))
		pos, _ := store.Quantity(1, 1)
		assert.True(t, pos.Quantity.Equal(qty("-3")))
	})
}

func TestAdjustValidation(t *testing.T) {
	svc, store := newService(t, inventory.ServiceConfig{})
	cases := []struct {
		name  string
		input inventory.AdjustInput
		field string
	}{
		{"zero quantity", inventory.AdjustInput{ProductID: 1, WarehouseID: 1, Quantity: qty("0"), Direction: inventory.DirectionIn}, "quantity"},
		{"negative quantity", inventory.AdjustInput{ProductID: 1, WarehouseID: 1, Quantity: qty("-1"), Direction: inventory.DirectionIn}, "quantity"},
		{"unknown direction", inventory.AdjustInput{ProductID: 1, WarehouseID: 1, Quantity: qty("1"), Direction: "sideways"}, "direction"},
		{"missing warehouse", inventory.AdjustInput{ProductID: 1, Quantity: qty("1"), Direction: inventory.DirectionIn}, "warehouse_id"},
		{"unknown warehouse", inventory.AdjustInput{ProductID: 1, WarehouseID: 99, Quantity: qty("1"), Direction: inventory.DirectionIn}, "warehouse_id"},
		{"unknown product", inventory.AdjustInput{ProductID: 99, WarehouseID: 1, Quantity: qty("1"), Direction: inventory.DirectionIn}, "product_id"},
		{"discontinued receipt", inventory.AdjustInput{ProductID: 3, WarehouseID: 1, Quantity: qty("1"), Direction: inventory.DirectionIn}, "product_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Adjust(context.Background(), tc.input)
			var ve *shared.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
	assert.Empty(t, store.Transactions())
}

func TestTransferMovesStockInOneEvent(t *testing.T) {
	svc, store := newService(t, inventory.ServiceConfig{})
	receive(t, svc, 1, 2, "300")

	result, err := svc.Transfer(context.Background(), inventory.TransferInput{
		ProductID: 2, FromWarehouseID: 1, ToWarehouseID: 2, Quantity: qty("120"), ActorID: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, result.EventID, result.Out.EventID)
	assert.Equal(t, result.EventID, result.In.EventID)
	assert.Equal(t, inventory.TypeTransferOut, result.Out.Type)
	assert.Equal(t, inventory.TypeTransferIn, result.In.Type)
	assert.True(t, result.Out.Quantity.Equal(qty("-120")))
	assert.True(t, result.In.Quantity.Equal(qty("120")))
	assert.Equal(t, "2", result.Out.RefID)
	assert.Equal(t, "1", result.In.RefID)

	src, _ := store.Quantity(1, 2)
	dst, _ := store.Quantity(2, 2)
	assert.True(t, src.Quantity.Equal(qty("180")))
	assert.True(t, dst.Quantity.Equal(qty("120")))

	legs, err := svc.ListTransactions(context.Background(), inventory.TransactionFilter{EventID: result.EventID})
	require.NoError(t, err)
	assert.Len(t, legs, 2)

	discrepancies, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Empty(t, discrepancies)
}

func TestTransferExactBalanceLeavesSourceAtZero(t *testing.T) {
	svc, store := newService(t, inventory.ServiceConfig{})
	receive(t, svc, 1, 2, "30.25")

	result, err := svc.Transfer(context.Background(), inventory.TransferInput{
		ProductID: 2, FromWarehouseID: 1, ToWarehouseID: 2, Quantity: qty("30.25"), ActorID: 3,
	})
	require.NoError(t, err)
	assert.True(t, result.Out.BalanceAfter.IsZero())

	src, _ := store.Quantity(1, 2)
	dst, _ := store.Quantity(2, 2)
	assert.True(t, src.Quantity.IsZero())
	assert.True(t, dst.Quantity.Equal(qty("30.25")))
}

func TestTransferShortSourceRollsBackEverything(t *testing.T) {
	// The source check ignores the negative stock policy.
	svc, store := newService(t, inventory.ServiceConfig{AllowNegativeStock: true})
	receive(t, svc, 1, 2, "10")
	before := store.Counts()

	_, err := svc.Transfer(context.Background(), inventory.TransferInput{
		ProductID: 2, FromWarehouseID: 1, ToWarehouseID: 2, Quantity: qty("25"),
	})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	assert.Equal(t, before, store.Counts())
	src, _ := store.Quantity(1, 2)
	assert.True(t, src.Quantity.Equal(qty("10")))
	_, exists := store.Quantity(2, 2)
	assert.False(t, exists)
}

func TestTransferFailureOnSecondLegRollsBackFirst(t *testing.T) {
	svc, store := newService(t, inventory.ServiceConfig{})
	receive(t, svc, 1, 1, "40")

	boom := errors.New("disk full")
	store.FailNth("inventory.InsertTransaction", 2, boom)
	_, err := svc.Transfer(context.Background(), inventory.TransferInput{
		ProductID: 1, FromWarehouseID: 1, ToWarehouseID: 2, Quantity: qty("10"),
	})
	require.ErrorIs(t, err, boom)

	src, _ := store.Quantity(1, 1)
	assert.True(t, src.Quantity.Equal(qty("40")))
	_, exists := store.Quantity(2, 1)
	assert.False(t, exists)
	assert.Len(t, store.Transactions(), 1)
}

func TestTransferValidation(t *testing.T) {
	svc, _ := newService(t, inventory.ServiceConfig{})
	_, err := svc.Transfer(context.Background(), inventory.TransferInput{
		ProductID: 1, FromWarehouseID: 1, ToWarehouseID: 1, Quantity: qty("1"),
	})
	var ve *shared.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "to_warehouse_id", ve.Field)

	_, err = svc.Transfer(context.Background(), inventory.TransferInput{
		ProductID: 1, FromWarehouseID: 1, ToWarehouseID: 42, Quantity: qty("1"),
	})
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "to_warehouse_id", ve.Field)
}

func TestReconcileReportsDrift(t *testing.T) {
	svc, store := newService(t, inventory.ServiceConfig{})
	receive(t, svc, 1, 1, "10")
	store.CorruptPosition(1, 1, qty("11"))

	discrepancies, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	require.Len(t, discrepancies, 1)
	assert.True(t, discrepancies[0].Difference().Equal(qty("1")))
}

func TestListTransactionsRejectsInvertedRange(t *testing.T) {
	svc, _ := newService(t, inventory.ServiceConfig{})
	now := time.Now()
	_, err := svc.ListTransactions(context.Background(), inventory.TransactionFilter{From: now, To: now.Add(-time.Hour)})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestGetPositionMissing(t *testing.T) {
	svc, _ := newService(t, inventory.ServiceConfig{})
	_, err := svc.GetPosition(context.Background(), 1, 2)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestConcurrentDeductionsNeverOversell(t *testing.T) {
	svc, store := newService(t, inventory.ServiceConfig{})
	receive(t, svc, 1, 1, "20")

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		short     atomic.Int32
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Adjust(context.Background(), inventory.AdjustInput{
				ProductID: 1, WarehouseID: 1, Quantity: qty("1"), Direction: inventory.DirectionOut,
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, shared.ErrInsufficientStock):
				short.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(20), succeeded.Load())
	assert.Equal(t, int32(30), short.Load())
	pos, _ := store.Quantity(1, 1)
	assert.True(t, pos.Quantity.IsZero())
	discrepancies, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Empty(t, discrepancies)
}
