package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/textile-erp/internal/shared"
)

type fakeTx struct {
	positions map[[2]int64]Position
	rows      []Transaction
	insertErr error
}

func newFakeTx() *fakeTx {
	return &fakeTx{positions: map[[2]int64]Position{}}
}

func (f *fakeTx) LockPosition(_ context.Context, warehouseID, productID int64) (Position, error) {
	key := [2]int64{warehouseID, productID}
	pos, ok := f.positions[key]
	if !ok {
		pos = Position{WarehouseID: warehouseID, ProductID: productID}
		f.positions[key] = pos
	}
	return pos, nil
}

func (f *fakeTx) SavePosition(_ context.Context, pos Position) error {
	f.positions[[2]int64{pos.WarehouseID, pos.ProductID}] = pos
	return nil
}

func (f *fakeTx) InsertTransaction(_ context.Context, txn Transaction) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.rows = append(f.rows, txn)
	return int64(len(f.rows)), nil
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestPostAppendsRowWithRunningBalance(t *testing.T) {
	tx := newFakeTx()
	ctx := context.Background()

	_, err := Post(ctx, tx, Movement{WarehouseID: 1, ProductID: 1, Quantity: dec("10.5"), Type: TypeReceipt}, Policy{})
	require.NoError(t, err)
	txn, err := Post(ctx, tx, Movement{WarehouseID: 1, ProductID: 1, Quantity: dec("-4"), Type: TypeSale, RefModule: "sales", RefID: "INV-202401-00001"}, Policy{})
	require.NoError(t, err)

	assert.Equal(t, int64(2), txn.ID)
	assert.True(t, txn.BalanceAfter.Equal(dec("6.5")))
	assert.NotEqual(t, uuid.Nil, txn.EventID)
	assert.False(t, txn.OccurredAt.IsZero())
	assert.True(t, tx.positions[[2]int64{1, 1}].Quantity.Equal(dec("6.5")))
}

func TestPostNegativeGuard(t *testing.T) {
	cases := []struct {
		name    string
		strict  bool
		allow   bool
		wantErr bool
	}{
		{"default policy rejects", false, false, true},
		{"backorder policy allows", false, true, false},
		{"strict movement ignores policy", true, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := newFakeTx()
			tx.positions[[2]int64{1, 1}] = Position{WarehouseID: 1, ProductID: 1, Quantity: dec("2")}

			_, err := Post(context.Background(), tx, Movement{
				WarehouseID: 1, ProductID: 1, Quantity: dec("-3"), Type: TypeAdjustment, Strict: tc.strict,
			}, Policy{AllowNegative: tc.allow})
			if tc.wantErr {
				var short *shared.InsufficientStockError
				require.True(t, errors.As(err, &short))
				assert.True(t, short.Requested.Equal(dec("3")))
				assert.True(t, short.Shortfall.Equal(dec("1")))
				assert.Empty(t, tx.rows)
				return
			}
			require.NoError(t, err)
			assert.True(t, tx.positions[[2]int64{1, 1}].Quantity.Equal(dec("-1")))
		})
	}
}

func TestPostIncreaseIsNeverGuarded(t *testing.T) {
	tx := newFakeTx()
	tx.positions[[2]int64{1, 1}] = Position{WarehouseID: 1, ProductID: 1, Quantity: dec("-5")}

	txn, err := Post(context.Background(), tx, Movement{WarehouseID: 1, ProductID: 1, Quantity: dec("2"), Type: TypeReceipt, Strict: true}, Policy{})
	require.NoError(t, err)
	assert.True(t, txn.BalanceAfter.Equal(dec("-3")))
}

func TestPostRejectsMalformedMovement(t *testing.T) {
	cases := map[string]Movement{
		"warehouse_id": {ProductID: 1, Quantity: dec("1"), Type: TypeReceipt},
		"product_id":   {WarehouseID: 1, Quantity: dec("1"), Type: TypeReceipt},
		"quantity":     {WarehouseID: 1, ProductID: 1, Quantity: decimal.Zero, Type: TypeReceipt},
		"type":         {WarehouseID: 1, ProductID: 1, Quantity: dec("1"), Type: "gift"},
	}
	for field, m := range cases {
		t.Run(field, func(t *testing.T) {
			_, err := Post(context.Background(), newFakeTx(), m, Policy{})
			var ve *shared.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, field, ve.Field)
		})
	}
}

func TestPostRejectsQuantityBeyondStoredScale(t *testing.T) {
	tx := newFakeTx()
	_, err := Post(context.Background(), tx, Movement{WarehouseID: 1, ProductID: 1, Quantity: dec("0.00005"), Type: TypeReceipt}, Policy{})
	var ve *shared.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "quantity", ve.Field)
	assert.Empty(t, tx.rows)

	txn, err := Post(context.Background(), tx, Movement{WarehouseID: 1, ProductID: 1, Quantity: dec("0.0005"), Type: TypeReceipt}, Policy{})
	require.NoError(t, err)
	assert.True(t, txn.BalanceAfter.Equal(dec("0.0005")))
}

func TestPostPropagatesInsertFailure(t *testing.T) {
	tx := newFakeTx()
	tx.insertErr = errors.New("connection reset")
	_, err := Post(context.Background(), tx, Movement{WarehouseID: 1, ProductID: 1, Quantity: dec("1"), Type: TypeReceipt}, Policy{})
	assert.EqualError(t, err, "connection reset")
}
