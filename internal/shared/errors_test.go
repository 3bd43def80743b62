package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsufficientStockCarriesShortfall(t *testing.T) {
	err := InsufficientStock(1, 2, decimal.NewFromInt(3), decimal.NewFromInt(10))
	require.True(t, errors.Is(err, ErrInsufficientStock))
	assert.True(t, err.Shortfall.Equal(decimal.NewFromInt(7)))
	assert.Contains(t, err.Error(), "short 7")
}

func TestStructuredErrorsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("sales: create invoice: %w", Invalid("items", "must not be empty"))
	assert.True(t, errors.Is(wrapped, ErrValidation))
	assert.False(t, errors.Is(wrapped, ErrNotFound))

	var ve *ValidationError
	require.True(t, errors.As(wrapped, &ve))
	assert.Equal(t, "items", ve.Field)

	over := fmt.Errorf("credit: %w", &OverpaymentError{CreditID: 9, Amount: decimal.NewFromInt(5), MaxAllowed: decimal.NewFromInt(4)})
	var oe *OverpaymentError
	require.True(t, errors.As(over, &oe))
	assert.True(t, oe.MaxAllowed.Equal(decimal.NewFromInt(4)))
	assert.True(t, errors.Is(over, ErrOverpayment))
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause)
	assert.True(t, errors.Is(err, ErrInternal))
	assert.True(t, errors.Is(err, cause))
	assert.Nil(t, Internal(nil))
}

func TestConflictUnwraps(t *testing.T) {
	cause := errors.New("duplicate key")
	err := &ConflictError{Reason: "invoice number", Err: cause}
	assert.True(t, errors.Is(err, ErrConflict))
	assert.True(t, errors.Is(err, cause))
}
