package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/textile-erp/internal/shared"
)

func TestTranslatePostgresCodes(t *testing.T) {
	cases := []struct {
		name string
		code string
		want error
	}{
		{"unique", "23505", shared.ErrConflict},
		{"serialization", "40001", shared.ErrConflict},
		{"deadlock", "40P01", shared.ErrConflict},
		{"foreign key", "23503", shared.ErrValidation},
		{"check", "23514", shared.ErrValidation},
		{"other", "42P01", shared.ErrInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: tc.code, ConstraintName: "c"})
			assert.True(t, errors.Is(Translate(err), tc.want))
		})
	}
}

func TestTranslateKeepsDomainErrors(t *testing.T) {
	domain := shared.InsufficientStock(1, 1, shared.MoneyEpsilon, shared.MoneyEpsilon.Add(shared.MoneyEpsilon))
	assert.Same(t, domain, Translate(domain))
	assert.Nil(t, Translate(nil))
	assert.ErrorIs(t, Translate(context.Canceled), context.Canceled)
	assert.ErrorIs(t, Translate(errors.New("boom")), shared.ErrInternal)
}

func TestRetryConflicts(t *testing.T) {
	calls := 0
	err := RetryConflicts(context.Background(), 3, func(context.Context) error {
		calls++
		if calls < 3 {
			return &shared.ConflictError{Reason: "invoice number"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryConflictsGivesUp(t *testing.T) {
	calls := 0
	err := RetryConflicts(context.Background(), 2, func(context.Context) error {
		calls++
		return &shared.ConflictError{Reason: "invoice number"}
	})
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.Equal(t, 2, calls)
}

func TestRetryConflictsSkipsReplayAndOtherErrors(t *testing.T) {
	calls := 0
	err := RetryConflicts(context.Background(), 5, func(context.Context) error {
		calls++
		return shared.ErrIdempotencyConflict
	})
	assert.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	assert.Equal(t, 1, calls)

	calls = 0
	err = RetryConflicts(context.Background(), 5, func(context.Context) error {
		calls++
		return shared.Invalid("qty", "must be positive")
	})
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, 1, calls)
}
