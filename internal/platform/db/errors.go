package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/odyssey-erp/textile-erp/internal/shared"
)

// Postgres SQLSTATE codes mapped onto the shared taxonomy.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

var taxonomy = []error{
	shared.ErrValidation,
	shared.ErrNotFound,
	shared.ErrInsufficientStock,
	shared.ErrOverpayment,
	shared.ErrConflict,
	shared.ErrInternal,
}

// Translate maps a datastore error onto the shared error taxonomy. Errors that
// already belong to the taxonomy are returned unchanged.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range taxonomy {
		if errors.Is(err, known) {
			return err
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return &shared.ConflictError{Reason: pgErr.ConstraintName, Err: err}
		case codeSerializationFailure, codeDeadlockDetected:
			return &shared.ConflictError{Reason: "concurrent update", Err: err}
		case codeForeignKeyViolation:
			return shared.Invalid(pgErr.ConstraintName, "references a missing record")
		case codeCheckViolation:
			return shared.Invalid(pgErr.ConstraintName, "violates a constraint")
		}
	}
	return shared.Internal(err)
}
