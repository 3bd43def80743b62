package shared

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrValidation indicates malformed or missing input supplied by the caller.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock indicates a deduction larger than the quantity on hand.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrOverpayment indicates a payment larger than the outstanding balance.
	ErrOverpayment = errors.New("payment exceeds outstanding balance")
	// ErrConflict indicates a concurrent write collided with this one.
	ErrConflict = errors.New("conflict")
	// ErrInternal indicates an unexpected datastore failure.
	ErrInternal = errors.New("internal error")
)

// ValidationError describes which input field was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

// Invalid builds a ValidationError.
func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// Is allows errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     int64
}

// NotFound builds a NotFoundError.
func NotFound(entity string, id int64) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// Is allows errors.Is(err, ErrNotFound).
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InsufficientStockError carries the shortfall of a rejected deduction.
type InsufficientStockError struct {
	WarehouseID int64
	ProductID   int64
	Available   decimal.Decimal
	Requested   decimal.Decimal
	Shortfall   decimal.Decimal
}

// InsufficientStock builds the error and derives the shortfall.
func InsufficientStock(warehouseID, productID int64, available, requested decimal.Decimal) *InsufficientStockError {
	return &InsufficientStockError{
		WarehouseID: warehouseID,
		ProductID:   productID,
		Available:   available,
		Requested:   requested,
		Shortfall:   requested.Sub(available),
	}
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d in warehouse %d: available %s, requested %s, short %s",
		e.ProductID, e.WarehouseID, e.Available.String(), e.Requested.String(), e.Shortfall.String())
}

// Is allows errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// OverpaymentError reports the maximum amount the caller may pay.
type OverpaymentError struct {
	CreditID   int64
	Amount     decimal.Decimal
	MaxAllowed decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment %s exceeds outstanding balance %s of credit %d",
		e.Amount.String(), e.MaxAllowed.String(), e.CreditID)
}

// Is allows errors.Is(err, ErrOverpayment).
func (e *OverpaymentError) Is(target error) bool {
	return target == ErrOverpayment
}

// ConflictError wraps the datastore error that caused a write collision.
type ConflictError struct {
	Reason string
	Err    error
}

func (e *ConflictError) Error() string {
	if e.Err == nil {
		return "conflict: " + e.Reason
	}
	return fmt.Sprintf("conflict: %s: %v", e.Reason, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// Is allows errors.Is(err, ErrConflict).
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

type internalError struct {
	err error
}

// Internal marks err as an unexpected failure while keeping the cause.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	return &internalError{err: err}
}

func (e *internalError) Error() string { return "internal error: " + e.err.Error() }

func (e *internalError) Unwrap() error { return e.err }

func (e *internalError) Is(target error) bool {
	return target == ErrInternal
}
