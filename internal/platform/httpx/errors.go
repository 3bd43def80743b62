// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/textile-erp/internal/shared"
)

// Sentinel errors raised at the HTTP boundary itself.
var (
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var (
		validation *shared.ValidationError
		stock      *shared.InsufficientStockError
		over       *shared.OverpaymentError
	)
	switch {
	case errors.As(err, &validation):
		ProblemWithMeta(w, http.StatusBadRequest, "Validation Failed", validation.Error(), map[string]any{
			"field":  validation.Field,
			"reason": validation.Reason,
		})
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.As(err, &stock):
		ProblemWithMeta(w, http.StatusUnprocessableEntity, "Insufficient Stock", stock.Error(), map[string]any{
			"warehouse_id": stock.WarehouseID,
			"product_id":   stock.ProductID,
			"available":    stock.Available,
			"requested":    stock.Requested,
			"shortfall":    stock.Shortfall,
		})
	case errors.As(err, &over):
		ProblemWithMeta(w, http.StatusUnprocessableEntity, "Overpayment", over.Error(), map[string]any{
			"credit_id":   over.CreditID,
			"max_allowed": over.MaxAllowed,
		})
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
