package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/textile-erp/internal/shared"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", shared.Invalid("quantity", "must be positive"), http.StatusBadRequest},
		{"not found", fmt.Errorf("credit: %w", shared.NotFound("credit sale", 4)), http.StatusNotFound},
		{"stock", shared.InsufficientStock(1, 2, decimal.Zero, decimal.NewFromInt(1)), http.StatusUnprocessableEntity},
		{"overpayment", &shared.OverpaymentError{CreditID: 1, Amount: decimal.NewFromInt(2), MaxAllowed: decimal.NewFromInt(1)}, http.StatusUnprocessableEntity},
		{"conflict", &shared.ConflictError{Reason: "number"}, http.StatusConflict},
		{"internal", shared.Internal(errors.New("db down")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tc.err)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestRespondErrorOverpaymentCarriesMaxAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, &shared.OverpaymentError{CreditID: 7, Amount: decimal.NewFromInt(150), MaxAllowed: decimal.NewFromInt(100)})

	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "100", body.Meta["max_allowed"])
	assert.Equal(t, float64(7), body.Meta["credit_id"])
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, shared.Internal(errors.New("password=secret")))
	assert.NotContains(t, rec.Body.String(), "secret")
}

type bindTarget struct {
	WarehouseID int64  `json:"warehouse_id" validate:"required,gt=0"`
	Direction   string `json:"direction" validate:"required,oneof=in out"`
}

func TestBindValidates(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"warehouse_id":1,"direction":"sideways"}`))
	var target bindTarget
	err := Bind(req, &target)

	var ve *shared.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "direction", ve.Field)
	assert.Contains(t, ve.Reason, "one of")
}

func TestBindRejectsMalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"warehouse_id":`))
	var target bindTarget
	assert.ErrorIs(t, Bind(req, &target), shared.ErrValidation)
}

func TestBindAccepts(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"warehouse_id":3,"direction":"in"}`))
	var target bindTarget
	require.NoError(t, Bind(req, &target))
	assert.Equal(t, int64(3), target.WarehouseID)
}
