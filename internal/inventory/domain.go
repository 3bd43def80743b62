package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType enumerates supported stock movements.
type TransactionType string

const (
	TypeReceipt          TransactionType = "receipt"
	TypeAdjustment       TransactionType = "adjustment"
	TypeTransferIn       TransactionType = "transfer_in"
	TypeTransferOut      TransactionType = "transfer_out"
	TypeProductionInput  TransactionType = "production_input"
	TypeProductionOutput TransactionType = "production_output"
	TypeSale             TransactionType = "sale"
	TypeSaleReturn       TransactionType = "sale_return"
)

// Valid reports whether t is a known movement type.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeReceipt, TypeAdjustment, TypeTransferIn, TypeTransferOut,
		TypeProductionInput, TypeProductionOutput, TypeSale, TypeSaleReturn:
		return true
	}
	return false
}

// Direction of a manual adjustment.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Position is the quantity on hand of one product in one warehouse.
type Position struct {
	WarehouseID int64           `json:"warehouse_id"`
	ProductID   int64           `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Transaction is one immutable stock ledger row. Quantity is signed.
type Transaction struct {
	ID           int64           `json:"id"`
	OccurredAt   time.Time       `json:"occurred_at"`
	WarehouseID  int64           `json:"warehouse_id"`
	ProductID    int64           `json:"product_id"`
	Type         TransactionType `json:"type"`
	Quantity     decimal.Decimal `json:"quantity"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	EventID      uuid.UUID       `json:"event_id"`
	RefModule    string          `json:"ref_module,omitempty"`
	RefID        string          `json:"ref_id,omitempty"`
	Note         string          `json:"note,omitempty"`
	CreatedBy    int64           `json:"created_by"`
}

// Movement describes a signed change to one position.
type Movement struct {
	WarehouseID int64
	ProductID   int64
	Quantity    decimal.Decimal
	Type        TransactionType
	EventID     uuid.UUID
	RefModule   string
	RefID       string
	Note        string
	ActorID     int64
	OccurredAt  time.Time
	// Strict rejects a negative result regardless of Policy.
	Strict bool
}

// Policy decides whether non-strict deductions may drive a position below zero.
type Policy struct {
	AllowNegative bool
}

// AdjustInput describes a manual stock adjustment.
type AdjustInput struct {
	ProductID   int64
	WarehouseID int64
	Quantity    decimal.Decimal
	Direction   Direction
	Note        string
	ActorID     int64
}

// TransferInput describes a transfer between two warehouses.
type TransferInput struct {
	ProductID       int64
	FromWarehouseID int64
	ToWarehouseID   int64
	Quantity        decimal.Decimal
	Note            string
	ActorID         int64
}

// TransferResult holds both legs of a transfer.
type TransferResult struct {
	EventID uuid.UUID   `json:"event_id"`
	Out     Transaction `json:"out"`
	In      Transaction `json:"in"`
}

// TransactionFilter narrows ledger listings. Zero values are ignored.
type TransactionFilter struct {
	WarehouseID int64
	ProductID   int64
	EventID     uuid.UUID
	From        time.Time
	To          time.Time
	Limit       int
}

// Discrepancy is a position whose quantity differs from its ledger sum.
type Discrepancy struct {
	WarehouseID int64           `json:"warehouse_id"`
	ProductID   int64           `json:"product_id"`
	Position    decimal.Decimal `json:"position"`
	LedgerSum   decimal.Decimal `json:"ledger_sum"`
}

// Difference returns position minus ledger sum.
func (d Discrepancy) Difference() decimal.Decimal {
	return d.Position.Sub(d.LedgerSum)
}

const (
	defaultListLimit = 200
	maxListLimit     = 1000
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
