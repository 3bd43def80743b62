package production

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Log records one conversion of input stock into output stock.
type Log struct {
	ID                int64           `json:"id"`
	Date              time.Time       `json:"production_date"`
	CenterID          int64           `json:"center_id"`
	InputProductID    int64           `json:"input_product_id"`
	InputWarehouseID  int64           `json:"input_warehouse_id"`
	InputQuantity     decimal.Decimal `json:"input_quantity"`
	OutputProductID   int64           `json:"output_product_id"`
	OutputWarehouseID int64           `json:"output_warehouse_id"`
	OutputQuantity    decimal.Decimal `json:"output_quantity"`
	RecordedBy        int64           `json:"recorded_by"`
	EventID           uuid.UUID       `json:"event_id"`
	CreatedAt         time.Time       `json:"created_at"`
}

// RecordInput describes a conversion to record.
type RecordInput struct {
	Date              time.Time
	CenterID          int64
	InputProductID    int64
	InputWarehouseID  int64
	InputQuantity     decimal.Decimal
	OutputProductID   int64
	OutputWarehouseID int64
	OutputQuantity    decimal.Decimal
	RecordedBy        int64
}

// LogFilter narrows ListLogs.
type LogFilter struct {
	CenterID int64
	From     time.Time
	To       time.Time
	Limit    int
}

// OrderStatus of a production order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

var transitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderInProgress, OrderCancelled},
	OrderInProgress: {OrderCompleted, OrderCancelled},
}

// CanTransition reports whether an order may move from one status to another.
// Completed and cancelled are terminal.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderInProgress, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// Order plans production of a product at a center.
type Order struct {
	ID              int64               `json:"id"`
	Number          string              `json:"order_number"`
	CenterID        int64               `json:"center_id"`
	ProductID       int64               `json:"product_id"`
	PlannedQuantity decimal.Decimal     `json:"planned_quantity"`
	ActualQuantity  decimal.NullDecimal `json:"actual_quantity"`
	Status          OrderStatus         `json:"status"`
	CreatedBy       int64               `json:"created_by"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// CreateOrderInput describes a new order.
type CreateOrderInput struct {
	CenterID        int64
	ProductID       int64
	PlannedQuantity decimal.Decimal
	CreatedBy       int64
}

// TransitionInput moves an order to Target. ActualQuantity is required when
// completing.
type TransitionInput struct {
	OrderID        int64
	Target         OrderStatus
	ActualQuantity decimal.NullDecimal
	ActorID        int64
}

const (
	defaultListLimit = 100
	maxListLimit     = 500
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

// FormatOrderNumber renders the number of order id created on date.
func FormatOrderNumber(date time.Time, id int64) string {
	return fmt.Sprintf("PRD-%s-%05d", date.Format("200601"), id)
}
