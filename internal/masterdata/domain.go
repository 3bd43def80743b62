package masterdata

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductStatus tracks whether a product may still be transacted.
type ProductStatus string

const (
	ProductActive       ProductStatus = "active"
	ProductDiscontinued ProductStatus = "discontinued"
)

// CustomerStatus tracks whether a customer may receive new invoices.
type CustomerStatus string

const (
	CustomerActive   CustomerStatus = "active"
	CustomerInactive CustomerStatus = "inactive"
)

// Product is a stocked item: yarn, greige fabric, finished cloth.
type Product struct {
	ID            int64           `json:"id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Unit          string          `json:"unit"`
	StandardCost  decimal.Decimal `json:"standard_cost"`
	StandardPrice decimal.Decimal `json:"standard_price"`
	Status        ProductStatus   `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Active reports whether the product can be moved, sold or produced.
func (p Product) Active() bool { return p.Status != ProductDiscontinued }

// Warehouse represents a stock location.
type Warehouse struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Branch represents a selling branch.
type Branch struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Customer is the buyer on an invoice.
type Customer struct {
	ID          int64           `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	Status      CustomerStatus  `json:"status"`
}

// Active reports whether the customer may be invoiced.
func (c Customer) Active() bool { return c.Status != CustomerInactive }

// ProductionCenter is a spinning, weaving or finishing unit.
type ProductionCenter struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}
