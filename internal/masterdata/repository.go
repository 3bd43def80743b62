package masterdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/textile-erp/internal/shared"
)

// Store is the read-only source of reference data.
type Store interface {
	GetProduct(ctx context.Context, id int64) (Product, error)
	GetWarehouse(ctx context.Context, id int64) (Warehouse, error)
	GetBranch(ctx context.Context, id int64) (Branch, error)
	GetCustomer(ctx context.Context, id int64) (Customer, error)
	GetProductionCenter(ctx context.Context, id int64) (ProductionCenter, error)
	ListProducts(ctx context.Context) ([]Product, error)
	ListWarehouses(ctx context.Context) ([]Warehouse, error)
}

// Repository reads master data from Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new master data repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func notFound(entity string, id int64, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.NotFound(entity, id)
	}
	return fmt.Errorf("masterdata: get %s: %w", entity, err)
}

// GetProduct returns one product.
func (r *Repository) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `SELECT id, code, name, category, unit, standard_cost, standard_price, status, created_at
FROM products WHERE id=$1`, id).Scan(&p.ID, &p.Code, &p.Name, &p.Category, &p.Unit, &p.StandardCost, &p.StandardPrice, &p.Status, &p.CreatedAt)
	if err != nil {
		return Product{}, notFound("product", id, err)
	}
	return p, nil
}

// GetWarehouse returns one warehouse.
func (r *Repository) GetWarehouse(ctx context.Context, id int64) (Warehouse, error) {
	var w Warehouse
	err := r.pool.QueryRow(ctx, `SELECT id, code, name FROM warehouses WHERE id=$1`, id).Scan(&w.ID, &w.Code, &w.Name)
	if err != nil {
		return Warehouse{}, notFound("warehouse", id, err)
	}
	return w, nil
}

// GetBranch returns one branch.
func (r *Repository) GetBranch(ctx context.Context, id int64) (Branch, error) {
	var b Branch
	err := r.pool.QueryRow(ctx, `SELECT id, code, name FROM branches WHERE id=$1`, id).Scan(&b.ID, &b.Code, &b.Name)
	if err != nil {
		return Branch{}, notFound("branch", id, err)
	}
	return b, nil
}

// GetCustomer returns one customer.
func (r *Repository) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	var c Customer
	err := r.pool.QueryRow(ctx, `SELECT id, code, name, type, credit_limit, status FROM customers WHERE id=$1`, id).
		Scan(&c.ID, &c.Code, &c.Name, &c.Type, &c.CreditLimit, &c.Status)
	if err != nil {
		return Customer{}, notFound("customer", id, err)
	}
	return c, nil
}

// GetProductionCenter returns one production center.
func (r *Repository) GetProductionCenter(ctx context.Context, id int64) (ProductionCenter, error) {
	var c ProductionCenter
	err := r.pool.QueryRow(ctx, `SELECT id, code, name FROM production_centers WHERE id=$1`, id).Scan(&c.ID, &c.Code, &c.Name)
	if err != nil {
		return ProductionCenter{}, notFound("production center", id, err)
	}
	return c, nil
}

// ListProducts returns every product ordered by code.
func (r *Repository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, name, category, unit, standard_cost, standard_price, status, created_at
FROM products ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("masterdata: list products: %w", err)
	}
	defer rows.Close()
	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Category, &p.Unit, &p.StandardCost, &p.StandardPrice, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ListWarehouses returns every warehouse ordered by code.
func (r *Repository) ListWarehouses(ctx context.Context) ([]Warehouse, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, name FROM warehouses ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("masterdata: list warehouses: %w", err)
	}
	defer rows.Close()
	var warehouses []Warehouse
	for rows.Next() {
		var w Warehouse
		if err := rows.Scan(&w.ID, &w.Code, &w.Name); err != nil {
			return nil, err
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}
