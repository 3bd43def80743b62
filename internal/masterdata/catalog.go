package masterdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/textile-erp/internal/shared"
)

// Catalog serves reference data lookups through the Redis cache. Concurrent
// misses for the same key share one Store round trip.
type Catalog struct {
	store  Store
	cache  *Cache
	group  singleflight.Group
	logger *slog.Logger
}

// NewCatalog wires the catalog. cache may be nil, in which case every lookup
// goes to the store.
func NewCatalog(store Store, cache *Cache, logger *slog.Logger) *Catalog {
	return &Catalog{store: store, cache: cache, logger: logger}
}

func fetch[T any](ctx context.Context, c *Catalog, kind string, id int64, load func(context.Context) (T, error)) (T, error) {
	var out T
	key, err := c.cache.BuildKey(ctx, "masterdata", kind, strconv.FormatInt(id, 10))
	if err != nil {
		c.warn("build key", err)
		return load(ctx)
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		var value T
		ferr := c.cache.FetchJSON(ctx, key, &value, func(ctx context.Context) (any, error) {
			return load(ctx)
		})
		return value, ferr
	})
	if err != nil {
		var nf *shared.NotFoundError
		if errors.As(err, &nf) {
			return out, err
		}
		// Redis trouble must not block the ledger; fall back to the store.
		c.warn("fetch "+kind, err)
		return load(ctx)
	}
	return v.(T), nil
}

func (c *Catalog) warn(msg string, err error) {
	if c.logger != nil {
		c.logger.Warn("masterdata cache: "+msg, slog.Any("error", err))
	}
}

// Product returns product id or a *shared.NotFoundError.
func (c *Catalog) Product(ctx context.Context, id int64) (Product, error) {
	return fetch(ctx, c, "product", id, func(ctx context.Context) (Product, error) {
		return c.store.GetProduct(ctx, id)
	})
}

// Warehouse returns warehouse id or a *shared.NotFoundError.
func (c *Catalog) Warehouse(ctx context.Context, id int64) (Warehouse, error) {
	return fetch(ctx, c, "warehouse", id, func(ctx context.Context) (Warehouse, error) {
		return c.store.GetWarehouse(ctx, id)
	})
}

// Branch returns branch id or a *shared.NotFoundError.
func (c *Catalog) Branch(ctx context.Context, id int64) (Branch, error) {
	return fetch(ctx, c, "branch", id, func(ctx context.Context) (Branch, error) {
		return c.store.GetBranch(ctx, id)
	})
}

// Customer returns customer id or a *shared.NotFoundError.
func (c *Catalog) Customer(ctx context.Context, id int64) (Customer, error) {
	return fetch(ctx, c, "customer", id, func(ctx context.Context) (Customer, error) {
		return c.store.GetCustomer(ctx, id)
	})
}

// ProductionCenter returns center id or a *shared.NotFoundError.
func (c *Catalog) ProductionCenter(ctx context.Context, id int64) (ProductionCenter, error) {
	return fetch(ctx, c, "center", id, func(ctx context.Context) (ProductionCenter, error) {
		return c.store.GetProductionCenter(ctx, id)
	})
}

// Products lists every product. Lists are not cached.
func (c *Catalog) Products(ctx context.Context) ([]Product, error) {
	return c.store.ListProducts(ctx)
}

// Warehouses lists every warehouse.
func (c *Catalog) Warehouses(ctx context.Context) ([]Warehouse, error) {
	return c.store.ListWarehouses(ctx)
}

// Invalidate drops every cached entry.
func (c *Catalog) Invalidate(ctx context.Context) (int64, error) {
	return c.cache.Bump(ctx)
}

// Reference converts a lookup failure into the validation error reported to
// callers that supplied an unknown id in field.
func Reference(err error, field string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, shared.ErrNotFound) {
		return shared.Invalid(field, "refers to an unknown record")
	}
	return fmt.Errorf("masterdata: resolve %s: %w", field, err)
}
