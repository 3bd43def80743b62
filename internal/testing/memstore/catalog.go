package memstore

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/textile-erp/internal/masterdata"
	"github.com/odyssey-erp/textile-erp/internal/shared"
)

// Catalog serves master data lookups. It satisfies masterdata.Store and the
// Catalog ports of every ledger service.
type Catalog struct{ s *Store }

// Catalog returns the master data view of the store.
func (s *Store) Catalog() *Catalog { return &Catalog{s: s} }

// AddProduct registers an active product unless p.Status says otherwise.
func (s *Store) AddProduct(p masterdata.Product) {
	s.md.Lock()
	defer s.md.Unlock()
	if p.Status == "" {
		p.Status = masterdata.ProductActive
	}
	s.products[p.ID] = p
}

// AddWarehouse registers a warehouse.
func (s *Store) AddWarehouse(w masterdata.Warehouse) {
	s.md.Lock()
	defer s.md.Unlock()
	s.warehouses[w.ID] = w
}

// AddBranch registers a branch.
func (s *Store) AddBranch(b masterdata.Branch) {
	s.md.Lock()
	defer s.md.Unlock()
	s.branches[b.ID] = b
}

// AddCustomer registers an active customer unless c.Status says otherwise.
func (s *Store) AddCustomer(c masterdata.Customer) {
	s.md.Lock()
	defer s.md.Unlock()
	if c.Status == "" {
		c.Status = masterdata.CustomerActive
	}
	s.customers[c.ID] = c
}

// AddCenter registers a production center.
func (s *Store) AddCenter(c masterdata.ProductionCenter) {
	s.md.Lock()
	defer s.md.Unlock()
	s.centers[c.ID] = c
}

// SeedTextile loads a small spinning and weaving mill: yarn (1), greige
// fabric (2), a discontinued dye lot (3), the main store (1) and the
// finished goods store (2), one branch, customers 1 (active) and 2
// (inactive), and the weaving center (1).
func (s *Store) SeedTextile() {
	s.AddProduct(masterdata.Product{ID: 1, Code: "YRN-30S", Name: "Cotton yarn 30s", Category: "yarn", Unit: "kg",
		StandardCost: decimal.NewFromInt(38000), StandardPrice: decimal.NewFromInt(42000)})
	s.AddProduct(masterdata.Product{ID: 2, Code: "GRG-PRM", Name: "Greige primissima", Category: "fabric", Unit: "m",
		StandardCost: decimal.NewFromInt(11000), StandardPrice: decimal.NewFromInt(15000)})
	s.AddProduct(masterdata.Product{ID: 3, Code: "DYE-OLD", Name: "Indigo lot 2019", Category: "dye", Unit: "kg",
		Status: masterdata.ProductDiscontinued})
	s.AddWarehouse(masterdata.Warehouse{ID: 1, Code: "WH-MAIN", Name: "Main store"})
	s.AddWarehouse(masterdata.Warehouse{ID: 2, Code: "WH-FG", Name: "Finished goods"})
	s.AddBranch(masterdata.Branch{ID: 1, Code: "BR-SOLO", Name: "Solo"})
	s.AddCustomer(masterdata.Customer{ID: 1, Code: "CUS-001", Name: "Batik Sentosa", Type: "wholesale",
		CreditLimit: decimal.NewFromInt(100000000)})
	s.AddCustomer(masterdata.Customer{ID: 2, Code: "CUS-002", Name: "Toko Lama", Type: "retail",
		Status: masterdata.CustomerInactive})
	s.AddCenter(masterdata.ProductionCenter{ID: 1, Code: "WEAVE-1", Name: "Weaving hall"})
}

func lookup[V any](c *Catalog, m map[int64]V, entity string, id int64) (V, error) {
	c.s.md.RLock()
	defer c.s.md.RUnlock()
	v, ok := m[id]
	if !ok {
		var zero V
		return zero, shared.NotFound(entity, id)
	}
	return v, nil
}

func (c *Catalog) Product(_ context.Context, id int64) (masterdata.Product, error) {
	return lookup(c, c.s.products, "product", id)
}

func (c *Catalog) Warehouse(_ context.Context, id int64) (masterdata.Warehouse, error) {
	return lookup(c, c.s.warehouses, "warehouse", id)
}

func (c *Catalog) Branch(_ context.Context, id int64) (masterdata.Branch, error) {
	return lookup(c, c.s.branches, "branch", id)
}

func (c *Catalog) Customer(_ context.Context, id int64) (masterdata.Customer, error) {
	return lookup(c, c.s.customers, "customer", id)
}

func (c *Catalog) ProductionCenter(_ context.Context, id int64) (masterdata.ProductionCenter, error) {
	return lookup(c, c.s.centers, "production center", id)
}

// masterdata.Store spellings, so the real Catalog can sit on top of memstore.

func (c *Catalog) GetProduct(ctx context.Context, id int64) (masterdata.Product, error) {
	return c.Product(ctx, id)
}

func (c *Catalog) GetWarehouse(ctx context.Context, id int64) (masterdata.Warehouse, error) {
	return c.Warehouse(ctx, id)
}

func (c *Catalog) GetBranch(ctx context.Context, id int64) (masterdata.Branch, error) {
	return c.Branch(ctx, id)
}

func (c *Catalog) GetCustomer(ctx context.Context, id int64) (masterdata.Customer, error) {
	return c.Customer(ctx, id)
}

func (c *Catalog) GetProductionCenter(ctx context.Context, id int64) (masterdata.ProductionCenter, error) {
	return c.ProductionCenter(ctx, id)
}

func (c *Catalog) ListProducts(context.Context) ([]masterdata.Product, error) {
	c.s.md.RLock()
	defer c.s.md.RUnlock()
	out := make([]masterdata.Product, 0, len(c.s.products))
	for _, id := range sortedKeys(c.s.products) {
		out = append(out, c.s.products[id])
	}
	return out, nil
}

func (c *Catalog) ListWarehouses(context.Context) ([]masterdata.Warehouse, error) {
	c.s.md.RLock()
	defer c.s.md.RUnlock()
	out := make([]masterdata.Warehouse, 0, len(c.s.warehouses))
	for _, id := range sortedKeys(c.s.warehouses) {
		out = append(out, c.s.warehouses[id])
	}
	return out, nil
}

var _ masterdata.Store = (*Catalog)(nil)
