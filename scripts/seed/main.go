package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/textile-erp/internal/app"
	"github.com/odyssey-erp/textile-erp/internal/inventory"
	"github.com/odyssey-erp/textile-erp/internal/masterdata"
	"github.com/odyssey-erp/textile-erp/internal/platform/db"
	"github.com/odyssey-erp/textile-erp/internal/production"
	"github.com/odyssey-erp/textile-erp/internal/sales"
	"github.com/odyssey-erp/textile-erp/internal/shared"
	"github.com/odyssey-erp/textile-erp/migrations"
)

const seedActor int64 = 1

func main() {
	ctx := context.Background()
	cfg, err := app.LoadConfig(".env")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, migrations.Files, logger); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	fmt.Println("→ Seeding master data...")
	if err := seedMasterData(ctx, pool); err != nil {
		log.Fatalf("seed master data: %v", err)
	}

	refs, err := loadRefs(ctx, pool)
	if err != nil {
		log.Fatalf("load references: %v", err)
	}

	catalog := masterdata.NewCatalog(masterdata.NewRepository(pool), nil, logger)
	audit := shared.NewAuditLogger(pool)

	inventoryService := inventory.NewService(inventory.NewRepository(pool), catalog, audit, inventory.ServiceConfig{}, logger)
	salesService := sales.NewService(sales.NewRepository(pool), catalog, audit, sales.ServiceConfig{
		DefaultWarehouseID: refs.ids["WH-FG"],
		CreditTermDays:     cfg.SalesCreditTermDays,
		ConflictRetries:    cfg.TxConflictRetries,
		StockPolicy:        inventoryService.Policy(),
	}, logger)
	productionService := production.NewService(production.NewRepository(pool), catalog, audit, cfg.TxConflictRetries, logger)

	fmt.Println("→ Seeding opening stock...")
	if err := seedOpeningStock(ctx, refs, inventoryService); err != nil {
		log.Fatalf("seed opening stock: %v", err)
	}

	fmt.Println("→ Seeding production run...")
	if err := seedProduction(ctx, refs, productionService); err != nil {
		log.Fatalf("seed production: %v", err)
	}

	fmt.Println("→ Seeding sales...")
	if err := seedSales(ctx, refs, salesService); err != nil {
		log.Fatalf("seed sales: %v", err)
	}

	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

// =============================================================================
// MASTER DATA
// =============================================================================

func seedMasterData(ctx context.Context, pool *pgxpool.Pool) error {
	products := []struct {
		code, name, category, unit string
		cost, price                string
	}{
		{"YRN-CTN-30S", "Cotton Combed Yarn 30s", "yarn", "kg", "52000", "0"},
		{"YRN-PES-150D", "Polyester Yarn 150D", "yarn", "kg", "31000", "0"},
		{"GRY-CTN-30S", "Grey Cotton Fabric 30s", "grey_fabric", "m", "18500", "24000"},
		{"FIN-CTN-30S-NVY", "Dyed Cotton 30s Navy", "finished_fabric", "m", "26000", "35000"},
	}
	for _, p := range products {
		if _, err := pool.Exec(ctx, `
			INSERT INTO products (code, name, category, unit, standard_cost, standard_price)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (code) DO NOTHING`, p.code, p.name, p.category, p.unit, p.cost, p.price); err != nil {
			return err
		}
	}

	for _, table := range []struct {
		name string
		rows [][2]string
	}{
		{"warehouses", [][2]string{{"WH-YRN", "Yarn Store"}, {"WH-GRY", "Grey Fabric Store"}, {"WH-FG", "Finished Goods"}}},
		{"branches", [][2]string{{"BR-BDG", "Bandung Showroom"}, {"BR-JKT", "Jakarta Showroom"}}},
		{"production_centers", [][2]string{{"PC-WEAVE", "Weaving Hall"}, {"PC-DYE", "Dyeing Line"}}},
	} {
		for _, row := range table.rows {
			query := fmt.Sprintf(`INSERT INTO %s (code, name) VALUES ($1, $2) ON CONFLICT (code) DO NOTHING`, table.name)
			if _, err := pool.Exec(ctx, query, row[0], row[1]); err != nil {
				return fmt.Errorf("%s: %w", table.name, err)
			}
		}
	}

	customers := []struct {
		code, name, kind, limit string
	}{
		{"CUS-WALKIN", "Walk-in Customer", "retail", "0"},
		{"CUS-GARMINDO", "PT Garmindo Sejahtera", "wholesale", "250000000"},
		{"CUS-BATIK", "CV Batik Lestari", "wholesale", "100000000"},
	}
	for _, c := range customers {
		if _, err := pool.Exec(ctx, `
			INSERT INTO customers (code, name, type, credit_limit)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (code) DO NOTHING`, c.code, c.name, c.kind, c.limit); err != nil {
			return err
		}
	}
	return nil
}

// references maps master data codes to their generated ids. Codes are unique
// across the seeded tables.
type references struct {
	ids map[string]int64
}

func loadRefs(ctx context.Context, pool *pgxpool.Pool) (references, error) {
	refs := references{ids: map[string]int64{}}
	for _, table := range []string{"products", "warehouses", "branches", "customers", "production_centers"} {
		rows, err := pool.Query(ctx, fmt.Sprintf(`SELECT id, code FROM %s`, table))
		if err != nil {
			return refs, fmt.Errorf("%s: %w", table, err)
		}
		for rows.Next() {
			var id int64
			var code string
			if err := rows.Scan(&id, &code); err != nil {
				rows.Close()
				return refs, err
			}
			refs.ids[code] = id
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return refs, err
		}
	}
	return refs, nil
}

// =============================================================================
// STOCK
// =============================================================================

func seedOpeningStock(ctx context.Context, refs references, svc *inventory.Service) error {
	opening := []struct {
		warehouse, product, qty string
	}{
		{"WH-YRN", "YRN-CTN-30S", "4000"},
		{"WH-YRN", "YRN-PES-150D", "1500"},
		{"WH-GRY", "GRY-CTN-30S", "2500"},
		{"WH-FG", "FIN-CTN-30S-NVY", "1200"},
	}
	for _, o := range opening {
		warehouseID, productID := refs.ids[o.warehouse], refs.ids[o.product]
		position, err := svc.GetPosition(ctx, warehouseID, productID)
		switch {
		case err == nil && !position.Quantity.IsZero():
			continue
		case err != nil && !errors.Is(err, shared.ErrNotFound):
			return err
		}
		if _, err := svc.Adjust(ctx, inventory.AdjustInput{
			ProductID:   productID,
			WarehouseID: warehouseID,
			Quantity:    decimal.RequireFromString(o.qty),
			Direction:   inventory.DirectionIn,
			Note:        "opening balance",
			ActorID:     seedActor,
		}); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// PRODUCTION & SALES
// =============================================================================

func seedProduction(ctx context.Context, refs references, svc *production.Service) error {
	logs, err := svc.ListLogs(ctx, production.LogFilter{})
	if err != nil {
		return err
	}
	if len(logs) > 0 {
		return nil
	}
	// Weaving: 1 kg of cotton yarn yields about 9.6 m of grey fabric.
	_, err = svc.RecordProduction(ctx, production.RecordInput{
		Date:              time.Now().UTC(),
		CenterID:          refs.ids["PC-WEAVE"],
		InputProductID:    refs.ids["YRN-CTN-30S"],
		InputWarehouseID:  refs.ids["WH-YRN"],
		InputQuantity:     decimal.NewFromInt(250),
		OutputProductID:   refs.ids["GRY-CTN-30S"],
		OutputWarehouseID: refs.ids["WH-GRY"],
		OutputQuantity:    decimal.NewFromInt(2400),
		RecordedBy:        seedActor,
	})
	return err
}

func seedSales(ctx context.Context, refs references, svc *sales.Service) error {
	finished := refs.ids["FIN-CTN-30S-NVY"]
	invoices := []sales.CreateInvoiceInput{
		{
			CustomerID:    refs.ids["CUS-WALKIN"],
			BranchID:      refs.ids["BR-BDG"],
			PaymentMethod: sales.PaymentCash,
			Items: []sales.Item{
				{ProductID: finished, Quantity: decimal.NewFromInt(45), Price: decimal.NewFromInt(35000)},
			},
			IssuedBy:       seedActor,
			IdempotencyKey: "seed-cash-0001",
		},
		{
			CustomerID:    refs.ids["CUS-GARMINDO"],
			BranchID:      refs.ids["BR-JKT"],
			PaymentMethod: sales.PaymentCredit,
			Items: []sales.Item{
				{ProductID: finished, Quantity: decimal.NewFromInt(300), Price: decimal.NewFromInt(34000)},
				{ProductID: finished, Quantity: decimal.RequireFromString("120.5"), Price: decimal.NewFromInt(33500)},
			},
			IssuedBy:       seedActor,
			IdempotencyKey: "seed-credit-0001",
		},
	}
	for _, input := range invoices {
		res, err := svc.CreateInvoice(ctx, input)
		if err != nil {
			// Re-running the seed replays the same keys.
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				continue
			}
			return err
		}
		fmt.Printf("  issued %s\n", res.InvoiceNumber)
	}
	return nil
}
