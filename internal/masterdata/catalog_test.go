package masterdata

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/textile-erp/internal/shared"
)

type countingStore struct {
	mu        sync.Mutex
	products  map[int64]Product
	customers map[int64]Customer
	calls     map[string]int
}

func newCountingStore() *countingStore {
	return &countingStore{
		products: map[int64]Product{
			1: {ID: 1, Code: "YRN-30S", Name: "Cotton yarn 30s", Unit: "kg", StandardPrice: decimal.RequireFromString("42000"), Status: ProductActive},
		},
		customers: map[int64]Customer{
			5: {ID: 5, Code: "CUS-005", Name: "Batik Sentosa", CreditLimit: decimal.NewFromInt(50000000), Status: CustomerActive},
		},
		calls: map[string]int{},
	}
}

func (s *countingStore) hit(kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[kind]++
}

func (s *countingStore) count(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[kind]
}

func (s *countingStore) GetProduct(_ context.Context, id int64) (Product, error) {
	s.hit("product")
	p, ok := s.products[id]
	if !ok {
		return Product{}, shared.NotFound("product", id)
	}
	return p, nil
}

func (s *countingStore) GetWarehouse(_ context.Context, id int64) (Warehouse, error) {
	s.hit("warehouse")
	return Warehouse{ID: id, Code: "WH", Name: "Gudang"}, nil
}

func (s *countingStore) GetBranch(_ context.Context, id int64) (Branch, error) {
	s.hit("branch")
	return Branch{}, shared.NotFound("branch", id)
}

func (s *countingStore) GetCustomer(_ context.Context, id int64) (Customer, error) {
	s.hit("customer")
	c, ok := s.customers[id]
	if !ok {
		return Customer{}, shared.NotFound("customer", id)
	}
	return c, nil
}

func (s *countingStore) GetProductionCenter(_ context.Context, id int64) (ProductionCenter, error) {
	s.hit("center")
	return ProductionCenter{ID: id, Code: "WEAVE", Name: "Weaving"}, nil
}

func (s *countingStore) ListProducts(context.Context) ([]Product, error) {
	return []Product{s.products[1]}, nil
}

func (s *countingStore) ListWarehouses(context.Context) ([]Warehouse, error) {
	return []Warehouse{{ID: 1, Code: "WH", Name: "Gudang"}}, nil
}

func newTestCatalog(t *testing.T) (*Catalog, *countingStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := newCountingStore()
	return NewCatalog(store, NewCache(client, time.Minute), nil), store, mr
}

func TestCatalogCachesLookups(t *testing.T) {
	catalog, store, _ := newTestCatalog(t)
	ctx := context.Background()

	first, err := catalog.Product(ctx, 1)
	require.NoError(t, err)
	second, err := catalog.Product(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, "YRN-30S", second.Code)
	assert.True(t, first.StandardPrice.Equal(second.StandardPrice))
	assert.Equal(t, 1, store.count("product"))
}

func TestCatalogDoesNotCacheMisses(t *testing.T) {
	catalog, store, _ := newTestCatalog(t)
	ctx := context.Background()

	_, err := catalog.Customer(ctx, 99)
	require.True(t, errors.Is(err, shared.ErrNotFound))
	_, err = catalog.Customer(ctx, 99)
	require.True(t, errors.Is(err, shared.ErrNotFound))
	assert.Equal(t, 2, store.count("customer"))
}

func TestCatalogInvalidateForcesReload(t *testing.T) {
	catalog, store, _ := newTestCatalog(t)
	ctx := context.Background()

	_, err := catalog.Customer(ctx, 5)
	require.NoError(t, err)
	version, err := catalog.Invalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	_, err = catalog.Customer(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, store.count("customer"))
}

func TestCatalogFallsBackWhenRedisIsDown(t *testing.T) {
	catalog, store, mr := newTestCatalog(t)
	mr.Close()

	c, err := catalog.ProductionCenter(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "WEAVE", c.Code)
	assert.Equal(t, 1, store.count("center"))
}

func TestCatalogWithoutCacheHitsStore(t *testing.T) {
	store := newCountingStore()
	catalog := NewCatalog(store, nil, nil)

	for i := 0; i < 3; i++ {
		_, err := catalog.Warehouse(context.Background(), 1)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, store.count("warehouse"))
}

func TestReferenceMapsNotFoundToValidation(t *testing.T) {
	err := Reference(shared.NotFound("branch", 4), "branch_id")
	var ve *shared.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "branch_id", ve.Field)

	boom := errors.New("boom")
	assert.ErrorIs(t, Reference(boom, "branch_id"), boom)
	assert.NoError(t, Reference(nil, "branch_id"))
}

func TestInvalidationsDeliversBumps(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan int64, 1)
	cache.Invalidations(ctx, func(v int64) { got <- v })

	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels("masterdata.*")) == 1
	}, time.Second, 10*time.Millisecond)

	_, err := cache.Bump(ctx)
	require.NoError(t, err)
	select {
	case v := <-got:
		assert.Equal(t, int64(1), v)
	case <-time.After(2 * time.Second):
		t.Fatal("bump not delivered")
	}
}
