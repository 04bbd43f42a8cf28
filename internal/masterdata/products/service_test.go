package products

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	mdshared "github.com/helios-erp/helios-erp/internal/masterdata/shared"
	"github.com/helios-erp/helios-erp/internal/platform/httpx"
	"github.com/helios-erp/helios-erp/internal/shared"
)

type memoryRepo struct {
	products map[int64]Product
	bySKU    map[string]int64
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[int64]Product), bySKU: make(map[string]int64)}
}

func (m *memoryRepo) List(_ context.Context, _ mdshared.ListFilters) ([]Product, int, error) {
	var out []Product
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Product, error) {
	p, ok := m.products[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) Create(_ context.Context, product Product) (Product, error) {
	if _, exists := m.bySKU[product.SKU]; exists {
		return Product{}, httpx.ErrDuplicate
	}
	m.nextID++
	product.ID = m.nextID
	m.products[product.ID] = product
	m.bySKU[product.SKU] = product.ID
	return product, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, product Product) error {
	if _, ok := m.products[id]; !ok {
		return shared.ErrNotFound
	}
	product.ID = id
	m.products[id] = product
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.products[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func validProduct() Product {
	return Product{
		SKU:          "PNL-450",
		Name:         "450W Panel",
		Category:     CategoryPanel,
		Unit:         UnitPiece,
		CostPrice:    80,
		SellPrice:    120,
		MinSellPrice: 100,
		IsActive:     true,
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())

	cases := []struct {
		name   string
		mutate func(*Product)
	}{
		{"missing sku", func(p *Product) { p.SKU = "  " }},
		{"missing name", func(p *Product) { p.Name = "" }},
		{"unknown category", func(p *Product) { p.Category = "furniture" }},
		{"unknown unit", func(p *Product) { p.Unit = "dozen" }},
		{"negative price", func(p *Product) { p.CostPrice = -1 }},
		{"min above sell", func(p *Product) { p.MinSellPrice = 130 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validProduct()
			tc.mutate(&p)
			_, err := svc.Create(context.Background(), p)
			require.ErrorIs(t, err, httpx.ErrValidation)
		})
	}

	created, err := svc.Create(context.Background(), validProduct())
	require.NoError(t, err)
	require.NotZero(t, created.ID)
}

func TestCreateSurfacesDuplicateSKU(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), validProduct())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validProduct())
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestUpdateAndDeleteRejectBadIDs(t *testing.T) {
	svc := NewService(newMemoryRepo())

	require.ErrorIs(t, svc.Update(context.Background(), 0, validProduct()), shared.ErrNotFound)
	require.ErrorIs(t, svc.Delete(context.Background(), -1), shared.ErrNotFound)

	_, err := svc.Get(context.Background(), 0)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUniqueViolationDetection(t *testing.T) {
	require.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	require.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	require.False(t, isUniqueViolation(context.DeadlineExceeded))
}

func TestSortOrderWhitelist(t *testing.T) {
	require.Equal(t, "sku ASC", sortOrder("sku", ""))
	require.Equal(t, "sell_price DESC", sortOrder("sell_price", "desc"))
	// Unknown columns fall back to the default ordering.
	require.Equal(t, "name ASC", sortOrder("cost_price; DROP TABLE products", ""))
}

func TestListFiltersDefaults(t *testing.T) {
	req := httptest.NewRequest("GET", "/?page=-2&limit=0", nil)
	filters := listFilters(req)
	require.Equal(t, 1, filters.Page)
	require.Equal(t, 20, filters.Limit)
	require.Zero(t, filters.Offset())

	req = httptest.NewRequest("GET", "/?page=3&limit=25&category=panel&is_active=true", nil)
	filters = listFilters(req)
	require.Equal(t, 50, filters.Offset())
	require.NotNil(t, filters.Category)
	require.Equal(t, "panel", *filters.Category)
	require.NotNil(t, filters.IsActive)
	require.True(t, *filters.IsActive)
}
