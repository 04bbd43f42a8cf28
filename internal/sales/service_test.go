package sales

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/helios-erp/helios-erp/internal/masterdata/products"
	"github.com/helios-erp/helios-erp/internal/shared"
)

type memoryRepo struct {
	sales     map[int64]Sale
	overrides map[int64][]PriceOverrideLog
	nextID    int64
	insertErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{sales: make(map[int64]Sale), overrides: make(map[int64][]PriceOverrideLog)}
}

func (m *memoryRepo) Insert(_ context.Context, sale Sale, overrides []PriceOverrideLog) (Sale, error) {
	if m.insertErr != nil {
		return Sale{}, m.insertErr
	}
	m.nextID++
	sale.ID = m.nextID
	sale.CreatedAt = time.Now()
	sale.UpdatedAt = sale.CreatedAt
	m.sales[sale.ID] = sale
	for i := range overrides {
		overrides[i].SaleID = sale.ID
	}
	m.overrides[sale.ID] = overrides
	return sale, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Sale, error) {
	sale, ok := m.sales[id]
	if !ok {
		return Sale{}, shared.ErrNotFound
	}
	return sale, nil
}

func (m *memoryRepo) List(_ context.Context, branchID int64, status *Status, _, _ int) ([]Sale, int, error) {
	var out []Sale
	for _, sale := range m.sales {
		if branchID > 0 && sale.BranchID != branchID {
			continue
		}
		if status != nil && sale.Status != *status {
			continue
		}
		out = append(out, sale)
	}
	return out, len(out), nil
}

func (m *memoryRepo) UpdateStatus(_ context.Context, id int64, from, to Status, at time.Time) error {
	sale, ok := m.sales[id]
	if !ok || sale.Status != from {
		return ErrBadTransition
	}
	sale.Status = to
	sale.UpdatedAt = at
	m.sales[id] = sale
	return nil
}

func (m *memoryRepo) ListOverrides(_ context.Context, saleID int64) ([]PriceOverrideLog, error) {
	return m.overrides[saleID], nil
}

type staticCatalog map[int64]products.Product

func (c staticCatalog) Get(_ context.Context, id int64) (products.Product, error) {
	p, ok := c[id]
	if !ok {
		return products.Product{}, shared.ErrNotFound
	}
	return p, nil
}

type recordingStock struct {
	deductions map[int64]float64
	failOn     int64
}

func (s *recordingStock) Deduct(_ context.Context, _, productID int64, qty float64, _ int64) error {
	if s.failOn != 0 && productID == s.failOn {
		return ErrInsufficientStock
	}
	if s.deductions == nil {
		s.deductions = make(map[int64]float64)
	}
	s.deductions[productID] += qty
	return nil
}

func (s *recordingStock) Restock(_ context.Context, _, productID int64, qty float64, _ int64) error {
	s.deductions[productID] -= qty
	return nil
}

func testCatalog() staticCatalog {
	return staticCatalog{
		1: {ID: 1, Name: "450W Panel", SellPrice: 120, MinSellPrice: 100},
		2: {ID: 2, Name: "DC Cable", SellPrice: 3, MinSellPrice: 2.5},
	}
}

func TestCheckoutDerivesTotals(t *testing.T) {
	repo := newMemoryRepo()
	stock := &recordingStock{}
	svc := NewService(repo, testCatalog(), stock, nil)

	sale, err := svc.Checkout(context.Background(), CheckoutInput{
		BranchID:  1,
		CashierID: 9,
		Lines: []LineInput{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 10, UnitPrice: 2.8},
		},
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, sale.Status)
	require.Equal(t, TierRetail, sale.CustomerTier)
	require.Equal(t, 240.0, sale.Items[0].LineTotal)
	require.Equal(t, 28.0, sale.Items[1].LineTotal)
	require.Equal(t, 268.0, sale.Total)
	require.Equal(t, 2.0, stock.deductions[1])
	require.Equal(t, 10.0, stock.deductions[2])
}

func TestCheckoutRestocksWhenDeductionFails(t *testing.T) {
	repo := newMemoryRepo()
	stock := &recordingStock{failOn: 2}
	svc := NewService(repo, testCatalog(), stock, nil)

	_, err := svc.Checkout(context.Background(), CheckoutInput{
		BranchID:  1,
		CashierID: 9,
		Lines: []LineInput{
			{ProductID: 1, Quantity: 3},
			{ProductID: 2, Quantity: 5},
		},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Empty(t, repo.sales)
	require.Equal(t, 0.0, stock.deductions[1])
}

func TestCheckoutRestocksWhenInsertFails(t *testing.T) {
	repo := newMemoryRepo()
	repo.insertErr = errors.New("boom")
	stock := &recordingStock{}
	svc := NewService(repo, testCatalog(), stock, nil)

	_, err := svc.Checkout(context.Background(), CheckoutInput{
		BranchID:  1,
		CashierID: 9,
		Lines:     []LineInput{{ProductID: 1, Quantity: 3}},
	})
	require.Error(t, err)
	require.Empty(t, repo.sales)
	require.Equal(t, 0.0, stock.deductions[1])
}

func TestCheckoutRejectsBelowMinWithoutOverride(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, testCatalog(), &recordingStock{}, nil)

	_, err := svc.Checkout(context.Background(), CheckoutInput{
		BranchID:  1,
		CashierID: 9,
		Lines:     []LineInput{{ProductID: 1, Quantity: 1, UnitPrice: 90}},
	})
	require.ErrorIs(t, err, ErrBelowMinPrice)
	require.Empty(t, repo.sales)
}

func TestCheckoutLogsAuthorizedOverride(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, testCatalog(), &recordingStock{}, nil)

	sale, err := svc.Checkout(context.Background(), CheckoutInput{
		BranchID:      1,
		CashierID:     9,
		Lines:         []LineInput{{ProductID: 1, Quantity: 1, UnitPrice: 90}},
		AllowOverride: true,
	})
	require.NoError(t, err)
	require.True(t, sale.Items[0].Overridden)

	logs, err := svc.Overrides(context.Background(), sale.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, 100.0, logs[0].MinSellPrice)
	require.Equal(t, 90.0, logs[0].SoldPrice)
	require.Equal(t, int64(9), logs[0].ActorID)
}

func TestCheckoutValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), testCatalog(), &recordingStock{}, nil)

	_, err := svc.Checkout(context.Background(), CheckoutInput{BranchID: 1})
	require.ErrorIs(t, err, ErrEmptySale)

	_, err = svc.Checkout(context.Background(), CheckoutInput{
		BranchID: 1,
		Lines:    []LineInput{{ProductID: 1, Quantity: -1}},
	})
	var lineErr *LineError
	require.ErrorAs(t, err, &lineErr)

	_, err = svc.Checkout(context.Background(), CheckoutInput{
		BranchID:     1,
		CustomerTier: "vip",
		Lines:        []LineInput{{ProductID: 1, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrBadTier)
}

func TestTransitions(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, testCatalog(), &recordingStock{}, nil)

	sale, err := svc.Checkout(context.Background(), CheckoutInput{
		BranchID: 1,
		Lines:    []LineInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	delivered, err := svc.Transition(context.Background(), sale.ID, StatusDelivered, 9)
	require.NoError(t, err)
	require.Equal(t, StatusDelivered, delivered.Status)

	// Final states reject further transitions.
	_, err = svc.Transition(context.Background(), sale.ID, StatusCancelled, 9)
	require.ErrorIs(t, err, ErrBadTransition)
}
