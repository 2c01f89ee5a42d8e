package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"xyz_store/internal/models"
	"xyz_store/internal/repository/memory"
)

// testClock avance d'une seconde à chaque lecture
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(time.Second)
	return now
}

type fixture struct {
	store     *memory.Store
	clock     *testClock
	ledger    *PricingLedger
	catalog   *Catalog
	reviews   *ReviewAggregator
	sales     *SaleRecorder
	orders    *OrderLedger
	analytics *Analytics
}

func newFixture(t *testing.T, extra ...Option) *fixture {
	t.Helper()

	store := memory.New()
	clock := &testClock{t: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
	opts := append([]Option{WithClock(clock.now)}, extra...)

	ledger := NewPricingLedger(store, store, opts...)
	sales := NewSaleRecorder(store, store, store, opts...)
	return &fixture{
		store:     store,
		clock:     clock,
		ledger:    ledger,
		catalog:   NewCatalog(store, store, ledger, opts...),
		reviews:   NewReviewAggregator(store, store, opts...),
		sales:     sales,
		orders:    NewOrderLedger(store, store, sales, opts...),
		analytics: NewAnalytics(store, store, store, opts...),
	}
}

func (f *fixture) category(t *testing.T, name string) models.Category {
	t.Helper()
	cat, err := f.catalog.CreateCategory(context.Background(), name, "")
	require.NoError(t, err)
	return cat
}

func (f *fixture) product(t *testing.T, cat models.Category, name, cost, price string, stock int) models.Product {
	t.Helper()
	p, err := f.catalog.CreateProduct(context.Background(), NewProduct{
		CategoryID: cat.ID,
		Name:       name,
		CostPrice:  dec(cost),
		Price:      dec(price),
		Stock:      stock,
		Available:  true,
		IsOnline:   true,
	}, nil)
	require.NoError(t, err)
	return p
}

func customer() models.CustomerInfo {
	return models.CustomerInfo{
		FirstName:  "Jeanne",
		LastName:   "Martin",
		Email:      "jeanne@example.com",
		Address:    "12 rue des Forges",
		PostalCode: "75011",
		City:       "Paris",
	}
}

func line(p models.Product, qty int) models.CartLine {
	return models.CartLine{ProductID: p.ID, Price: p.Price, Quantity: qty}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}

