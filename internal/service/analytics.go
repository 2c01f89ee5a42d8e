package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"xyz_store/internal/models"
)

// Analytics calcule les indicateurs du back-office à la demande
type Analytics struct {
	catalog CatalogRepository
	orders  OrderRepository
	sales   SaleRepository
	opts    options
}

func NewAnalytics(catalog CatalogRepository, orders OrderRepository, sales SaleRepository, opts ...Option) *Analytics {
	return &Analytics{catalog: catalog, orders: orders, sales: sales, opts: buildOptions(opts)}
}

type Dashboard struct {
	TotalProducts     int             `json:"total_products"`
	AvailableProducts int             `json:"available_products"`
	OutOfStock        int             `json:"out_of_stock"`
	LowStock          int             `json:"low_stock"`
	TotalCategories   int             `json:"total_categories"`
	TotalOrders       int             `json:"total_orders"`
	PaidOrders        int             `json:"paid_orders"`
	PendingOrders     int             `json:"pending_orders"`
	Revenue           decimal.Decimal `json:"revenue"`
	ItemsSold         int             `json:"items_sold"`
}

func (a *Analytics) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard

	products, err := a.catalog.ListProducts(ctx)
	if err != nil {
		return d, err
	}
	d.TotalProducts = len(products)
	for _, p := range products {
		if p.Available {
			d.AvailableProducts++
		}
		switch {
		case p.Stock == 0:
			d.OutOfStock++
		case p.Stock <= a.opts.lowStockThreshold:
			d.LowStock++
		}
	}

	categories, err := a.catalog.ListCategories(ctx)
	if err != nil {
		return d, err
	}
	d.TotalCategories = len(categories)

	orders, err := a.orders.ListOrders(ctx)
	if err != nil {
		return d, err
	}
	d.TotalOrders = len(orders)
	d.Revenue = decimal.Zero
	for _, o := range orders {
		if o.Status == models.StatusPending {
			d.PendingOrders++
		}
		if !o.Paid {
			continue
		}
		d.PaidOrders++

		items, err := a.orders.ListOrderItems(ctx, o.ID)
		if err != nil {
			return d, err
		}
		d.Revenue = d.Revenue.Add(models.TotalCost(items))
		for _, item := range items {
			d.ItemsSold += item.Quantity
		}
	}

	return d, nil
}

type SalesPeriod struct {
	Label string          `json:"label"`
	Since time.Time       `json:"since"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// SalesSummary agrège les ventes du jour et des 7, 30 et 365 derniers jours
func (a *Analytics) SalesSummary(ctx context.Context) ([]SalesPeriod, error) {
	now := a.opts.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	periods := []SalesPeriod{
		{Label: "today", Since: today},
		{Label: "last_7_days", Since: now.AddDate(0, 0, -7)},
		{Label: "last_30_days", Since: now.AddDate(0, 0, -30)},
		{Label: "last_365_days", Since: now.AddDate(0, 0, -365)},
	}

	sales, err := a.sales.ListSalesSince(ctx, periods[len(periods)-1].Since)
	if err != nil {
		return nil, err
	}

	for i := range periods {
		periods[i].Total = decimal.Zero
		for _, s := range sales {
			if s.Date.Before(periods[i].Since) {
				continue
			}
			periods[i].Count++
			periods[i].Total = periods[i].Total.Add(s.TotalAmount())
		}
	}
	return periods, nil
}

type ProductMargin struct {
	ProductID        uuid.UUID       `json:"product_id"`
	Name             string          `json:"name"`
	CostPrice        decimal.Decimal `json:"cost_price"`
	Price            decimal.Decimal `json:"price"`
	Profit           decimal.Decimal `json:"profit"`
	MarginPercentage decimal.Decimal `json:"margin_percentage"`
}

// MarginReport liste les produits de la marge la plus faible à la plus forte
func (a *Analytics) MarginReport(ctx context.Context) ([]ProductMargin, error) {
	products, err := a.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	report := make([]ProductMargin, 0, len(products))
	for _, p := range products {
		report = append(report, ProductMargin{
			ProductID:        p.ID,
			Name:             p.Name,
			CostPrice:        p.CostPrice,
			Price:            p.Price,
			Profit:           p.Profit(),
			MarginPercentage: p.MarginPercentage(),
		})
	}
	sort.SliceStable(report, func(i, j int) bool {
		if report[i].MarginPercentage.Equal(report[j].MarginPercentage) {
			return report[i].Name < report[j].Name
		}
		return report[i].MarginPercentage.LessThan(report[j].MarginPercentage)
	})
	return report, nil
}

type InventoryValue struct {
	Units       int             `json:"units"`
	CostValue   decimal.Decimal `json:"cost_value"`
	RetailValue decimal.Decimal `json:"retail_value"`
}

func (a *Analytics) InventoryValue(ctx context.Context) (InventoryValue, error) {
	v := InventoryValue{CostValue: decimal.Zero, RetailValue: decimal.Zero}

	products, err := a.catalog.ListProducts(ctx)
	if err != nil {
		return v, err
	}
	for _, p := range products {
		qty := decimal.NewFromInt(int64(p.Stock))
		v.Units += p.Stock
		v.CostValue = v.CostValue.Add(p.CostPrice.Mul(qty))
		v.RetailValue = v.RetailValue.Add(p.Price.Mul(qty))
	}
	return v, nil
}
