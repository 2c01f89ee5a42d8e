package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"xyz_store/internal/models"
)

// SaleRecorder dérive les lignes de vente des commandes payées, une seule fois par commande
type SaleRecorder struct {
	sales   SaleRepository
	orders  OrderRepository
	catalog CatalogRepository
	opts    options
}

func NewSaleRecorder(sales SaleRepository, orders OrderRepository, catalog CatalogRepository, opts ...Option) *SaleRecorder {
	return &SaleRecorder{sales: sales, orders: orders, catalog: catalog, opts: buildOptions(opts)}
}

// OnOrderPaid crée une vente par ligne de commande. Sans effet si la commande
// n'est pas payée ou si ses ventes existent déjà. Renvoie le nombre de ventes créées.
func (r *SaleRecorder) OnOrderPaid(ctx context.Context, order models.Order) (int, error) {
	if !order.Paid {
		return 0, nil
	}

	items, err := r.orders.ListOrderItems(ctx, order.ID)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}

	orderID := order.ID
	sales := make([]models.Sale, 0, len(items))
	for _, item := range items {
		p, err := r.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			return 0, fmt.Errorf("produit %s de la commande %s: %w", item.ProductID, order.ID, err)
		}
		sales = append(sales, models.Sale{
			ID:         uuid.Must(uuid.NewUUID()),
			OrderID:    &orderID,
			Date:       order.CreatedAt,
			CategoryID: p.CategoryID,
			ProductID:  item.ProductID,
			SoldPrice:  item.Price,
			Quantity:   item.Quantity,
		})
	}

	applied, err := r.sales.CreateOrderSales(ctx, order.ID, sales)
	if err != nil {
		return 0, err
	}
	if !applied {
		log.Printf("ℹ️ Ventes déjà enregistrées pour la commande %s", order.ID)
		return 0, nil
	}

	log.Printf("📈 %d vente(s) enregistrée(s) pour la commande %s", len(sales), order.ID)
	return len(sales), nil
}

// Reconcile rejoue OnOrderPaid pour toutes les commandes payées ; utile
// après un import qui a positionné paid directement. Une commande en échec est
// journalisée sans bloquer les suivantes. Renvoie le nombre de ventes créées.
func (r *SaleRecorder) Reconcile(ctx context.Context) (int, error) {
	orders, err := r.orders.ListOrders(ctx)
	if err != nil {
		return 0, err
	}

	created, failed := 0, 0
	for _, o := range orders {
		n, err := r.OnOrderPaid(ctx, o)
		if err != nil {
			log.Printf("❌ Réconciliation de la commande %s: %v", o.ID, err)
			failed++
			continue
		}
		created += n
	}

	log.Printf("✅ Réconciliation terminée: %d vente(s) créée(s), %d commande(s) en échec", created, failed)
	return created, nil
}

// ManualSale décrit une vente en magasin, sans commande associée
type ManualSale struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	SoldPrice decimal.Decimal `json:"sold_price"`
	Quantity  int             `json:"quantity" binding:"required"`
	Reference string          `json:"reference" binding:"required"`
}

// RecordManualSale enregistre une vente hors commande. La référence rend
// l'opération idempotente : la rejouer renvoie la vente existante et false.
func (r *SaleRecorder) RecordManualSale(ctx context.Context, in ManualSale) (models.Sale, bool, error) {
	in.Reference = strings.TrimSpace(in.Reference)
	switch {
	case in.Reference == "":
		return models.Sale{}, false, fmt.Errorf("référence manquante: %w", models.ErrInvariantViolation)
	case in.Quantity < 1:
		return models.Sale{}, false, fmt.Errorf("quantité %d: %w", in.Quantity, models.ErrInvariantViolation)
	case in.SoldPrice.IsNegative():
		return models.Sale{}, false, fmt.Errorf("prix de vente négatif: %w", models.ErrInvariantViolation)
	}

	p, err := r.catalog.GetProduct(ctx, in.ProductID)
	if err != nil {
		return models.Sale{}, false, err
	}

	sale := models.Sale{
		ID:         uuid.Must(uuid.NewUUID()),
		Date:       r.opts.now(),
		CategoryID: p.CategoryID,
		ProductID:  p.ID,
		SoldPrice:  models.Money(in.SoldPrice),
		Quantity:   in.Quantity,
		Reference:  in.Reference,
	}

	stored, created, err := r.sales.CreateManualSale(ctx, sale)
	if err != nil {
		return models.Sale{}, false, err
	}
	if created {
		log.Printf("🧾 Vente manuelle %s: %d x %s", stored.Reference, stored.Quantity, p.Name)
	}
	return stored, created, nil
}

func (r *SaleRecorder) ListSalesByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Sale, error) {
	return r.sales.ListSalesByOrder(ctx, orderID)
}
