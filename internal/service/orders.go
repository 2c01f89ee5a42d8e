package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"xyz_store/internal/models"
)

// OrderLedger transforme un panier en commande et porte la bascule de paiement
type OrderLedger struct {
	orders  OrderRepository
	catalog CatalogRepository
	sales   *SaleRecorder
	opts    options
}

func NewOrderLedger(orders OrderRepository, catalog CatalogRepository, sales *SaleRecorder, opts ...Option) *OrderLedger {
	return &OrderLedger{orders: orders, catalog: catalog, sales: sales, opts: buildOptions(opts)}
}

// PlaceOrder crée la commande et une ligne par produit du panier, au prix
// courant du produit. Le stock n'est ni vérifié ni décrémenté.
// Le panier doit être vidé par l'appelant après succès.
func (l *OrderLedger) PlaceOrder(ctx context.Context, info models.CustomerInfo, lines []models.CartLine, userID *string) (models.Order, error) {
	if len(lines) == 0 {
		return models.Order{}, models.ErrEmptyCart
	}
	if missing := info.MissingFields(); len(missing) > 0 {
		return models.Order{}, fmt.Errorf("champs manquants %s: %w", strings.Join(missing, ", "), models.ErrInvariantViolation)
	}
	if userID != nil && *userID == "" {
		userID = nil
	}

	merged, err := mergeLines(lines)
	if err != nil {
		return models.Order{}, err
	}

	now := l.opts.now()
	order := models.Order{
		ID:         uuid.New(),
		UserID:     userID,
		FirstName:  strings.TrimSpace(info.FirstName),
		LastName:   strings.TrimSpace(info.LastName),
		Email:      strings.TrimSpace(info.Email),
		Address:    strings.TrimSpace(info.Address),
		PostalCode: strings.TrimSpace(info.PostalCode),
		City:       strings.TrimSpace(info.City),
		Status:     models.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	items := make([]models.OrderItem, 0, len(merged))
	for _, line := range merged {
		p, err := l.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			return models.Order{}, fmt.Errorf("produit %s: %w", line.ProductID, err)
		}
		if !p.Available {
			return models.Order{}, fmt.Errorf("produit %s indisponible: %w", p.Name, models.ErrInvariantViolation)
		}
		items = append(items, models.OrderItem{
			ID:        uuid.Must(uuid.NewUUID()),
			OrderID:   order.ID,
			ProductID: p.ID,
			Price:     p.Price,
			Quantity:  line.Quantity,
		})
	}

	if err := l.orders.CreateOrder(ctx, order, items); err != nil {
		return models.Order{}, err
	}
	order.Items = items

	log.Printf("🛒 Commande %s créée: %d ligne(s), total %s", order.ID, len(items), order.TotalCost().StringFixed(2))
	return order, nil
}

// mergeLines regroupe les lignes d'un même produit en conservant l'ordre d'arrivée
func mergeLines(lines []models.CartLine) ([]models.CartLine, error) {
	index := make(map[uuid.UUID]int, len(lines))
	merged := make([]models.CartLine, 0, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("quantité %d pour %s: %w", line.Quantity, line.ProductID, models.ErrInvariantViolation)
		}
		if i, ok := index[line.ProductID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}

// GetOrder charge la commande avec ses lignes
func (l *OrderLedger) GetOrder(ctx context.Context, id uuid.UUID) (models.Order, error) {
	order, err := l.orders.GetOrder(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	items, err := l.orders.ListOrderItems(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	order.Items = items
	return order, nil
}

func (l *OrderLedger) TotalCost(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	items, err := l.orders.ListOrderItems(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return models.TotalCost(items), nil
}

// ListOrders renvoie toutes les commandes, les plus récentes d'abord
func (l *OrderLedger) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := l.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(orders)
	return orders, nil
}

func (l *OrderLedger) ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := l.orders.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(orders)
	return orders, nil
}

// MarkPaid bascule paid à true une seule fois, passe le statut à processing
// puis enregistre les ventes. Un second appel renvoie ErrAlreadyPaid.
// Si l'enregistrement des ventes échoue, la commande payée est renvoyée avec
// l'erreur ; Reconcile rattrape ces commandes.
func (l *OrderLedger) MarkPaid(ctx context.Context, id uuid.UUID, method, paymentID string) (models.Order, error) {
	if !models.ValidPaymentMethod(method) {
		return models.Order{}, fmt.Errorf("moyen de paiement %q: %w", method, models.ErrInvariantViolation)
	}

	order, err := l.GetOrder(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	if order.Paid {
		return order, fmt.Errorf("commande %s: %w", id, models.ErrAlreadyPaid)
	}
	if order.Status == models.StatusCancelled {
		return order, fmt.Errorf("commande %s annulée: %w", id, models.ErrInvariantViolation)
	}
	if paymentID == "" {
		paymentID = NewPaymentID()
	}

	now := l.opts.now()
	applied, err := l.orders.MarkPaid(ctx, id, method, paymentID, now)
	if err != nil {
		return models.Order{}, err
	}
	if !applied {
		return order, fmt.Errorf("commande %s: %w", id, models.ErrAlreadyPaid)
	}

	order.Paid = true
	order.PaymentMethod = method
	order.PaymentID = paymentID
	order.Status = models.StatusProcessing
	order.UpdatedAt = now
	log.Printf("💳 Commande %s payée (%s, %s)", id, method, paymentID)

	if _, err := l.sales.OnOrderPaid(ctx, order); err != nil {
		log.Printf("❌ Ventes non enregistrées pour la commande %s: %v", id, err)
		return order, fmt.Errorf("ventes de la commande %s: %w", id, err)
	}

	if l.opts.notifier != nil {
		notifyCtx := context.WithoutCancel(ctx)
		go func(o models.Order) {
			if err := l.opts.notifier.OrderPaid(notifyCtx, o); err != nil {
				log.Printf("⚠️ Confirmation non envoyée pour la commande %s: %v", o.ID, err)
			}
		}(order)
	}

	return order, nil
}

// SetStatus applique une transition de statut par le personnel.
// Demander le statut courant ne change rien.
func (l *OrderLedger) SetStatus(ctx context.Context, id uuid.UUID, next models.OrderStatus) (models.Order, error) {
	if !next.Valid() {
		return models.Order{}, fmt.Errorf("statut %q: %w", next, models.ErrInvariantViolation)
	}

	order, err := l.orders.GetOrder(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	if order.Status == next {
		return order, nil
	}
	if !order.Status.CanTransition(next) {
		return models.Order{}, fmt.Errorf("transition %s -> %s: %w", order.Status, next, models.ErrInvariantViolation)
	}

	now := l.opts.now()
	applied, err := l.orders.UpdateStatus(ctx, id, order.Status, next, now)
	if err != nil {
		return models.Order{}, err
	}
	if !applied {
		return models.Order{}, fmt.Errorf("commande %s: %w", id, models.ErrConcurrentUpdate)
	}

	log.Printf("📦 Commande %s: %s -> %s", id, order.Status, next)
	order.Status = next
	order.UpdatedAt = now
	return order, nil
}

// NewPaymentID génère un identifiant de paiement simulé "PAY-XXXXXXXXXXXX"
func NewPaymentID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "PAY-" + strings.ToUpper(hex[:12])
}

func sortNewestFirst(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
