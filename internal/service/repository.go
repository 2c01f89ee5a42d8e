package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"xyz_store/internal/models"
)

// Les dépôts renvoient models.ErrNotFound quand une entité n'existe pas.
// Les méthodes qui renvoient un booléen "applied" portent une condition
// atomique (équivalent d'une transaction légère ScyllaDB) : false signifie
// que la condition n'était pas remplie et que rien n'a été écrit.

type CatalogRepository interface {
	CreateCategory(ctx context.Context, c models.Category) (bool, error) // false si le slug existe déjà
	GetCategory(ctx context.Context, id uuid.UUID) (models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)

	CreateProduct(ctx context.Context, p models.Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListProductsByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Product, error)
	// UpdateProduct applique le patch si la version stockée vaut encore before.Version
	UpdateProduct(ctx context.Context, before models.Product, patch models.ProductPatch, updatedAt time.Time) (bool, error)
	SetOnline(ctx context.Context, id uuid.UUID, online bool, updatedAt time.Time) error
	// DeleteProduct supprime aussi l'historique de prix et les avis du produit
	DeleteProduct(ctx context.Context, p models.Product) error
}

type PriceHistoryRepository interface {
	AppendPriceHistory(ctx context.Context, h models.ProductPriceHistory) error
	ListPriceHistory(ctx context.Context, productID uuid.UUID) ([]models.ProductPriceHistory, error) // plus récent d'abord
	DeletePriceHistory(ctx context.Context, productID, historyID uuid.UUID) error
}

type ReviewRepository interface {
	InsertReview(ctx context.Context, r models.ProductReview) (bool, error) // false si (produit, utilisateur) existe
	UpdateReview(ctx context.Context, r models.ProductReview) (bool, error) // false si l'avis n'existe pas
	GetReview(ctx context.Context, productID uuid.UUID, userID string) (models.ProductReview, error)
	DeleteReview(ctx context.Context, productID uuid.UUID, userID string) error
	ListReviews(ctx context.Context, productID uuid.UUID) ([]models.ProductReview, error)
}

type OrderRepository interface {
	// CreateOrder écrit la commande et ses lignes en une seule opération
	CreateOrder(ctx context.Context, o models.Order, items []models.OrderItem) error
	GetOrder(ctx context.Context, id uuid.UUID) (models.Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
	// MarkPaid bascule paid=false -> true et status -> processing, une seule fois
	MarkPaid(ctx context.Context, id uuid.UUID, method, paymentID string, at time.Time) (bool, error)
	// UpdateStatus ne s'applique que si le statut stocké vaut encore from
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus, at time.Time) (bool, error)
}

type SaleRepository interface {
	// CreateOrderSales vérifie qu'aucune vente n'existe pour la commande et
	// crée le lot dans la même opération ; false si des ventes existaient déjà
	CreateOrderSales(ctx context.Context, orderID uuid.UUID, sales []models.Sale) (bool, error)
	// CreateManualSale est idempotent sur sale.Reference ; renvoie la vente
	// stockée et false si la référence était déjà utilisée
	CreateManualSale(ctx context.Context, sale models.Sale) (models.Sale, bool, error)
	ListSalesByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Sale, error)
	ListSalesSince(ctx context.Context, since time.Time) ([]models.Sale, error)
}

// CatalogCache garde les listes de produits visibles en vitrine
type CatalogCache interface {
	GetProducts(ctx context.Context, key string) ([]models.Product, bool)
	SetProducts(ctx context.Context, key string, products []models.Product)
	Invalidate(ctx context.Context) error
}

// Notifier est prévenu après un paiement réussi
type Notifier interface {
	OrderPaid(ctx context.Context, order models.Order) error
}
