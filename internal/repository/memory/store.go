// Package memory garde toutes les données du magasin en mémoire, protégées
// par un seul verrou. Utilisé en développement (STORE_BACKEND=memory) et
// dans les tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"xyz_store/internal/models"
)

type reviewKey struct {
	productID uuid.UUID
	userID    string
}

type Store struct {
	mu sync.RWMutex

	categories     map[uuid.UUID]models.Category
	categoryBySlug map[string]uuid.UUID
	products       map[uuid.UUID]models.Product
	history        map[uuid.UUID][]models.ProductPriceHistory
	reviews        map[reviewKey]models.ProductReview
	orders         map[uuid.UUID]models.Order
	orderItems     map[uuid.UUID][]models.OrderItem
	sales          []models.Sale
	salesByOrder   map[uuid.UUID]bool
	saleByRef      map[string]models.Sale

	// FailHistory fait échouer les écritures d'historique (tests d'écriture best-effort)
	FailHistory error
}

func New() *Store {
	return &Store{
		categories:     make(map[uuid.UUID]models.Category),
		categoryBySlug: make(map[string]uuid.UUID),
		products:       make(map[uuid.UUID]models.Product),
		history:        make(map[uuid.UUID][]models.ProductPriceHistory),
		reviews:        make(map[reviewKey]models.ProductReview),
		orders:         make(map[uuid.UUID]models.Order),
		orderItems:     make(map[uuid.UUID][]models.OrderItem),
		salesByOrder:   make(map[uuid.UUID]bool),
		saleByRef:      make(map[string]models.Sale),
	}
}

// ---- Catalogue ----

func (s *Store) CreateCategory(_ context.Context, c models.Category) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.categoryBySlug[c.Slug]; exists {
		return false, nil
	}
	s.categories[c.ID] = c
	s.categoryBySlug[c.Slug] = c.ID
	return true, nil
}

func (s *Store) GetCategory(_ context.Context, id uuid.UUID) (models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return models.Category{}, models.ErrNotFound
	}
	return c, nil
}

func (s *Store) GetCategoryBySlug(_ context.Context, slug string) (models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.categoryBySlug[slug]
	if !ok {
		return models.Category{}, models.ErrNotFound
	}
	return s.categories[id], nil
}

func (s *Store) ListCategories(_ context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) CreateProduct(_ context.Context, p models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products[p.ID] = p
	return nil
}

func (s *Store) GetProduct(_ context.Context, id uuid.UUID) (models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return models.Product{}, models.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListProducts(_ context.Context) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) ListProductsByCategory(_ context.Context, categoryID uuid.UUID) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Product
	for _, p := range s.products {
		if p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) UpdateProduct(_ context.Context, before models.Product, patch models.ProductPatch, updatedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.products[before.ID]
	if !ok {
		return false, models.ErrNotFound
	}
	if current.Version != before.Version {
		return false, nil
	}

	next := patch.Apply(current)
	next.Version = current.Version + 1
	next.UpdatedAt = updatedAt
	s.products[next.ID] = next
	return true, nil
}

func (s *Store) SetOnline(_ context.Context, id uuid.UUID, online bool, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return models.ErrNotFound
	}
	p.IsOnline = online
	p.UpdatedAt = updatedAt
	s.products[id] = p
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, p models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.products, p.ID)
	delete(s.history, p.ID)
	for key := range s.reviews {
		if key.productID == p.ID {
			delete(s.reviews, key)
		}
	}
	return nil
}

// ---- Historique de prix ----

func (s *Store) AppendPriceHistory(_ context.Context, h models.ProductPriceHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailHistory != nil {
		return s.FailHistory
	}
	s.history[h.ProductID] = append(s.history[h.ProductID], h)
	return nil
}

func (s *Store) ListPriceHistory(_ context.Context, productID uuid.UUID) ([]models.ProductPriceHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.history[productID]
	out := make([]models.ProductPriceHistory, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, rows[i])
	}
	return out, nil
}

func (s *Store) DeletePriceHistory(_ context.Context, productID, historyID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.history[productID]
	for i, h := range rows {
		if h.ID == historyID {
			s.history[productID] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return models.ErrNotFound
}

// ---- Avis ----

func (s *Store) InsertReview(_ context.Context, r models.ProductReview) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := reviewKey{r.ProductID, r.UserID}
	if _, exists := s.reviews[key]; exists {
		return false, nil
	}
	s.reviews[key] = r
	return true, nil
}

func (s *Store) UpdateReview(_ context.Context, r models.ProductReview) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := reviewKey{r.ProductID, r.UserID}
	if _, exists := s.reviews[key]; !exists {
		return false, nil
	}
	s.reviews[key] = r
	return true, nil
}

func (s *Store) GetReview(_ context.Context, productID uuid.UUID, userID string) (models.ProductReview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reviews[reviewKey{productID, userID}]
	if !ok {
		return models.ProductReview{}, models.ErrNotFound
	}
	return r, nil
}

func (s *Store) DeleteReview(_ context.Context, productID uuid.UUID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.reviews, reviewKey{productID, userID})
	return nil
}

func (s *Store) ListReviews(_ context.Context, productID uuid.UUID) ([]models.ProductReview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ProductReview
	for key, r := range s.reviews {
		if key.productID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

// ---- Commandes ----

func (s *Store) CreateOrder(_ context.Context, o models.Order, items []models.OrderItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o.Items = nil
	s.orders[o.ID] = o
	s.orderItems[o.ID] = append([]models.OrderItem(nil), items...)
	return nil
}

func (s *Store) GetOrder(_ context.Context, id uuid.UUID) (models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, models.ErrNotFound
	}
	return o, nil
}

func (s *Store) ListOrderItems(_ context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.orders[orderID]; !ok {
		return nil, models.ErrNotFound
	}
	return append([]models.OrderItem(nil), s.orderItems[orderID]...), nil
}

func (s *Store) ListOrders(_ context.Context) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	return out, nil
}

func (s *Store) ListOrdersByUser(_ context.Context, userID string) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Order
	for _, o := range s.orders {
		if o.UserID != nil && *o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *Store) MarkPaid(_ context.Context, id uuid.UUID, method, paymentID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return false, models.ErrNotFound
	}
	if o.Paid {
		return false, nil
	}
	o.Paid = true
	o.PaymentMethod = method
	o.PaymentID = paymentID
	o.Status = models.StatusProcessing
	o.UpdatedAt = at
	s.orders[id] = o
	return true, nil
}

func (s *Store) UpdateStatus(_ context.Context, id uuid.UUID, from, to models.OrderStatus, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return false, models.ErrNotFound
	}
	if o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = at
	s.orders[id] = o
	return true, nil
}

// ---- Ventes ----

func (s *Store) CreateOrderSales(_ context.Context, orderID uuid.UUID, sales []models.Sale) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.salesByOrder[orderID] {
		return false, nil
	}
	s.salesByOrder[orderID] = true
	s.sales = append(s.sales, sales...)
	return true, nil
}

func (s *Store) CreateManualSale(_ context.Context, sale models.Sale) (models.Sale, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.saleByRef[sale.Reference]; ok {
		return existing, false, nil
	}
	s.saleByRef[sale.Reference] = sale
	s.sales = append(s.sales, sale)
	return sale, true, nil
}

func (s *Store) ListSalesByOrder(_ context.Context, orderID uuid.UUID) ([]models.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Sale
	for _, sale := range s.sales {
		if sale.OrderID != nil && *sale.OrderID == orderID {
			out = append(out, sale)
		}
	}
	return out, nil
}

func (s *Store) ListSalesSince(_ context.Context, since time.Time) ([]models.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Sale
	for _, sale := range s.sales {
		if !sale.Date.Before(since) {
			out = append(out, sale)
		}
	}
	return out, nil
}
