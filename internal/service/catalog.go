package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"xyz_store/internal/models"
	"xyz_store/internal/utils"
)

// nombre de relectures quand une autre écriture a changé la version du produit
const maxUpdateAttempts = 3

// Catalog gère catégories et produits ; toute modification de prix passe
// par le PricingLedger dans la même opération.
type Catalog struct {
	repo   CatalogRepository
	orders OrderRepository
	ledger *PricingLedger
	opts   options
}

// orders sert à refuser la suppression d'un produit encore attendu par une commande
func NewCatalog(repo CatalogRepository, orders OrderRepository, ledger *PricingLedger, opts ...Option) *Catalog {
	return &Catalog{repo: repo, orders: orders, ledger: ledger, opts: buildOptions(opts)}
}

// NewProduct regroupe les champs saisis à la création d'un produit
type NewProduct struct {
	CategoryID  uuid.UUID       `json:"category_id" binding:"required"`
	Name        string          `json:"name" binding:"required"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Available   bool            `json:"available"`
	IsOnline    bool            `json:"is_online"`
}

func (c *Catalog) CreateCategory(ctx context.Context, name, slug string) (models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, fmt.Errorf("nom de catégorie vide: %w", models.ErrInvariantViolation)
	}
	if slug == "" {
		slug = utils.Slugify(name)
	}

	cat := models.Category{ID: uuid.New(), Name: name, Slug: slug}
	applied, err := c.repo.CreateCategory(ctx, cat)
	if err != nil {
		return models.Category{}, err
	}
	if !applied {
		return models.Category{}, fmt.Errorf("slug %q déjà utilisé: %w", slug, models.ErrInvariantViolation)
	}

	log.Printf("📁 Catégorie créée: %s (%s)", cat.Name, cat.Slug)
	return cat, nil
}

func (c *Catalog) GetCategoryBySlug(ctx context.Context, slug string) (models.Category, error) {
	return c.repo.GetCategoryBySlug(ctx, slug)
}

// ListCategories renvoie les catégories triées par nom
func (c *Catalog) ListCategories(ctx context.Context) ([]models.Category, error) {
	cats, err := c.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	return cats, nil
}

// CreateProduct enregistre le produit puis sa première ligne d'historique de prix
func (c *Catalog) CreateProduct(ctx context.Context, in NewProduct, actor *string) (models.Product, error) {
	if _, err := c.repo.GetCategory(ctx, in.CategoryID); err != nil {
		return models.Product{}, fmt.Errorf("catégorie %s: %w", in.CategoryID, err)
	}

	now := c.opts.now()
	p := models.Product{
		ID:          uuid.New(),
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Slug:        in.Slug,
		Description: in.Description,
		CostPrice:   models.Money(in.CostPrice),
		Price:       models.Money(in.Price),
		Stock:       in.Stock,
		Available:   in.Available,
		IsOnline:    in.IsOnline,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Slug == "" {
		p.Slug = utils.Slugify(p.Name)
	}
	if err := validateProduct(p); err != nil {
		return models.Product{}, err
	}

	if err := c.repo.CreateProduct(ctx, p); err != nil {
		return models.Product{}, err
	}
	if _, err := c.ledger.RecordIfChanged(ctx, nil, p, actor, ""); err != nil {
		log.Printf("⚠️ Historique initial non enregistré pour %s: %v", p.ID, err)
	}
	c.invalidate(ctx)

	log.Printf("📦 Produit créé: %s (%s)", p.Name, p.ID)
	return p, nil
}

func (c *Catalog) GetProduct(ctx context.Context, id uuid.UUID) (models.Product, error) {
	return c.repo.GetProduct(ctx, id)
}

func (c *Catalog) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := c.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	sortByName(products)
	return products, nil
}

// UpdateProduct applique le patch avec une garde de version et, dans la même
// opération, consigne le changement de prix éventuel. Un échec d'écriture de
// l'historique est journalisé sans annuler la mise à jour.
func (c *Catalog) UpdateProduct(ctx context.Context, id uuid.UUID, patch models.ProductPatch, actor *string, reason string) (models.Product, error) {
	if patch.IsEmpty() {
		return models.Product{}, fmt.Errorf("aucune donnée à mettre à jour: %w", models.ErrInvariantViolation)
	}
	if patch.CategoryID != nil {
		if _, err := c.repo.GetCategory(ctx, *patch.CategoryID); err != nil {
			return models.Product{}, fmt.Errorf("catégorie %s: %w", *patch.CategoryID, err)
		}
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		before, err := c.repo.GetProduct(ctx, id)
		if err != nil {
			return models.Product{}, err
		}

		after := patch.Apply(before)
		if err := validateProduct(after); err != nil {
			return models.Product{}, err
		}

		now := c.opts.now()
		applied, err := c.repo.UpdateProduct(ctx, before, patch, now)
		if err != nil {
			return models.Product{}, err
		}
		if !applied {
			log.Printf("🔁 Conflit de version sur %s, nouvelle tentative", id)
			continue
		}
		after.Version = before.Version + 1
		after.UpdatedAt = now

		if _, err := c.ledger.RecordIfChanged(ctx, &before, after, actor, reason); err != nil {
			log.Printf("⚠️ Historique de prix non enregistré pour %s: %v", id, err)
		}
		c.invalidate(ctx)
		return after, nil
	}

	return models.Product{}, fmt.Errorf("produit %s: %w", id, models.ErrConcurrentUpdate)
}

// SetOnlineStatus bascule la visibilité vitrine/entrepôt sans toucher aux prix.
// Tous les identifiants doivent exister, sinon rien n'est modifié.
func (c *Catalog) SetOnlineStatus(ctx context.Context, ids []uuid.UUID, online bool) (int, error) {
	for _, id := range ids {
		if _, err := c.repo.GetProduct(ctx, id); err != nil {
			return 0, fmt.Errorf("produit %s: %w", id, err)
		}
	}

	now := c.opts.now()
	for _, id := range ids {
		if err := c.repo.SetOnline(ctx, id, online, now); err != nil {
			return 0, err
		}
	}
	c.invalidate(ctx)

	where := "l'entrepôt"
	if online {
		where = "la boutique en ligne"
	}
	log.Printf("✅ %d produit(s) déplacé(s) vers %s", len(ids), where)
	return len(ids), nil
}

// DeleteProduct refuse tant qu'une commande non payée et non annulée contient
// le produit : son paiement doit pouvoir créer les ventes.
func (c *Catalog) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	p, err := c.repo.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	orderID, pending, err := c.pendingOrderWith(ctx, id)
	if err != nil {
		return err
	}
	if pending {
		return fmt.Errorf("produit %s attendu par la commande %s: %w", id, orderID, models.ErrInvariantViolation)
	}
	if err := c.repo.DeleteProduct(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx)
	log.Printf("🗑️ Produit supprimé: %s", p.Name)
	return nil
}

// ListAvailable renvoie les produits visibles (available et is_online),
// éventuellement restreints à une catégorie.
func (c *Catalog) ListAvailable(ctx context.Context, categorySlug string) ([]models.Product, error) {
	key := "all"
	if categorySlug != "" {
		key = "category:" + categorySlug
	}
	if c.opts.cache != nil {
		if cached, ok := c.opts.cache.GetProducts(ctx, key); ok {
			return cached, nil
		}
	}

	var (
		products []models.Product
		err      error
	)
	if categorySlug != "" {
		cat, cerr := c.repo.GetCategoryBySlug(ctx, categorySlug)
		if cerr != nil {
			return nil, fmt.Errorf("catégorie %q: %w", categorySlug, cerr)
		}
		products, err = c.repo.ListProductsByCategory(ctx, cat.ID)
	} else {
		products, err = c.repo.ListProducts(ctx)
	}
	if err != nil {
		return nil, err
	}

	visible := filterVisible(products)
	if c.opts.cache != nil {
		c.opts.cache.SetProducts(ctx, key, visible)
	}
	return visible, nil
}

// GetBySlugAndID renvoie un produit visible dont l'id et le slug correspondent
func (c *Catalog) GetBySlugAndID(ctx context.Context, id uuid.UUID, slug string) (models.Product, error) {
	p, err := c.repo.GetProduct(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if p.Slug != slug || !p.Visible() {
		return models.Product{}, fmt.Errorf("produit %s/%s: %w", id, slug, models.ErrNotFound)
	}
	return p, nil
}

// Search cherche d'abord dans les noms, puis dans les descriptions :
// un mot seul doit faire plus de 3 caractères, plusieurs mots doivent tous
// (ceux de plus de 2 caractères) apparaître dans la description.
func (c *Catalog) Search(ctx context.Context, query string) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	products, err := c.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	visible := filterVisible(products)

	q := strings.ToLower(query)
	words := strings.Fields(q)

	var nameMatches, descMatches []models.Product
	for _, p := range visible {
		if strings.Contains(strings.ToLower(p.Name), q) {
			nameMatches = append(nameMatches, p)
			continue
		}
		if descriptionMatches(strings.ToLower(p.Description), q, words) {
			descMatches = append(descMatches, p)
		}
	}

	return append(nameMatches, descMatches...), nil
}

func (c *Catalog) pendingOrderWith(ctx context.Context, productID uuid.UUID) (uuid.UUID, bool, error) {
	orders, err := c.orders.ListOrders(ctx)
	if err != nil {
		return uuid.Nil, false, err
	}
	for _, o := range orders {
		if o.Paid || o.Status == models.StatusCancelled {
			continue
		}
		items, err := c.orders.ListOrderItems(ctx, o.ID)
		if err != nil {
			return uuid.Nil, false, err
		}
		for _, item := range items {
			if item.ProductID == productID {
				return o.ID, true, nil
			}
		}
	}
	return uuid.Nil, false, nil
}

// les longueurs se comptent en caractères, pas en octets
func descriptionMatches(desc, query string, words []string) bool {
	if len(words) == 1 {
		return utf8.RuneCountInString(words[0]) > 3 && strings.Contains(desc, query)
	}
	matched := false
	for _, w := range words {
		if utf8.RuneCountInString(w) <= 2 {
			continue
		}
		if !strings.Contains(desc, w) {
			return false
		}
		matched = true
	}
	return matched
}

func (c *Catalog) invalidate(ctx context.Context) {
	if c.opts.cache == nil {
		return
	}
	if err := c.opts.cache.Invalidate(ctx); err != nil {
		log.Printf("⚠️ Invalidation du cache catalogue échouée: %v", err)
	}
}

func validateProduct(p models.Product) error {
	switch {
	case p.Name == "":
		return fmt.Errorf("nom de produit vide: %w", models.ErrInvariantViolation)
	case p.CostPrice.IsNegative():
		return fmt.Errorf("prix d'achat négatif: %w", models.ErrInvariantViolation)
	case p.Price.IsNegative():
		return fmt.Errorf("prix de vente négatif: %w", models.ErrInvariantViolation)
	case p.Stock < 0:
		return fmt.Errorf("stock négatif: %w", models.ErrInvariantViolation)
	}
	return nil
}

func filterVisible(products []models.Product) []models.Product {
	visible := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.Visible() {
			visible = append(visible, p)
		}
	}
	sortByName(visible)
	return visible
}

func sortByName(products []models.Product) {
	sort.SliceStable(products, func(i, j int) bool { return products[i].Name < products[j].Name })
}
