package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xyz_store/internal/models"
)

func TestCreateProductRecordsInitialPrice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cat := f.category(t, "Outillage à main")
	assert.Equal(t, "outillage-a-main", cat.Slug)

	admin := "admin@xyz.store"
	p, err := f.catalog.CreateProduct(ctx, NewProduct{
		CategoryID: cat.ID,
		Name:       "Marteau de charpentier",
		CostPrice:  dec("6.50"),
		Price:      dec("12.90"),
		Stock:      20,
	}, &admin)
	require.NoError(t, err)
	assert.Equal(t, "marteau-de-charpentier", p.Slug)
	assert.Equal(t, int64(1), p.Version)

	rows, err := f.ledger.History(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.ReasonInitialPrice, rows[0].Reason)
	assert.True(t, rows[0].SellingPrice.Equal(dec("12.90")))
	assert.True(t, rows[0].CostPrice.Equal(dec("6.50")))
	require.NotNil(t, rows[0].ChangedBy)
	assert.Equal(t, admin, *rows[0].ChangedBy)
}

func TestCreateProductValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cat := f.category(t, "Quincaillerie")

	_, err := f.catalog.CreateProduct(ctx, NewProduct{CategoryID: cat.ID, Name: "Vis", Price: dec("-1")}, nil)
	assert.ErrorIs(t, err, models.ErrInvariantViolation)

	_, err = f.catalog.CreateProduct(ctx, NewProduct{CategoryID: cat.ID, Name: "Vis", Stock: -3}, nil)
	assert.ErrorIs(t, err, models.ErrInvariantViolation)

	_, err = f.catalog.CreateProduct(ctx, NewProduct{CategoryID: uuid.New(), Name: "Vis"}, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)

	products, err := f.catalog.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestDuplicateCategorySlug(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Jardin")

	_, err := f.catalog.CreateCategory(context.Background(), "Jardin", "")
	assert.ErrorIs(t, err, models.ErrInvariantViolation)
}

func TestUpdateProductAppendsHistoryOnlyOnPriceChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, f.category(t, "Outils"), "Scie égoïne", "8.00", "15.00", 10)

	// stock seul : pas de nouvelle ligne
	updated, err := f.catalog.UpdateProduct(ctx, p.ID, models.ProductPatch{Stock: ptr(7)}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Stock)
	assert.Equal(t, int64(2), updated.Version)

	rows, err := f.ledger.History(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	// prix de vente : une ligne
	admin := "gerant"
	updated, err = f.catalog.UpdateProduct(ctx, p.ID, models.ProductPatch{Price: ptr(dec("17.499"))}, &admin, "")
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(dec("17.50")))

	rows, err = f.ledger.History(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.ReasonPriceUpdated, rows[0].Reason)
	assert.True(t, rows[0].SellingPrice.Equal(dec("17.50")))
	assert.Equal(t, admin, *rows[0].ChangedBy)

	// même prix réécrit : rien
	_, err = f.catalog.UpdateProduct(ctx, p.ID, models.ProductPatch{Price: ptr(dec("17.50"))}, nil, "")
	require.NoError(t, err)

	// prix d'achat avec raison fournie
	_, err = f.catalog.UpdateProduct(ctx, p.ID, models.ProductPatch{CostPrice: ptr(dec("9.00"))}, nil, "Hausse fournisseur")
	require.NoError(t, err)

	rows, err = f.ledger.History(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Hausse fournisseur", rows[0].Reason)
}

func TestUpdateProductSurvivesHistoryFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, f.category(t, "Outils"), "Niveau à bulle", "4.00", "9.90", 5)

	f.store.FailHistory = errors.New("historique indisponible")
	updated, err := f.catalog.UpdateProduct(ctx, p.ID, models.ProductPatch{Price: ptr(dec("11.90"))}, nil, "")
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(dec("11.90")))
	f.store.FailHistory = nil

	stored, err := f.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, stored.Price.Equal(dec("11.90")))

	rows, err := f.ledger.History(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestUpdateProductRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, f.category(t, "Outils"), "Pince", "3.00", "7.00", 5)

	_, err := f.catalog.UpdateProduct(ctx, p.ID, models.ProductPatch{}, nil, "")
	assert.ErrorIs(t, err, models.ErrInvariantViolation)

	_, err = f.catalog.UpdateProduct(ctx, p.ID, models.ProductPatch{Stock: ptr(-1)}, nil, "")
	assert.ErrorIs(t, err, models.ErrInvariantViolation)

	_, err = f.catalog.UpdateProduct(ctx, uuid.New(), models.ProductPatch{Stock: ptr(1)}, nil, "")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

// conflictingRepo simule un autre écrivain qui gagne toujours la course
type conflictingRepo struct {
	CatalogRepository
	attempts int
}

func (r *conflictingRepo) UpdateProduct(context.Context, models.Product, models.ProductPatch, time.Time) (bool, error) {
	r.attempts++
	return false, nil
}

func TestUpdateProductGivesUpAfterConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, f.category(t, "Outils"), "Clé à molette", "5.00", "12.00", 5)

	repo := &conflictingRepo{CatalogRepository: f.store}
	catalog := NewCatalog(repo, f.store, f.ledger)

	_, err := catalog.UpdateProduct(ctx, p.ID, models.ProductPatch{Price: ptr(dec("13.00"))}, nil, "")
	assert.ErrorIs(t, err, models.ErrConcurrentUpdate)
	assert.Equal(t, maxUpdateAttempts, repo.attempts)

	rows, err := f.ledger.History(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestConcurrentPriceUpdatesAppendOneRowEach(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, f.category(t, "Outils"), "Mètre ruban", "2.00", "5.00", 5)

	var wg sync.WaitGroup
	for _, price := range []string{"6.00", "7.00"} {
		wg.Add(1)
		go func(price string) {
			defer wg.Done()
			_, err := f.catalog.UpdateProduct(ctx, p.ID, models.ProductPatch{Price: ptr(dec(price))}, nil, "")
			assert.NoError(t, err)
		}(price)
	}
	wg.Wait()

	rows, err := f.ledger.History(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	stored, err := f.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stored.Version)
}

func TestSetOnlineStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cat := f.category(t, "Peinture")
	a := f.product(t, cat, "Rouleau", "1.00", "3.00", 5)
	b := f.product(t, cat, "Pinceau", "0.50", "2.00", 5)

	n, err := f.catalog.SetOnlineStatus(ctx, []uuid.UUID{a.ID, b.ID}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	visible, err := f.catalog.ListAvailable(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, visible)

	// un identifiant inconnu : rien n'est modifié
	_, err = f.catalog.SetOnlineStatus(ctx, []uuid.UUID{a.ID, uuid.New()}, true)
	assert.ErrorIs(t, err, models.ErrNotFound)

	stored, err := f.catalog.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsOnline)

	rows, err := f.ledger.History(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestListAvailableAndGetBySlug(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tools := f.category(t, "Outils")
	garden := f.category(t, "Jardin")
	hammer := f.product(t, tools, "Marteau", "5.00", "10.00", 5)
	f.product(t, tools, "Burin", "3.00", "6.00", 5)
	f.product(t, garden, "Sécateur", "7.00", "14.00", 5)

	hidden, err := f.catalog.CreateProduct(ctx, NewProduct{
		CategoryID: tools.ID, Name: "Perceuse", Price: dec("80"), Available: false, IsOnline: true,
	}, nil)
	require.NoError(t, err)

	all, err := f.catalog.ListAvailable(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Burin", all[0].Name)

	inTools, err := f.catalog.ListAvailable(ctx, tools.Slug)
	require.NoError(t, err)
	assert.Len(t, inTools, 2)

	_, err = f.catalog.ListAvailable(ctx, "inconnue")
	assert.ErrorIs(t, err, models.ErrNotFound)

	got, err := f.catalog.GetBySlugAndID(ctx, hammer.ID, "marteau")
	require.NoError(t, err)
	assert.Equal(t, hammer.ID, got.ID)

	_, err = f.catalog.GetBySlugAndID(ctx, hammer.ID, "autre-slug")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.catalog.GetBySlugAndID(ctx, hidden.ID, hidden.Slug)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cat := f.category(t, "Outils")
	f.product(t, cat, "Marteau de charpentier", "5.00", "10.00", 5)
	f.product(t, cat, "Arrache-clou", "4.00", "9.00", 5)
	_, err := f.catalog.UpdateProduct(ctx, mustFind(t, f, "Arrache-clou").ID,
		models.ProductPatch{Description: ptr("Complément idéal du marteau, acier trempé")}, nil, "")
	require.NoError(t, err)
	f.product(t, cat, "Tournevis", "1.00", "3.00", 5)

	results, err := f.catalog.Search(ctx, "Marteau")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Marteau de charpentier", results[0].Name)
	assert.Equal(t, "Arrache-clou", results[1].Name)

	// un mot court ne cherche que dans les noms
	results, err = f.catalog.Search(ctx, "vis")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Tournevis", results[0].Name)

	// plusieurs mots : tous présents dans la description
	results, err = f.catalog.Search(ctx, "acier du marteau")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Arrache-clou", results[0].Name)

	results, err = f.catalog.Search(ctx, "acier inoxydable")
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = f.catalog.Search(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func mustFind(t *testing.T, f *fixture, name string) models.Product {
	t.Helper()
	products, err := f.catalog.ListProducts(context.Background())
	require.NoError(t, err)
	for _, p := range products {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("produit %q introuvable", name)
	return models.Product{}
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string][]models.Product
	hits        int
	invalidated int
}

func (c *fakeCache) GetProducts(_ context.Context, key string) ([]models.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	products, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return products, ok
}

func (c *fakeCache) SetProducts(_ context.Context, key string, products []models.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = products
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]models.Product)
	c.invalidated++
	return nil
}

func TestListAvailableUsesCache(t *testing.T) {
	ctx := context.Background()
	cache := &fakeCache{entries: make(map[string][]models.Product)}
	f := newFixture(t, WithCatalogCache(cache))
	p := f.product(t, f.category(t, "Outils"), "Équerre", "2.00", "4.00", 5)

	_, err := f.catalog.ListAvailable(ctx, "")
	require.NoError(t, err)
	_, err = f.catalog.ListAvailable(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)

	before := cache.invalidated
	_, err = f.catalog.UpdateProduct(ctx, p.ID, models.ProductPatch{Price: ptr(dec("4.50"))}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, before+1, cache.invalidated)

	list, err := f.catalog.ListAvailable(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Price.Equal(dec("4.50")))
}

func TestDeleteProductCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, f.category(t, "Outils"), "Lime", "1.00", "2.00", 5)
	_, err := f.reviews.SubmitReview(ctx, p.ID, "u1", ReviewInput{Rating: 4, Comment: "Correct"})
	require.NoError(t, err)

	require.NoError(t, f.catalog.DeleteProduct(ctx, p.ID))

	_, err = f.catalog.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	reviews, err := f.store.ListReviews(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, reviews)
	rows, err := f.store.ListPriceHistory(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDeleteProductWaitsForPendingOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, f.category(t, "Outils"), "Serre-joint", "6.00", "14.00", 5)
	order, err := f.orders.PlaceOrder(ctx, customer(), []models.CartLine{line(p, 1)}, nil)
	require.NoError(t, err)

	err = f.catalog.DeleteProduct(ctx, p.ID)
	assert.ErrorIs(t, err, models.ErrInvariantViolation)
	_, err = f.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)

	// une fois la commande annulée, plus rien n'attend le produit
	_, err = f.orders.SetStatus(ctx, order.ID, models.StatusCancelled)
	require.NoError(t, err)
	require.NoError(t, f.catalog.DeleteProduct(ctx, p.ID))
}

func TestDescriptionLengthsCountCharacters(t *testing.T) {
	desc := "profilé métallique, finition brossée"

	// "éta" fait 4 octets mais 3 caractères : trop court pour chercher dans la description
	assert.False(t, descriptionMatches(desc, "éta", []string{"éta"}))
	assert.True(t, descriptionMatches(desc, "métal", []string{"métal"}))

	// "té" est ignoré parmi plusieurs mots, il reste "brossée"
	assert.True(t, descriptionMatches(desc, "té brossée", []string{"té", "brossée"}))
	assert.False(t, descriptionMatches(desc, "té à", []string{"té", "à"}))
}
