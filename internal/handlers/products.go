package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"xyz_store/internal/middleware"
	"xyz_store/internal/models"
	"xyz_store/internal/service"
)

// ProductHandler sert la vitrine : catégories, produits visibles et avis
type ProductHandler struct {
	catalog *service.Catalog
	reviews *service.ReviewAggregator
}

func NewProductHandler(catalog *service.Catalog, reviews *service.ReviewAggregator) *ProductHandler {
	return &ProductHandler{catalog: catalog, reviews: reviews}
}

// publicProduct masque le prix d'achat
type publicProduct struct {
	ID          uuid.UUID       `json:"id"`
	CategoryID  uuid.UUID       `json:"category_id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	InStock     bool            `json:"in_stock"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toPublic(p models.Product) publicProduct {
	return publicProduct{
		ID:          p.ID,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       p.Price,
		InStock:     p.Stock > 0,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toPublicList(products []models.Product) []publicProduct {
	out := make([]publicProduct, 0, len(products))
	for _, p := range products {
		out = append(out, toPublic(p))
	}
	return out
}

func (h *ProductHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// ListProducts accepte ?category=<slug>
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListAvailable(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPublicList(products))
}

func (h *ProductHandler) Search(c *gin.Context) {
	products, err := h.catalog.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": c.Query("q"), "results": toPublicList(products)})
}

// GetProduct renvoie la fiche produit avec ses avis et sa note
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	p, err := h.catalog.GetBySlugAndID(ctx, id, c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	reviews, err := h.reviews.ListReviews(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": toPublic(p),
		"rating":  models.NewRating(id, reviews),
		"reviews": reviews,
	})
}

func (h *ProductHandler) SubmitReview(c *gin.Context) {
	h.writeReview(c, h.reviews.SubmitReview, http.StatusCreated)
}

func (h *ProductHandler) UpdateReview(c *gin.Context) {
	h.writeReview(c, h.reviews.UpdateReview, http.StatusOK)
}

type reviewWriter func(ctx context.Context, productID uuid.UUID, userID string, in service.ReviewInput) (models.ProductReview, error)

func (h *ProductHandler) writeReview(c *gin.Context, write reviewWriter, status int) {
	productID, ok := uuidParam(c, "product_id")
	if !ok {
		return
	}
	userID := middleware.UserID(c)
	if userID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	var in service.ReviewInput
	if !bindJSON(c, &in) {
		return
	}

	review, err := write(c.Request.Context(), productID, *userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, review)
}
