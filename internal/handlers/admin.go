package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"xyz_store/internal/middleware"
	"xyz_store/internal/models"
	"xyz_store/internal/service"
)

// AdminHandler regroupe les opérations du personnel
type AdminHandler struct {
	catalog   *service.Catalog
	pricing   *service.PricingLedger
	reviews   *service.ReviewAggregator
	orders    *service.OrderLedger
	sales     *service.SaleRecorder
	analytics *service.Analytics
}

type AdminServices struct {
	Catalog   *service.Catalog
	Pricing   *service.PricingLedger
	Reviews   *service.ReviewAggregator
	Orders    *service.OrderLedger
	Sales     *service.SaleRecorder
	Analytics *service.Analytics
}

func NewAdminHandler(s AdminServices) *AdminHandler {
	return &AdminHandler{
		catalog:   s.Catalog,
		pricing:   s.Pricing,
		reviews:   s.Reviews,
		orders:    s.Orders,
		sales:     s.Sales,
		analytics: s.Analytics,
	}
}

// ---- Catalogue ----

func (h *AdminHandler) CreateCategory(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
		Slug string `json:"slug"`
	}
	if !bindJSON(c, &req) {
		return
	}
	cat, err := h.catalog.CreateCategory(c.Request.Context(), req.Name, req.Slug)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *AdminHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *AdminHandler) CreateProduct(c *gin.Context) {
	var in service.NewProduct
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.catalog.CreateProduct(c.Request.Context(), in, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// GetProduct renvoie la fiche complète, prix d'achat et marge compris
func (h *AdminHandler) GetProduct(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	p, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product":           p,
		"profit":            p.Profit(),
		"margin_percentage": p.MarginPercentage(),
	})
}

func (h *AdminHandler) UpdateProduct(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		models.ProductPatch
		Reason string `json:"reason"`
	}
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.catalog.UpdateProduct(c.Request.Context(), id, req.ProductPatch, middleware.UserID(c), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *AdminHandler) DeleteProduct(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Produit supprimé"})
}

// SetOnline déplace un lot de produits vers la boutique ou l'entrepôt
func (h *AdminHandler) SetOnline(c *gin.Context) {
	var req struct {
		ProductIDs []uuid.UUID `json:"product_ids" binding:"required,min=1"`
		Online     bool        `json:"online"`
	}
	if !bindJSON(c, &req) {
		return
	}
	n, err := h.catalog.SetOnlineStatus(c.Request.Context(), req.ProductIDs, req.Online)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n, "online": req.Online})
}

// ---- Historique des prix ----

func (h *AdminHandler) PriceHistory(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	history, err := h.pricing.History(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *AdminHandler) DeletePriceHistory(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	historyID, ok := uuidParam(c, "history_id")
	if !ok {
		return
	}
	if err := h.pricing.Delete(c.Request.Context(), id, historyID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ligne d'historique supprimée"})
}

func (h *AdminHandler) BackfillPriceHistory(c *gin.Context) {
	n, err := h.pricing.Backfill(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": n})
}

// ---- Avis ----

func (h *AdminHandler) DeleteReview(c *gin.Context) {
	productID, ok := uuidParam(c, "product_id")
	if !ok {
		return
	}
	if err := h.reviews.DeleteReview(c.Request.Context(), productID, c.Param("user_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Avis supprimé"})
}

// ---- Commandes et ventes ----

func (h *AdminHandler) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *AdminHandler) SetOrderStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orders.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *AdminHandler) OrderSales(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	sales, err := h.sales.ListSalesByOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

func (h *AdminHandler) ReconcileSales(c *gin.Context) {
	n, err := h.sales.Reconcile(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": n})
}

// ManualSale répond 201 à la première saisie, 200 quand la référence existe déjà
func (h *AdminHandler) ManualSale(c *gin.Context) {
	var in service.ManualSale
	if !bindJSON(c, &in) {
		return
	}
	sale, created, err := h.sales.RecordManualSale(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"sale": sale, "created": created})
}

// ---- Statistiques ----

func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.analytics.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) SalesSummary(c *gin.Context) {
	periods, err := h.analytics.SalesSummary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, periods)
}

func (h *AdminHandler) Margins(c *gin.Context) {
	margins, err := h.analytics.MarginReport(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, margins)
}

func (h *AdminHandler) Inventory(c *gin.Context) {
	value, err := h.analytics.InventoryValue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, value)
}
