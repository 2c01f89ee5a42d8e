package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xyz_store/internal/handlers"
	"xyz_store/internal/models"
	"xyz_store/internal/repository/memory"
	"xyz_store/internal/service"
	"xyz_store/internal/utils"
)

const secret = "routes-secret"

type fakeCart struct {
	mu    sync.Mutex
	lines map[string][]models.CartLine
}

func (f *fakeCart) Lines(_ context.Context, owner string) ([]models.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lines[owner], nil
}

func (f *fakeCart) Clear(_ context.Context, owner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.lines, owner)
	return nil
}

type harness struct {
	t      *testing.T
	router *gin.Engine
	cart   *fakeCart
	admin  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	pricing := service.NewPricingLedger(store, store)
	catalog := service.NewCatalog(store, store, pricing)
	reviews := service.NewReviewAggregator(store, store)
	sales := service.NewSaleRecorder(store, store, store)
	orders := service.NewOrderLedger(store, store, sales)
	analytics := service.NewAnalytics(store, store, store)
	cart := &fakeCart{lines: map[string][]models.CartLine{}}

	r := gin.New()
	RegisterRoutes(r, Dependencies{
		JWTSecret: secret,
		Products:  handlers.NewProductHandler(catalog, reviews),
		Orders:    handlers.NewOrderHandler(orders, cart),
		Admin: handlers.NewAdminHandler(handlers.AdminServices{
			Catalog:   catalog,
			Pricing:   pricing,
			Reviews:   reviews,
			Orders:    orders,
			Sales:     sales,
			Analytics: analytics,
		}),
	})

	h := &harness{t: t, router: r, cart: cart}
	h.admin = h.token("gerant", "admin")
	return h
}

func (h *harness) token(userID, role string) string {
	tok, err := utils.GenerateJWT(secret, userID, userID+"@example.com", role, time.Hour)
	require.NoError(h.t, err)
	return tok
}

func (h *harness) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

// seed crée une catégorie et un marteau en ligne via l'API admin
func (h *harness) seed() models.Product {
	w := h.do(http.MethodPost, "/api/admin/categories", h.admin, gin.H{"name": "Outillage"})
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	var cat models.Category
	decode(h.t, w, &cat)

	w = h.do(http.MethodPost, "/api/admin/products", h.admin, gin.H{
		"category_id": cat.ID,
		"name":        "Marteau de charpentier",
		"description": "Manche en frêne",
		"cost_price":  "8.00",
		"price":       "12.50",
		"stock":       5,
		"available":   true,
		"is_online":   true,
	})
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	var p models.Product
	decode(h.t, w, &p)
	return p
}

func customerBody() gin.H {
	return gin.H{
		"first_name":  "Jeanne",
		"last_name":   "Martin",
		"email":       "jeanne@example.com",
		"address":     "12 rue des Lilas",
		"postal_code": "69003",
		"city":        "Lyon",
	}
}

type orderResponse struct {
	Order models.Order    `json:"order"`
	Total decimal.Decimal `json:"total"`
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/admin/dashboard", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/admin/dashboard", h.token("client", "customer"), nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/admin/dashboard", h.admin, nil).Code)
}

func TestStorefrontHidesCostPrice(t *testing.T) {
	h := newHarness(t)
	p := h.seed()

	w := h.do(http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "cost_price")
	assert.Contains(t, w.Body.String(), p.ID.String())

	w = h.do(http.MethodGet, "/api/products/"+p.ID.String()+"/"+p.Slug, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "cost_price")

	w = h.do(http.MethodGet, "/api/admin/products/"+p.ID.String(), h.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cost_price")

	w = h.do(http.MethodGet, "/api/products/search?q=marteau", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), p.ID.String())
}

func TestPriceUpdateIsRecordedInHistory(t *testing.T) {
	h := newHarness(t)
	p := h.seed()
	path := "/api/admin/products/" + p.ID.String()

	w := h.do(http.MethodPatch, path, h.admin, gin.H{"price": "14.90", "reason": "Hausse fournisseur"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(http.MethodGet, path+"/price-history", h.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []models.ProductPriceHistory
	decode(t, w, &history)
	require.Len(t, history, 2)
	assert.True(t, history[0].SellingPrice.Equal(decimal.RequireFromString("14.90")))
	assert.Equal(t, "Hausse fournisseur", history[0].Reason)
	require.NotNil(t, history[0].ChangedBy)
	assert.Equal(t, "gerant", *history[0].ChangedBy)

	w = h.do(http.MethodPatch, path, h.admin, gin.H{"price": "-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGuestCheckoutAndPayment(t *testing.T) {
	h := newHarness(t)
	p := h.seed()

	w := h.do(http.MethodPost, "/api/checkout", "", gin.H{"customer": customerBody()})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/api/checkout", "", gin.H{
		"customer": customerBody(),
		"lines":    []gin.H{{"product_id": p.ID, "price": "1.00", "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var placed orderResponse
	decode(t, w, &placed)
	assert.True(t, placed.Total.Equal(decimal.RequireFromString("25")))
	assert.Nil(t, placed.Order.UserID)

	payPath := "/api/orders/" + placed.Order.ID.String() + "/pay"
	w = h.do(http.MethodPost, payPath, "", gin.H{"payment_method": "bitcoin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, payPath, "", gin.H{"payment_method": "card"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var paid orderResponse
	decode(t, w, &paid)
	assert.True(t, paid.Order.Paid)
	assert.Regexp(t, `^PAY-[0-9A-F]{12}$`, paid.Order.PaymentID)

	w = h.do(http.MethodPost, payPath, "", gin.H{"payment_method": "card"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(http.MethodGet, "/api/admin/orders/"+placed.Order.ID.String()+"/sales", h.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sales []models.Sale
	decode(t, w, &sales)
	require.Len(t, sales, 1)
	assert.Equal(t, 2, sales[0].Quantity)
}

func TestCheckoutFromRedisCartAndOwnership(t *testing.T) {
	h := newHarness(t)
	p := h.seed()
	client := h.token("client-1", "customer")
	h.cart.lines["client-1"] = []models.CartLine{{ProductID: p.ID, Price: p.Price, Quantity: 1}}

	w := h.do(http.MethodPost, "/api/checkout", client, gin.H{"customer": customerBody()})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var placed orderResponse
	decode(t, w, &placed)
	require.NotNil(t, placed.Order.UserID)
	assert.Equal(t, "client-1", *placed.Order.UserID)
	assert.Empty(t, h.cart.lines["client-1"])

	orderPath := "/api/orders/" + placed.Order.ID.String()
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, orderPath, client, nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, orderPath, h.token("client-2", "customer"), nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, orderPath, "", nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, orderPath, h.admin, nil).Code)

	w = h.do(http.MethodGet, "/api/me/orders", client, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []models.Order
	decode(t, w, &mine)
	assert.Len(t, mine, 1)

	statusPath := "/api/admin/orders/" + placed.Order.ID.String() + "/status"
	w = h.do(http.MethodPut, statusPath, h.admin, gin.H{"status": "delivered"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = h.do(http.MethodPut, statusPath, h.admin, gin.H{"status": "cancelled"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestReviewsOnePerUser(t *testing.T) {
	h := newHarness(t)
	p := h.seed()
	client := h.token("client-1", "customer")
	path := "/api/reviews/" + p.ID.String()

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, path, "", gin.H{"rating": 5, "comment": "Top"}).Code)

	w := h.do(http.MethodPost, path, client, gin.H{"rating": 5, "comment": "Solide et bien équilibré"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = h.do(http.MethodPost, path, client, gin.H{"rating": 4, "comment": "Encore moi"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(http.MethodPut, path, client, gin.H{"rating": 3, "comment": "Le manche a pris du jeu"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(http.MethodPost, path, h.token("client-2", "customer"), gin.H{"rating": 9, "comment": "Trop bien"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, "/api/products/"+p.ID.String()+"/"+p.Slug, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Rating models.ProductRating `json:"rating"`
	}
	decode(t, w, &page)
	assert.Equal(t, 1, page.Rating.TotalReviews)
	assert.True(t, page.Rating.AverageRating.Equal(decimal.NewFromInt(3)))

	w = h.do(http.MethodDelete, "/api/admin/reviews/"+p.ID.String()+"/client-1", h.admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestManualSaleIsIdempotent(t *testing.T) {
	h := newHarness(t)
	p := h.seed()
	body := gin.H{"product_id": p.ID, "sold_price": "11.00", "quantity": 1, "reference": "CAISSE-0042"}

	assert.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/api/admin/sales/manual", h.admin, body).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/admin/sales/manual", h.admin, body).Code)

	w := h.do(http.MethodGet, "/api/admin/stats/sales", h.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var periods []service.SalesPeriod
	decode(t, w, &periods)
	require.NotEmpty(t, periods)
	assert.Equal(t, 1, periods[0].Count)
}

func TestUnknownProductIsNotFound(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/api/products/0b6c9a7e-1111-4c1e-9f00-000000000000/inconnu", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = h.do(http.MethodGet, "/api/products/pas-un-uuid/inconnu", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
