package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"xyz_store/internal/handlers"
	"xyz_store/internal/middleware"
)

type Dependencies struct {
	JWTSecret   string
	CORSOrigins []string
	Redis       *redis.Client // nil : pas de limitation de débit

	Products *handlers.ProductHandler
	Orders   *handlers.OrderHandler
	Admin    *handlers.AdminHandler
}

func RegisterRoutes(r *gin.Engine, d Dependencies) {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(d.CORSOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = d.CORSOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	auth := middleware.AuthRequired(d.JWTSecret)
	optional := middleware.OptionalAuth(d.JWTSecret)

	api := r.Group("/api")
	{
		// Vitrine
		api.GET("/categories", d.Products.ListCategories)
		api.GET("/products", d.Products.ListProducts)
		api.GET("/products/search", d.Products.Search)
		api.GET("/products/:id/:slug", d.Products.GetProduct)

		reviews := api.Group("/reviews", auth, middleware.RateLimit(d.Redis, "reviews", 20, time.Minute))
		reviews.POST("/:product_id", d.Products.SubmitReview)
		reviews.PUT("/:product_id", d.Products.UpdateReview)

		// Commandes (invité ou connecté)
		api.POST("/checkout", optional, middleware.RateLimit(d.Redis, "checkout", 10, time.Minute), d.Orders.Checkout)
		api.POST("/orders/:id/pay", optional, d.Orders.Pay)
		api.GET("/orders/:id", optional, d.Orders.GetOrder)
		api.GET("/me/orders", auth, d.Orders.MyOrders)
	}

	admin := r.Group("/api/admin", auth, middleware.RequireAdmin)
	{
		admin.POST("/categories", d.Admin.CreateCategory)

		admin.GET("/products", d.Admin.ListProducts)
		admin.POST("/products", d.Admin.CreateProduct)
		admin.POST("/products/online", d.Admin.SetOnline)
		admin.GET("/products/:id", d.Admin.GetProduct)
		admin.PATCH("/products/:id", d.Admin.UpdateProduct)
		admin.DELETE("/products/:id", d.Admin.DeleteProduct)

		admin.GET("/products/:id/price-history", d.Admin.PriceHistory)
		admin.DELETE("/products/:id/price-history/:history_id", d.Admin.DeletePriceHistory)
		admin.POST("/price-history/backfill", d.Admin.BackfillPriceHistory)

		admin.DELETE("/reviews/:product_id/:user_id", d.Admin.DeleteReview)

		admin.GET("/orders", d.Admin.ListOrders)
		admin.PUT("/orders/:id/status", d.Admin.SetOrderStatus)
		admin.GET("/orders/:id/sales", d.Admin.OrderSales)

		admin.POST("/sales/reconcile", d.Admin.ReconcileSales)
		admin.POST("/sales/manual", d.Admin.ManualSale)

		admin.GET("/dashboard", d.Admin.Dashboard)
		admin.GET("/stats/sales", d.Admin.SalesSummary)
		admin.GET("/stats/margins", d.Admin.Margins)
		admin.GET("/stats/inventory", d.Admin.Inventory)
	}
}
