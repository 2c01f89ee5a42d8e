package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"xyz_store/internal/cache"
	"xyz_store/internal/config"
	"xyz_store/internal/database"
	"xyz_store/internal/handlers"
	"xyz_store/internal/repository/memory"
	"xyz_store/internal/repository/scylla"
	"xyz_store/internal/routes"
	"xyz_store/internal/service"
	"xyz_store/internal/utils"
)

// storage regroupe tous les dépôts ; memory.Store et scylla.Store l'implémentent
type storage interface {
	service.CatalogRepository
	service.PriceHistoryRepository
	service.ReviewRepository
	service.OrderRepository
	service.SaleRepository
}

func main() {
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("❌ JWT_SECRET manquant dans .env")
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStorage(cfg)
	defer closeStore()

	redisClient, err := database.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		log.Printf("⚠️ Redis indisponible, on continue sans cache: %v", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	opts := serviceOptions(cfg, store, redisClient)

	pricing := service.NewPricingLedger(store, store, opts...)
	catalog := service.NewCatalog(store, store, pricing, opts...)
	reviews := service.NewReviewAggregator(store, store, opts...)
	sales := service.NewSaleRecorder(store, store, store, opts...)
	orders := service.NewOrderLedger(store, store, sales, opts...)
	analytics := service.NewAnalytics(store, store, store, opts...)

	var cart handlers.CartStore
	if redisClient != nil {
		cart = cache.NewRedisCart(redisClient)
	}

	r := gin.Default()
	routes.RegisterRoutes(r, routes.Dependencies{
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
		Redis:       redisClient,
		Products:    handlers.NewProductHandler(catalog, reviews),
		Orders:      handlers.NewOrderHandler(orders, cart),
		Admin: handlers.NewAdminHandler(handlers.AdminServices{
			Catalog:   catalog,
			Pricing:   pricing,
			Reviews:   reviews,
			Orders:    orders,
			Sales:     sales,
			Analytics: analytics,
		}),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Println("🚀 Serveur XYZ lancé sur le port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Serveur arrêté: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Arrêt du serveur...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Arrêt forcé: %v", err)
	}
}

func openStorage(cfg config.Config) (storage, func()) {
	if cfg.StoreBackend == "memory" {
		log.Println("⚠️ Stockage en mémoire : les données seront perdues à l'arrêt")
		return memory.New(), func() {}
	}

	sm, err := database.NewScyllaManager(cfg.Scylla)
	if err != nil {
		log.Fatalf("❌ Connexion ScyllaDB impossible: %v", err)
	}
	products, err := sm.ProductsSession()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	orders, err := sm.OrdersSession()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Println("✅ ScyllaDB prêt")
	return scylla.New(products, orders), sm.Close
}

func serviceOptions(cfg config.Config, store storage, redisClient *redis.Client) []service.Option {
	opts := []service.Option{service.WithLowStockThreshold(cfg.LowStockThreshold)}

	if redisClient != nil {
		opts = append(opts, service.WithCatalogCache(cache.NewCatalogCache(redisClient, cfg.CatalogCacheTTL)))
	}

	if cfg.SMTP.Enabled() {
		opts = append(opts, service.WithNotifier(utils.NewOrderMailer(cfg.SMTP, store)))
		log.Println("✅ Confirmations de commande par e-mail activées")
	} else {
		log.Println("⚠️ SMTP non configuré, aucune confirmation ne sera envoyée")
	}
	return opts
}
