package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"xyz_store/internal/models"
)

const (
	CatalogPrefix   = "catalog:"
	DefaultTTL      = 10 * time.Minute
	invalidateBatch = 100
)

// CatalogCache garde les listes de la vitrine dans Redis, sous "catalog:<clé>"
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CatalogCache{client: client, ttl: ttl}
}

// GetProducts renvoie false sur absence de clé comme sur erreur Redis : la vitrine relit alors la base
func (c *CatalogCache) GetProducts(ctx context.Context, key string) ([]models.Product, bool) {
	data, err := c.client.Get(ctx, CatalogPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("⚠️ Lecture cache catalogue %s: %v", key, err)
		}
		return nil, false
	}

	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		log.Printf("⚠️ Cache catalogue %s illisible: %v", key, err)
		return nil, false
	}
	return products, true
}

func (c *CatalogCache) SetProducts(ctx context.Context, key string, products []models.Product) {
	data, err := json.Marshal(products)
	if err != nil {
		log.Printf("⚠️ Sérialisation cache catalogue %s: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, CatalogPrefix+key, data, c.ttl).Err(); err != nil {
		log.Printf("⚠️ Écriture cache catalogue %s: %v", key, err)
	}
}

// Invalidate supprime toutes les clés du catalogue
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, CatalogPrefix+"*", invalidateBatch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
