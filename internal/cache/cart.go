package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"xyz_store/internal/models"
)

// RedisCart lit le panier tenu par le front dans la liste Redis "cart:<propriétaire>".
// Chaque élément est une ligne JSON {"product_id", "price", "quantity"}.
type RedisCart struct {
	client *redis.Client
}

func NewRedisCart(client *redis.Client) *RedisCart {
	return &RedisCart{client: client}
}

func cartKey(owner string) string {
	return "cart:" + owner
}

// Lines renvoie les lignes dans l'ordre d'ajout ; un panier absent est vide
func (c *RedisCart) Lines(ctx context.Context, owner string) ([]models.CartLine, error) {
	raw, err := c.client.LRange(ctx, cartKey(owner), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	lines := make([]models.CartLine, 0, len(raw))
	for i, item := range raw {
		var line models.CartLine
		if err := json.Unmarshal([]byte(item), &line); err != nil {
			return nil, fmt.Errorf("ligne %d du panier %s: %w", i, owner, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Clear vide le panier après une commande réussie
func (c *RedisCart) Clear(ctx context.Context, owner string) error {
	return c.client.Del(ctx, cartKey(owner)).Err()
}
