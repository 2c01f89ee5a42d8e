package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xyz_store/internal/models"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestCatalogCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	c := NewCatalogCache(client, time.Minute)

	_, ok := c.GetProducts(ctx, "all")
	assert.False(t, ok)

	products := []models.Product{{ID: uuid.New(), Name: "Marteau", Price: decimal.RequireFromString("12.90")}}
	c.SetProducts(ctx, "all", products)

	got, ok := c.GetProducts(ctx, "all")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, products[0].ID, got[0].ID)
	assert.True(t, got[0].Price.Equal(products[0].Price))

	mr.FastForward(2 * time.Minute)
	_, ok = c.GetProducts(ctx, "all")
	assert.False(t, ok)
}

func TestCatalogCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	c := NewCatalogCache(client, 0)

	c.SetProducts(ctx, "all", nil)
	c.SetProducts(ctx, "category:outils", nil)
	require.NoError(t, mr.Set("cart:client-1", "autre donnée"))

	require.NoError(t, c.Invalidate(ctx))

	assert.False(t, mr.Exists(CatalogPrefix+"all"))
	assert.False(t, mr.Exists(CatalogPrefix+"category:outils"))
	assert.True(t, mr.Exists("cart:client-1"))
}

func TestCatalogCacheIgnoresCorruptEntries(t *testing.T) {
	mr, client := newRedis(t)
	require.NoError(t, mr.Set(CatalogPrefix+"all", "{pas du json"))

	_, ok := NewCatalogCache(client, time.Minute).GetProducts(context.Background(), "all")
	assert.False(t, ok)
}

func TestRedisCart(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	cart := NewRedisCart(client)

	lines, err := cart.Lines(ctx, "client-1")
	require.NoError(t, err)
	assert.Empty(t, lines)

	a, b := uuid.New(), uuid.New()
	_, err = mr.Push("cart:client-1",
		`{"product_id":"`+a.String()+`","price":"10.00","quantity":2}`,
		`{"product_id":"`+b.String()+`","price":"25.00","quantity":1}`,
	)
	require.NoError(t, err)

	lines, err = cart.Lines(ctx, "client-1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, a, lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, b, lines[1].ProductID)

	require.NoError(t, cart.Clear(ctx, "client-1"))
	assert.False(t, mr.Exists("cart:client-1"))
}

func TestRedisCartRejectsBadLine(t *testing.T) {
	mr, client := newRedis(t)
	_, err := mr.Push("cart:x", "oops")
	require.NoError(t, err)

	_, err = NewRedisCart(client).Lines(context.Background(), "x")
	assert.Error(t, err)
}
