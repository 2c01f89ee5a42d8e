package middleware

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimit compte les requêtes par IP dans Redis sur une fenêtre fixe.
// Sans client Redis, le middleware laisse tout passer.
func RateLimit(client *redis.Client, name string, max int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := "rate:" + name + ":" + c.ClientIP()

		n, err := client.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("⚠️ Rate limit %s indisponible: %v", name, err)
			c.Next()
			return
		}
		if n == 1 {
			client.Expire(ctx, key, window)
		}

		count := int(n)
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", max))
		if count > max {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de requêtes. Réessayez plus tard",
				"retry_after": int(window.Seconds()),
			})
			c.Abort()
			return
		}
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", max-count))
		c.Next()
	}
}
