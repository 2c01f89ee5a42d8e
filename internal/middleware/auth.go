package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"xyz_store/internal/utils"
)

const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextRole   = "role"
)

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.Split(c.GetHeader("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// AuthRequired exige un jeton valide et place user_id, email et role dans le contexte
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token manquant"})
			c.Abort()
			return
		}

		claims, err := utils.ParseJWT(secret, token)
		if err != nil {
			log.Printf("❌ Erreur parsing JWT: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token invalide"})
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// OptionalAuth lit le jeton s'il est présent ; la commande invité reste possible sans
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if claims, err := utils.ParseJWT(secret, token); err == nil {
				c.Set(ContextUserID, claims.UserID)
				c.Set(ContextEmail, claims.Email)
				c.Set(ContextRole, claims.Role)
			}
		}
		c.Next()
	}
}

// RequireAdmin vérifie que l'utilisateur a le rôle "admin"
func RequireAdmin(c *gin.Context) {
	role, exists := c.Get(ContextRole)
	if !exists || role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Accès réservé aux administrateurs"})
		c.Abort()
		return
	}
	c.Next()
}

// UserID renvoie l'utilisateur authentifié, ou nil pour un invité
func UserID(c *gin.Context) *string {
	v := c.GetString(ContextUserID)
	if v == "" {
		return nil
	}
	return &v
}
