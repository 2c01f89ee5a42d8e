package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"xyz_store/internal/models"
)

// respondError traduit les erreurs du cœur en statut HTTP
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrDuplicateReview):
		c.JSON(http.StatusConflict, gin.H{"error": "Vous avez déjà laissé un avis sur ce produit"})
	case errors.Is(err, models.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide"})
	case errors.Is(err, models.ErrAlreadyPaid):
		c.JSON(http.StatusConflict, gin.H{"error": "Commande déjà payée"})
	case errors.Is(err, models.ErrConcurrentUpdate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvariantViolation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
	}
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID invalide"})
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return false
	}
	return true
}
