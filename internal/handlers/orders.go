package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"xyz_store/internal/middleware"
	"xyz_store/internal/models"
	"xyz_store/internal/service"
)

// CartStore est le panier tenu hors du cœur (Redis en production)
type CartStore interface {
	Lines(ctx context.Context, owner string) ([]models.CartLine, error)
	Clear(ctx context.Context, owner string) error
}

type OrderHandler struct {
	orders *service.OrderLedger
	cart   CartStore
}

// NewOrderHandler accepte un panier nil : les lignes viennent alors du corps de la requête
func NewOrderHandler(orders *service.OrderLedger, cart CartStore) *OrderHandler {
	return &OrderHandler{orders: orders, cart: cart}
}

type checkoutRequest struct {
	Customer models.CustomerInfo `json:"customer"`
	Lines    []models.CartLine   `json:"lines"`
}

type paymentRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
	PaymentID     string `json:"payment_id"`
}

// Checkout crée la commande (invité ou client connecté)
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	lines := req.Lines
	fromCart := false
	if len(lines) == 0 && userID != nil && h.cart != nil {
		cartLines, err := h.cart.Lines(ctx, *userID)
		if err != nil {
			log.Printf("❌ Lecture du panier %s: %v", *userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture panier"})
			return
		}
		lines = cartLines
		fromCart = true
	}

	order, err := h.orders.PlaceOrder(ctx, req.Customer, lines, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	if fromCart {
		if err := h.cart.Clear(ctx, *userID); err != nil {
			log.Printf("⚠️ Panier %s non vidé: %v", *userID, err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"order": order,
		"total": order.TotalCost(),
	})
}

// Pay enregistre le paiement simulé de la commande
func (h *OrderHandler) Pay(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req paymentRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	order, err := h.orders.GetOrder(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !canAccess(c, order) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Accès refusé"})
		return
	}

	paid, err := h.orders.MarkPaid(ctx, id, req.PaymentMethod, req.PaymentID)
	if err != nil {
		// paiement pris en compte, ventes à rattraper par la réconciliation
		if paid.Paid && !errors.Is(err, models.ErrAlreadyPaid) {
			c.JSON(http.StatusAccepted, gin.H{"order": paid, "warning": "Ventes en attente de réconciliation"})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": paid, "total": paid.TotalCost()})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !canAccess(c, order) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Accès refusé"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "total": order.TotalCost()})
}

// MyOrders liste les commandes du client connecté, les plus récentes d'abord
func (h *OrderHandler) MyOrders(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}
	orders, err := h.orders.ListOrdersByUser(c.Request.Context(), *userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// Une commande invité est accessible par son identifiant ; une commande
// rattachée à un compte seulement par son propriétaire ou un admin.
func canAccess(c *gin.Context, order models.Order) bool {
	if order.IsGuest() {
		return true
	}
	if c.GetString(middleware.ContextRole) == "admin" {
		return true
	}
	userID := middleware.UserID(c)
	return userID != nil && *userID == *order.UserID
}
