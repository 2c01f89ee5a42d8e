package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine est une ligne du panier fourni par l'appelant.
// Price est indicatif : la commande relit le prix courant du produit.
type CartLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}
