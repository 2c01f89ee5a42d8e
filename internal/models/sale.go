package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale est une ligne d'analyse dérivée d'une ligne de commande payée,
// ou saisie manuellement (vente en magasin) avec une référence.
type Sale struct {
	ID         uuid.UUID       `json:"id" db:"sale_id"`
	OrderID    *uuid.UUID      `json:"order_id,omitempty" db:"order_id"`
	Date       time.Time       `json:"date" db:"date"`
	CategoryID uuid.UUID       `json:"category_id" db:"category_id"`
	ProductID  uuid.UUID       `json:"product_id" db:"product_id"`
	SoldPrice  decimal.Decimal `json:"sold_price" db:"sold_price"`
	Quantity   int             `json:"quantity" db:"quantity"`
	Reference  string          `json:"reference,omitempty" db:"reference"`
}

func (s Sale) TotalAmount() decimal.Decimal {
	return s.SoldPrice.Mul(decimal.NewFromInt(int64(s.Quantity)))
}
