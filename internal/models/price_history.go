package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ReasonInitialPrice  = "Initial price set"
	ReasonPriceUpdated  = "Price updated"
	ReasonMigratedPrice = "Initial price record (migrated from existing data)"
)

// ProductPriceHistory est une ligne du journal des prix, jamais modifiée après insertion
type ProductPriceHistory struct {
	ID           uuid.UUID       `json:"id" db:"history_id"`
	ProductID    uuid.UUID       `json:"product_id" db:"product_id"`
	CostPrice    decimal.Decimal `json:"cost_price" db:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price" db:"selling_price"`
	ChangedBy    *string         `json:"changed_by,omitempty" db:"changed_by"`
	ChangedAt    time.Time       `json:"changed_at" db:"changed_at"`
	Reason       string          `json:"reason" db:"reason"`
}

func (h ProductPriceHistory) MarginPercentage() decimal.Decimal {
	return MarginPercentage(h.CostPrice, h.SellingPrice)
}

func (h ProductPriceHistory) Profit() decimal.Decimal {
	return h.SellingPrice.Sub(h.CostPrice)
}
