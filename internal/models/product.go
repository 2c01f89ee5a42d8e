package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Product struct {
	ID          uuid.UUID       `json:"id" db:"product_id"`
	CategoryID  uuid.UUID       `json:"category_id" db:"category_id"`
	Name        string          `json:"name" db:"name"`
	Slug        string          `json:"slug" db:"slug"`
	Description string          `json:"description" db:"description"`
	CostPrice   decimal.Decimal `json:"cost_price" db:"cost_price"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	Available   bool            `json:"available" db:"available"`
	IsOnline    bool            `json:"is_online" db:"is_online"`
	// Version sert de garde optimiste pour les écritures concurrentes
	Version   int64     `json:"-" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// MarginPercentage retourne la marge en % du prix d'achat (0 si le prix d'achat est nul)
func (p Product) MarginPercentage() decimal.Decimal {
	return MarginPercentage(p.CostPrice, p.Price)
}

func (p Product) Profit() decimal.Decimal {
	return p.Price.Sub(p.CostPrice)
}

// Visible indique si le produit est présenté aux clients
func (p Product) Visible() bool {
	return p.Available && p.IsOnline
}

// PriceChanged compare les deux champs de prix suivis par l'historique
func (p Product) PriceChanged(other Product) bool {
	return !p.Price.Equal(other.Price) || !p.CostPrice.Equal(other.CostPrice)
}

func MarginPercentage(cost, price decimal.Decimal) decimal.Decimal {
	if !cost.IsPositive() {
		return decimal.Zero
	}
	return price.Sub(cost).Div(cost).Mul(hundred).Round(2)
}

// Money arrondit un montant à 2 décimales
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ProductPatch décrit une modification partielle d'un produit.
// is_online n'en fait pas partie : la visibilité passe par SetOnlineStatus.
type ProductPatch struct {
	CategoryID  *uuid.UUID       `json:"category_id,omitempty"`
	Name        *string          `json:"name,omitempty"`
	Slug        *string          `json:"slug,omitempty"`
	Description *string          `json:"description,omitempty"`
	CostPrice   *decimal.Decimal `json:"cost_price,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	Available   *bool            `json:"available,omitempty"`
}

func (pp ProductPatch) IsEmpty() bool {
	return pp.CategoryID == nil && pp.Name == nil && pp.Slug == nil && pp.Description == nil &&
		pp.CostPrice == nil && pp.Price == nil && pp.Stock == nil && pp.Available == nil
}

// Apply retourne une copie du produit avec les champs du patch appliqués
func (pp ProductPatch) Apply(p Product) Product {
	if pp.CategoryID != nil {
		p.CategoryID = *pp.CategoryID
	}
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Slug != nil {
		p.Slug = *pp.Slug
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.CostPrice != nil {
		p.CostPrice = Money(*pp.CostPrice)
	}
	if pp.Price != nil {
		p.Price = Money(*pp.Price)
	}
	if pp.Stock != nil {
		p.Stock = *pp.Stock
	}
	if pp.Available != nil {
		p.Available = *pp.Available
	}
	return p
}
