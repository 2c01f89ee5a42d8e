package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

const (
	PaymentCard           = "card"
	PaymentPayPal         = "paypal"
	PaymentBankTransfer   = "bank_transfer"
	PaymentCashOnDelivery = "cash_on_delivery"
)

var PaymentMethods = []string{PaymentCard, PaymentPayPal, PaymentBankTransfer, PaymentCashOnDelivery}

// transitions autorisées pour le statut (champ indicatif, distinct du verrou paid)
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

type Order struct {
	ID            uuid.UUID   `json:"id" db:"order_id"`
	UserID        *string     `json:"user_id,omitempty" db:"user_id"` // nil = commande invité
	FirstName     string      `json:"first_name" db:"first_name"`
	LastName      string      `json:"last_name" db:"last_name"`
	Email         string      `json:"email" db:"email"`
	Address       string      `json:"address" db:"address"`
	PostalCode    string      `json:"postal_code" db:"postal_code"`
	City          string      `json:"city" db:"city"`
	Paid          bool        `json:"paid" db:"paid"`
	PaymentMethod string      `json:"payment_method,omitempty" db:"payment_method"`
	PaymentID     string      `json:"payment_id,omitempty" db:"payment_id"`
	Status        OrderStatus `json:"status" db:"status"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
	Items         []OrderItem `json:"items,omitempty"`
}

// OrderItem fige le prix au moment de la commande
type OrderItem struct {
	ID        uuid.UUID       `json:"id" db:"item_id"`
	OrderID   uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID uuid.UUID       `json:"product_id" db:"product_id"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Quantity  int             `json:"quantity" db:"quantity"`
}

func (i OrderItem) Cost() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// TotalCost additionne le coût des lignes chargées dans la commande
func (o Order) TotalCost() decimal.Decimal {
	return TotalCost(o.Items)
}

func (o Order) IsGuest() bool {
	return o.UserID == nil
}

func TotalCost(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Cost())
	}
	return total
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransition indique si le personnel peut passer de s à next
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func ValidPaymentMethod(method string) bool {
	for _, m := range PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}

// CustomerInfo regroupe les champs du formulaire de commande
type CustomerInfo struct {
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Address    string `json:"address" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
	City       string `json:"city" binding:"required"`
}

// MissingFields retourne les champs obligatoires vides
func (ci CustomerInfo) MissingFields() []string {
	var missing []string
	fields := []struct {
		name, value string
	}{
		{"first_name", ci.FirstName},
		{"last_name", ci.LastName},
		{"email", ci.Email},
		{"address", ci.Address},
		{"postal_code", ci.PostalCode},
		{"city", ci.City},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}
