package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MinRating = 1
	MaxRating = 5
)

type ProductReview struct {
	ID               uuid.UUID `json:"id" db:"review_id"`
	ProductID        uuid.UUID `json:"product_id" db:"product_id"`
	UserID           string    `json:"user_id" db:"user_id"`
	Rating           int       `json:"rating" db:"rating"` // 1-5
	Title            string    `json:"title" db:"title"`
	Comment          string    `json:"comment" db:"comment"`
	VerifiedPurchase bool      `json:"verified_purchase" db:"verified_purchase"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// RatingDistribution compte les avis par nombre d'étoiles (5 à 1)
type RatingDistribution map[int]int

type ProductRating struct {
	ProductID     uuid.UUID          `json:"product_id"`
	AverageRating decimal.Decimal    `json:"average_rating"`
	TotalReviews  int                `json:"total_reviews"`
	Distribution  RatingDistribution `json:"distribution"`
}

func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

// NewRating calcule les statistiques à partir des avis d'un produit
func NewRating(productID uuid.UUID, reviews []ProductReview) ProductRating {
	dist := RatingDistribution{5: 0, 4: 0, 3: 0, 2: 0, 1: 0}
	total := 0
	for _, r := range reviews {
		dist[r.Rating]++
		total += r.Rating
	}

	avg := decimal.Zero
	if len(reviews) > 0 {
		avg = decimal.NewFromInt(int64(total)).
			Div(decimal.NewFromInt(int64(len(reviews)))).
			Round(1)
	}

	return ProductRating{
		ProductID:     productID,
		AverageRating: avg,
		TotalReviews:  len(reviews),
		Distribution:  dist,
	}
}
