package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"xyz_store/internal/models"
)

// ReviewAggregator gère les avis clients et calcule les statistiques à la lecture
type ReviewAggregator struct {
	reviews ReviewRepository
	catalog CatalogRepository
	opts    options
}

func NewReviewAggregator(reviews ReviewRepository, catalog CatalogRepository, opts ...Option) *ReviewAggregator {
	return &ReviewAggregator{reviews: reviews, catalog: catalog, opts: buildOptions(opts)}
}

// ReviewInput regroupe les champs saisis par le client
type ReviewInput struct {
	Rating           int    `json:"rating" binding:"required"`
	Title            string `json:"title"`
	Comment          string `json:"comment" binding:"required"`
	VerifiedPurchase bool   `json:"verified_purchase"`
}

func (in ReviewInput) validate() error {
	if !models.ValidRating(in.Rating) {
		return fmt.Errorf("note %d hors de [%d,%d]: %w", in.Rating, models.MinRating, models.MaxRating, models.ErrInvariantViolation)
	}
	if strings.TrimSpace(in.Comment) == "" {
		return fmt.Errorf("commentaire vide: %w", models.ErrInvariantViolation)
	}
	return nil
}

// SubmitReview crée l'avis ; l'unicité (produit, utilisateur) est garantie par le dépôt
func (a *ReviewAggregator) SubmitReview(ctx context.Context, productID uuid.UUID, userID string, in ReviewInput) (models.ProductReview, error) {
	if userID == "" {
		return models.ProductReview{}, fmt.Errorf("utilisateur manquant: %w", models.ErrInvariantViolation)
	}
	if err := in.validate(); err != nil {
		return models.ProductReview{}, err
	}
	if _, err := a.catalog.GetProduct(ctx, productID); err != nil {
		return models.ProductReview{}, err
	}

	now := a.opts.now()
	review := models.ProductReview{
		ID:               uuid.New(),
		ProductID:        productID,
		UserID:           userID,
		Rating:           in.Rating,
		Title:            strings.TrimSpace(in.Title),
		Comment:          strings.TrimSpace(in.Comment),
		VerifiedPurchase: in.VerifiedPurchase,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	applied, err := a.reviews.InsertReview(ctx, review)
	if err != nil {
		return models.ProductReview{}, err
	}
	if !applied {
		return models.ProductReview{}, fmt.Errorf("produit %s, utilisateur %s: %w", productID, userID, models.ErrDuplicateReview)
	}

	log.Printf("⭐ Avis %d/5 déposé par %s sur %s", review.Rating, userID, productID)
	return review, nil
}

// UpdateReview modifie l'avis de son auteur ; created_at est conservé
func (a *ReviewAggregator) UpdateReview(ctx context.Context, productID uuid.UUID, userID string, in ReviewInput) (models.ProductReview, error) {
	if err := in.validate(); err != nil {
		return models.ProductReview{}, err
	}

	review, err := a.reviews.GetReview(ctx, productID, userID)
	if err != nil {
		return models.ProductReview{}, err
	}
	review.Rating = in.Rating
	review.Title = strings.TrimSpace(in.Title)
	review.Comment = strings.TrimSpace(in.Comment)
	review.VerifiedPurchase = in.VerifiedPurchase
	review.UpdatedAt = a.opts.now()

	applied, err := a.reviews.UpdateReview(ctx, review)
	if err != nil {
		return models.ProductReview{}, err
	}
	if !applied {
		return models.ProductReview{}, fmt.Errorf("avis %s/%s: %w", productID, userID, models.ErrNotFound)
	}
	return review, nil
}

// DeleteReview est réservé à la modération
func (a *ReviewAggregator) DeleteReview(ctx context.Context, productID uuid.UUID, userID string) error {
	if _, err := a.reviews.GetReview(ctx, productID, userID); err != nil {
		return err
	}
	if err := a.reviews.DeleteReview(ctx, productID, userID); err != nil {
		return err
	}
	log.Printf("🗑️ Avis de %s supprimé sur %s", userID, productID)
	return nil
}

// ListReviews renvoie les avis du plus récent au plus ancien
func (a *ReviewAggregator) ListReviews(ctx context.Context, productID uuid.UUID) ([]models.ProductReview, error) {
	if _, err := a.catalog.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	reviews, err := a.reviews.ListReviews(ctx, productID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return reviews, nil
}

// Stats calcule note moyenne, nombre d'avis et répartition ; produit inconnu -> ErrNotFound
func (a *ReviewAggregator) Stats(ctx context.Context, productID uuid.UUID) (models.ProductRating, error) {
	reviews, err := a.ListReviews(ctx, productID)
	if err != nil {
		return models.ProductRating{}, err
	}
	return models.NewRating(productID, reviews), nil
}

func (a *ReviewAggregator) AverageRating(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	stats, err := a.Stats(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return stats.AverageRating, nil
}

func (a *ReviewAggregator) RatingCount(ctx context.Context, productID uuid.UUID) (int, error) {
	stats, err := a.Stats(ctx, productID)
	if err != nil {
		return 0, err
	}
	return stats.TotalReviews, nil
}

func (a *ReviewAggregator) RatingDistribution(ctx context.Context, productID uuid.UUID) (models.RatingDistribution, error) {
	stats, err := a.Stats(ctx, productID)
	if err != nil {
		return nil, err
	}
	return stats.Distribution, nil
}
