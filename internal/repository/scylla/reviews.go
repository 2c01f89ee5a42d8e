package scylla

import (
	"context"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"xyz_store/internal/models"
)

const reviewColumns = "product_id, user_id, review_id, rating, title, comment, verified_purchase, created_at, updated_at"

// InsertReview s'appuie sur la clé (product_id, user_id) : un seul avis par client et par produit
func (s *Store) InsertReview(ctx context.Context, r models.ProductReview) (bool, error) {
	return s.products.Query(
		"INSERT INTO product_reviews ("+reviewColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) IF NOT EXISTS",
		cqlUUID(r.ProductID), r.UserID, cqlUUID(r.ID), r.Rating, r.Title, r.Comment,
		r.VerifiedPurchase, utc(r.CreatedAt), utc(r.UpdatedAt),
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
}

func (s *Store) UpdateReview(ctx context.Context, r models.ProductReview) (bool, error) {
	return s.products.Query(
		`UPDATE product_reviews SET rating = ?, title = ?, comment = ?, verified_purchase = ?, updated_at = ?
		WHERE product_id = ? AND user_id = ? IF EXISTS`,
		r.Rating, r.Title, r.Comment, r.VerifiedPurchase, utc(r.UpdatedAt),
		cqlUUID(r.ProductID), r.UserID,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
}

func scanReview(scan func(dest ...interface{}) error) (models.ProductReview, error) {
	var (
		productID, reviewID  gocql.UUID
		userID, title, body  string
		rating               int
		verified             bool
		createdAt, updatedAt time.Time
	)
	if err := scan(&productID, &userID, &reviewID, &rating, &title, &body, &verified, &createdAt, &updatedAt); err != nil {
		return models.ProductReview{}, err
	}
	return models.ProductReview{
		ID:               uuid.UUID(reviewID),
		ProductID:        uuid.UUID(productID),
		UserID:           userID,
		Rating:           rating,
		Title:            title,
		Comment:          body,
		VerifiedPurchase: verified,
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}, nil
}

func (s *Store) GetReview(ctx context.Context, productID uuid.UUID, userID string) (models.ProductReview, error) {
	q := s.products.Query("SELECT "+reviewColumns+" FROM product_reviews WHERE product_id = ? AND user_id = ?",
		cqlUUID(productID), userID).WithContext(ctx)
	r, err := scanReview(q.Scan)
	if err != nil {
		return models.ProductReview{}, translate(err)
	}
	return r, nil
}

func (s *Store) DeleteReview(ctx context.Context, productID uuid.UUID, userID string) error {
	_, err := s.products.Query("DELETE FROM product_reviews WHERE product_id = ? AND user_id = ? IF EXISTS",
		cqlUUID(productID), userID).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	return err
}

func (s *Store) ListReviews(ctx context.Context, productID uuid.UUID) ([]models.ProductReview, error) {
	scanner := s.products.Query("SELECT "+reviewColumns+" FROM product_reviews WHERE product_id = ?", cqlUUID(productID)).
		WithContext(ctx).Iter().Scanner()

	var out []models.ProductReview
	for scanner.Next() {
		r, err := scanReview(scanner.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, scanner.Err()
}
