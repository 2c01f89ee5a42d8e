package scylla

import (
	"context"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"xyz_store/internal/models"
)

func (s *Store) AppendPriceHistory(ctx context.Context, h models.ProductPriceHistory) error {
	return s.products.Query(
		`INSERT INTO product_price_history (product_id, history_id, cost_price, selling_price, changed_by, changed_at, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cqlUUID(h.ProductID), cqlUUID(h.ID), toCents(h.CostPrice), toCents(h.SellingPrice),
		h.ChangedBy, utc(h.ChangedAt), h.Reason,
	).WithContext(ctx).Exec()
}

// ListPriceHistory s'appuie sur l'ordre de clustering (history_id DESC)
func (s *Store) ListPriceHistory(ctx context.Context, productID uuid.UUID) ([]models.ProductPriceHistory, error) {
	iter := s.products.Query(
		`SELECT history_id, cost_price, selling_price, changed_by, changed_at, reason
		FROM product_price_history WHERE product_id = ?`, cqlUUID(productID),
	).WithContext(ctx).Iter()

	var (
		out              []models.ProductPriceHistory
		historyID        gocql.UUID
		costCents, cents int64
		changedBy        *string
		changedAt        time.Time
		reason           string
	)
	for iter.Scan(&historyID, &costCents, &cents, &changedBy, &changedAt, &reason) {
		out = append(out, models.ProductPriceHistory{
			ID:           uuid.UUID(historyID),
			ProductID:    productID,
			CostPrice:    fromCents(costCents),
			SellingPrice: fromCents(cents),
			ChangedBy:    optionalString(changedBy),
			ChangedAt:    changedAt,
			Reason:       reason,
		})
		changedBy = nil
	}
	return out, iter.Close()
}

func (s *Store) DeletePriceHistory(ctx context.Context, productID, historyID uuid.UUID) error {
	applied, err := s.products.Query(
		"DELETE FROM product_price_history WHERE product_id = ? AND history_id = ? IF EXISTS",
		cqlUUID(productID), cqlUUID(historyID),
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return models.ErrNotFound
	}
	return nil
}
