package scylla

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"xyz_store/internal/models"
)

const saleColumns = "sale_id, order_id, sale_date, category_id, product_id, sold_price, quantity, reference"

const insertSaleCQL = "INSERT INTO sales (" + saleColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?)"

func saleValues(sale models.Sale) []interface{} {
	var orderID *gocql.UUID
	if sale.OrderID != nil {
		id := cqlUUID(*sale.OrderID)
		orderID = &id
	}
	return []interface{}{
		cqlUUID(sale.ID), orderID, utc(sale.Date), cqlUUID(sale.CategoryID), cqlUUID(sale.ProductID),
		toCents(sale.SoldPrice), sale.Quantity, sale.Reference,
	}
}

// au-delà, une réservation sans ventes est celle d'un écrivain interrompu
const claimStaleAfter = 5 * time.Minute

func claimIsStale(claimedAt, now time.Time) bool {
	return !claimedAt.IsZero() && now.Sub(claimedAt) > claimStaleAfter
}

// CreateOrderSales réserve la commande dans order_sales_claims (LWT) puis
// écrit le lot de ventes. La réservation est libérée si le lot échoue ; une
// réservation ancienne sans aucune vente est reprise (processus arrêté entre
// les deux écritures).
func (s *Store) CreateOrderSales(ctx context.Context, orderID uuid.UUID, sales []models.Sale) (bool, error) {
	now := time.Now().UTC()
	existing := map[string]interface{}{}
	applied, err := s.orders.Query(
		"INSERT INTO order_sales_claims (order_id, claimed_at) VALUES (?, ?) IF NOT EXISTS",
		cqlUUID(orderID), now,
	).WithContext(ctx).MapScanCAS(existing)
	if err != nil {
		return false, err
	}
	if !applied {
		claimedAt, _ := existing["claimed_at"].(time.Time)
		if !claimIsStale(claimedAt, now) {
			return false, nil
		}
		taken, err := s.takeOverClaim(ctx, orderID, claimedAt, now)
		if err != nil || !taken {
			return false, err
		}
		log.Printf("🔁 Réservation des ventes reprise pour la commande %s (posée le %s)", orderID, claimedAt.Format(time.RFC3339))
	}

	b := s.orders.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	for _, sale := range sales {
		b.Query(insertSaleCQL, saleValues(sale)...)
		b.Query("INSERT INTO sales_by_order (order_id, sale_id) VALUES (?, ?)", cqlUUID(orderID), cqlUUID(sale.ID))
	}
	if err := s.orders.ExecuteBatch(b); err != nil {
		if relErr := s.orders.Query("DELETE FROM order_sales_claims WHERE order_id = ?", cqlUUID(orderID)).
			WithContext(ctx).Exec(); relErr != nil {
			log.Printf("❌ Réservation des ventes non libérée pour %s: %v", orderID, relErr)
		}
		return false, err
	}
	return true, nil
}

// takeOverClaim ne reprend que si aucune vente n'existe pour la commande ;
// la condition sur claimed_at garantit qu'un seul repreneur gagne.
func (s *Store) takeOverClaim(ctx context.Context, orderID uuid.UUID, claimedAt, now time.Time) (bool, error) {
	var sid gocql.UUID
	err := s.orders.Query("SELECT sale_id FROM sales_by_order WHERE order_id = ? LIMIT 1", cqlUUID(orderID)).
		WithContext(ctx).Scan(&sid)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, gocql.ErrNotFound):
		return false, err
	}

	return s.orders.Query(
		"UPDATE order_sales_claims SET claimed_at = ? WHERE order_id = ? IF claimed_at = ?",
		now, cqlUUID(orderID), claimedAt,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
}

// CreateManualSale réserve la référence (LWT) ; une référence déjà prise renvoie la vente existante
func (s *Store) CreateManualSale(ctx context.Context, sale models.Sale) (models.Sale, bool, error) {
	existing := map[string]interface{}{}
	applied, err := s.orders.Query(
		"INSERT INTO manual_sales_by_reference (reference, sale_id) VALUES (?, ?) IF NOT EXISTS",
		sale.Reference, cqlUUID(sale.ID),
	).WithContext(ctx).MapScanCAS(existing)
	if err != nil {
		return models.Sale{}, false, err
	}
	if !applied {
		saleID, ok := existing["sale_id"].(gocql.UUID)
		if !ok {
			return models.Sale{}, false, fmt.Errorf("référence %q sans vente associée", sale.Reference)
		}
		stored, err := s.getSale(ctx, uuid.UUID(saleID))
		return stored, false, err
	}

	if err := s.orders.Query(insertSaleCQL, saleValues(sale)...).WithContext(ctx).Exec(); err != nil {
		if relErr := s.orders.Query("DELETE FROM manual_sales_by_reference WHERE reference = ?", sale.Reference).
			WithContext(ctx).Exec(); relErr != nil {
			log.Printf("❌ Référence %q non libérée: %v", sale.Reference, relErr)
		}
		return models.Sale{}, false, err
	}
	return sale, true, nil
}

func scanSale(scan func(dest ...interface{}) error) (models.Sale, error) {
	var (
		saleID, categoryID, productID gocql.UUID
		orderID                       *gocql.UUID
		date                          time.Time
		cents                         int64
		quantity                      int
		reference                     string
	)
	if err := scan(&saleID, &orderID, &date, &categoryID, &productID, &cents, &quantity, &reference); err != nil {
		return models.Sale{}, err
	}
	return models.Sale{
		ID:         uuid.UUID(saleID),
		OrderID:    optionalUUID(orderID),
		Date:       date,
		CategoryID: uuid.UUID(categoryID),
		ProductID:  uuid.UUID(productID),
		SoldPrice:  fromCents(cents),
		Quantity:   quantity,
		Reference:  reference,
	}, nil
}

func (s *Store) getSale(ctx context.Context, id uuid.UUID) (models.Sale, error) {
	q := s.orders.Query("SELECT "+saleColumns+" FROM sales WHERE sale_id = ?", cqlUUID(id)).WithContext(ctx)
	sale, err := scanSale(q.Scan)
	if err != nil {
		return models.Sale{}, translate(err)
	}
	return sale, nil
}

func (s *Store) ListSalesByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Sale, error) {
	iter := s.orders.Query("SELECT sale_id FROM sales_by_order WHERE order_id = ?", cqlUUID(orderID)).WithContext(ctx).Iter()

	var (
		ids []uuid.UUID
		sid gocql.UUID
	)
	for iter.Scan(&sid) {
		ids = append(ids, uuid.UUID(sid))
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	out := make([]models.Sale, 0, len(ids))
	for _, id := range ids {
		sale, err := s.getSale(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, sale)
	}
	return out, nil
}

// ListSalesSince parcourt la table des ventes ; volume faible, filtrage côté serveur
func (s *Store) ListSalesSince(ctx context.Context, since time.Time) ([]models.Sale, error) {
	scanner := s.orders.Query("SELECT "+saleColumns+" FROM sales WHERE sale_date >= ? ALLOW FILTERING", utc(since)).
		WithContext(ctx).Iter().Scanner()

	var out []models.Sale
	for scanner.Next() {
		sale, err := scanSale(scanner.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, sale)
	}
	return out, scanner.Err()
}
