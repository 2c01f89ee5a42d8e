package scylla

import (
	"context"
	"errors"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"xyz_store/internal/models"
)

const orderColumns = "order_id, user_id, first_name, last_name, email, address, postal_code, city, paid, payment_method, payment_id, status, created_at, updated_at"

// CreateOrder écrit la commande, ses lignes et l'index client dans un lot journalisé
func (s *Store) CreateOrder(ctx context.Context, o models.Order, items []models.OrderItem) error {
	b := s.orders.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	b.Query("INSERT INTO orders ("+orderColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		cqlUUID(o.ID), o.UserID, o.FirstName, o.LastName, o.Email, o.Address, o.PostalCode, o.City,
		o.Paid, o.PaymentMethod, o.PaymentID, string(o.Status), utc(o.CreatedAt), utc(o.UpdatedAt))

	for _, item := range items {
		b.Query("INSERT INTO order_items (order_id, item_id, product_id, price, quantity) VALUES (?, ?, ?, ?, ?)",
			cqlUUID(o.ID), cqlUUID(item.ID), cqlUUID(item.ProductID), toCents(item.Price), item.Quantity)
	}
	if o.UserID != nil {
		b.Query("INSERT INTO orders_by_user (user_id, created_at, order_id) VALUES (?, ?, ?)",
			*o.UserID, utc(o.CreatedAt), cqlUUID(o.ID))
	}

	return s.orders.ExecuteBatch(b)
}

func scanOrder(scan func(dest ...interface{}) error) (models.Order, error) {
	var (
		id                               gocql.UUID
		userID                           *string
		firstName, lastName, email       string
		address, postalCode, city        string
		paid                             bool
		paymentMethod, paymentID, status string
		createdAt, updatedAt             time.Time
	)
	if err := scan(&id, &userID, &firstName, &lastName, &email, &address, &postalCode, &city,
		&paid, &paymentMethod, &paymentID, &status, &createdAt, &updatedAt); err != nil {
		return models.Order{}, err
	}
	return models.Order{
		ID:            uuid.UUID(id),
		UserID:        optionalString(userID),
		FirstName:     firstName,
		LastName:      lastName,
		Email:         email,
		Address:       address,
		PostalCode:    postalCode,
		City:          city,
		Paid:          paid,
		PaymentMethod: paymentMethod,
		PaymentID:     paymentID,
		Status:        models.OrderStatus(status),
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}

func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (models.Order, error) {
	q := s.orders.Query("SELECT "+orderColumns+" FROM orders WHERE order_id = ?", cqlUUID(id)).WithContext(ctx)
	o, err := scanOrder(q.Scan)
	if err != nil {
		return models.Order{}, translate(err)
	}
	return o, nil
}

func (s *Store) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	iter := s.orders.Query("SELECT item_id, product_id, price, quantity FROM order_items WHERE order_id = ?", cqlUUID(orderID)).
		WithContext(ctx).Iter()

	var (
		out               []models.OrderItem
		itemID, productID gocql.UUID
		cents             int64
		quantity          int
	)
	for iter.Scan(&itemID, &productID, &cents, &quantity) {
		out = append(out, models.OrderItem{
			ID:        uuid.UUID(itemID),
			OrderID:   orderID,
			ProductID: uuid.UUID(productID),
			Price:     fromCents(cents),
			Quantity:  quantity,
		})
	}
	return out, iter.Close()
}

func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	scanner := s.orders.Query("SELECT " + orderColumns + " FROM orders").WithContext(ctx).Iter().Scanner()

	var out []models.Order
	for scanner.Next() {
		o, err := scanOrder(scanner.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, scanner.Err()
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	iter := s.orders.Query("SELECT order_id FROM orders_by_user WHERE user_id = ?", userID).WithContext(ctx).Iter()

	var (
		ids []uuid.UUID
		oid gocql.UUID
	)
	for iter.Scan(&oid) {
		ids = append(ids, uuid.UUID(oid))
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	out := make([]models.Order, 0, len(ids))
	for _, id := range ids {
		o, err := s.GetOrder(ctx, id)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// MarkPaid ne s'applique que si paid vaut encore false
func (s *Store) MarkPaid(ctx context.Context, id uuid.UUID, method, paymentID string, at time.Time) (bool, error) {
	return s.orders.Query(
		`UPDATE orders SET paid = true, payment_method = ?, payment_id = ?, status = ?, updated_at = ?
		WHERE order_id = ? IF paid = false`,
		method, paymentID, string(models.StatusProcessing), utc(at), cqlUUID(id),
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
}

func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus, at time.Time) (bool, error) {
	return s.orders.Query(
		"UPDATE orders SET status = ?, updated_at = ? WHERE order_id = ? IF status = ?",
		string(to), utc(at), cqlUUID(id), string(from),
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
}
