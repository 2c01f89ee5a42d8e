package scylla

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"xyz_store/internal/models"
)

const productColumns = "product_id, category_id, name, slug, description, cost_price, price, stock, available, is_online, version, created_at, updated_at"

func (s *Store) CreateCategory(ctx context.Context, c models.Category) (bool, error) {
	applied, err := s.products.Query(
		"INSERT INTO categories_by_slug (slug, category_id) VALUES (?, ?) IF NOT EXISTS",
		c.Slug, cqlUUID(c.ID),
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil || !applied {
		return false, err
	}

	if err := s.products.Query(
		"INSERT INTO categories (category_id, name, slug) VALUES (?, ?, ?)",
		cqlUUID(c.ID), c.Name, c.Slug,
	).WithContext(ctx).Exec(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) GetCategory(ctx context.Context, id uuid.UUID) (models.Category, error) {
	var (
		cid        gocql.UUID
		name, slug string
	)
	err := s.products.Query("SELECT category_id, name, slug FROM categories WHERE category_id = ?", cqlUUID(id)).
		WithContext(ctx).Scan(&cid, &name, &slug)
	if err != nil {
		return models.Category{}, translate(err)
	}
	return models.Category{ID: uuid.UUID(cid), Name: name, Slug: slug}, nil
}

func (s *Store) GetCategoryBySlug(ctx context.Context, slug string) (models.Category, error) {
	var cid gocql.UUID
	err := s.products.Query("SELECT category_id FROM categories_by_slug WHERE slug = ?", slug).
		WithContext(ctx).Scan(&cid)
	if err != nil {
		return models.Category{}, translate(err)
	}
	return s.GetCategory(ctx, uuid.UUID(cid))
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	iter := s.products.Query("SELECT category_id, name, slug FROM categories").WithContext(ctx).Iter()

	var (
		out        []models.Category
		cid        gocql.UUID
		name, slug string
	)
	for iter.Scan(&cid, &name, &slug) {
		out = append(out, models.Category{ID: uuid.UUID(cid), Name: name, Slug: slug})
	}
	return out, iter.Close()
}

func (s *Store) CreateProduct(ctx context.Context, p models.Product) error {
	applied, err := s.products.Query(
		"INSERT INTO products ("+productColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) IF NOT EXISTS",
		cqlUUID(p.ID), cqlUUID(p.CategoryID), p.Name, p.Slug, p.Description,
		toCents(p.CostPrice), toCents(p.Price), p.Stock, p.Available, p.IsOnline,
		p.Version, utc(p.CreatedAt), utc(p.UpdatedAt),
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("produit %s déjà présent", p.ID)
	}

	return s.products.Query(
		"INSERT INTO products_by_category (category_id, product_id) VALUES (?, ?)",
		cqlUUID(p.CategoryID), cqlUUID(p.ID),
	).WithContext(ctx).Exec()
}

func scanProduct(scan func(dest ...interface{}) error) (models.Product, error) {
	var (
		id, categoryID          gocql.UUID
		name, slug, description string
		costCents, priceCents   int64
		stock                   int
		available, isOnline     bool
		version                 int64
		createdAt, updatedAt    time.Time
	)
	if err := scan(&id, &categoryID, &name, &slug, &description, &costCents, &priceCents,
		&stock, &available, &isOnline, &version, &createdAt, &updatedAt); err != nil {
		return models.Product{}, err
	}
	return models.Product{
		ID:          uuid.UUID(id),
		CategoryID:  uuid.UUID(categoryID),
		Name:        name,
		Slug:        slug,
		Description: description,
		CostPrice:   fromCents(costCents),
		Price:       fromCents(priceCents),
		Stock:       stock,
		Available:   available,
		IsOnline:    isOnline,
		Version:     version,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (models.Product, error) {
	q := s.products.Query("SELECT "+productColumns+" FROM products WHERE product_id = ?", cqlUUID(id)).WithContext(ctx)
	p, err := scanProduct(q.Scan)
	if err != nil {
		return models.Product{}, translate(err)
	}
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	scanner := s.products.Query("SELECT " + productColumns + " FROM products").WithContext(ctx).Iter().Scanner()

	var out []models.Product
	for scanner.Next() {
		p, err := scanProduct(scanner.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, scanner.Err()
}

func (s *Store) ListProductsByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Product, error) {
	iter := s.products.Query("SELECT product_id FROM products_by_category WHERE category_id = ?", cqlUUID(categoryID)).
		WithContext(ctx).Iter()

	var (
		ids []uuid.UUID
		pid gocql.UUID
	)
	for iter.Scan(&pid) {
		ids = append(ids, uuid.UUID(pid))
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		p, err := s.GetProduct(ctx, id)
		if errors.Is(err, models.ErrNotFound) {
			log.Printf("⚠️ Index catégorie orphelin: %s/%s", categoryID, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// buildProductUpdate traduit un patch en clauses SET ; version et updated_at sont toujours écrits
func buildProductUpdate(patch models.ProductPatch, nextVersion int64, updatedAt time.Time) (string, []interface{}) {
	updates := []string{}
	values := []interface{}{}

	if patch.CategoryID != nil {
		updates = append(updates, "category_id = ?")
		values = append(values, cqlUUID(*patch.CategoryID))
	}
	if patch.Name != nil {
		updates = append(updates, "name = ?")
		values = append(values, *patch.Name)
	}
	if patch.Slug != nil {
		updates = append(updates, "slug = ?")
		values = append(values, *patch.Slug)
	}
	if patch.Description != nil {
		updates = append(updates, "description = ?")
		values = append(values, *patch.Description)
	}
	if patch.CostPrice != nil {
		updates = append(updates, "cost_price = ?")
		values = append(values, toCents(*patch.CostPrice))
	}
	if patch.Price != nil {
		updates = append(updates, "price = ?")
		values = append(values, toCents(*patch.Price))
	}
	if patch.Stock != nil {
		updates = append(updates, "stock = ?")
		values = append(values, *patch.Stock)
	}
	if patch.Available != nil {
		updates = append(updates, "available = ?")
		values = append(values, *patch.Available)
	}

	updates = append(updates, "version = ?", "updated_at = ?")
	values = append(values, nextVersion, utc(updatedAt))

	return "UPDATE products SET " + strings.Join(updates, ", ") + " WHERE product_id = ? IF version = ?", values
}

func (s *Store) UpdateProduct(ctx context.Context, before models.Product, patch models.ProductPatch, updatedAt time.Time) (bool, error) {
	query, values := buildProductUpdate(patch, before.Version+1, updatedAt)
	values = append(values, cqlUUID(before.ID), before.Version)

	applied, err := s.products.Query(query, values...).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil || !applied {
		return false, err
	}

	if patch.CategoryID != nil && *patch.CategoryID != before.CategoryID {
		b := s.products.NewBatch(gocql.LoggedBatch).WithContext(ctx)
		b.Query("DELETE FROM products_by_category WHERE category_id = ? AND product_id = ?", cqlUUID(before.CategoryID), cqlUUID(before.ID))
		b.Query("INSERT INTO products_by_category (category_id, product_id) VALUES (?, ?)", cqlUUID(*patch.CategoryID), cqlUUID(before.ID))
		if err := s.products.ExecuteBatch(b); err != nil {
			return true, fmt.Errorf("index catégorie de %s: %w", before.ID, err)
		}
	}
	return true, nil
}

func (s *Store) SetOnline(ctx context.Context, id uuid.UUID, online bool, updatedAt time.Time) error {
	applied, err := s.products.Query(
		"UPDATE products SET is_online = ?, updated_at = ? WHERE product_id = ? IF EXISTS",
		online, utc(updatedAt), cqlUUID(id),
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return models.ErrNotFound
	}
	return nil
}

// DeleteProduct supprime le produit puis, en lot, son index, son historique et ses avis
func (s *Store) DeleteProduct(ctx context.Context, p models.Product) error {
	applied, err := s.products.Query("DELETE FROM products WHERE product_id = ? IF EXISTS", cqlUUID(p.ID)).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return models.ErrNotFound
	}

	b := s.products.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	b.Query("DELETE FROM products_by_category WHERE category_id = ? AND product_id = ?", cqlUUID(p.CategoryID), cqlUUID(p.ID))
	b.Query("DELETE FROM product_price_history WHERE product_id = ?", cqlUUID(p.ID))
	b.Query("DELETE FROM product_reviews WHERE product_id = ?", cqlUUID(p.ID))
	return s.products.ExecuteBatch(b)
}
